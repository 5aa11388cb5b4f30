package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"transcribot/internal/core"
)

type fakeEntry struct {
	key   string
	value []byte
}

func (e fakeEntry) Bucket() string                  { return "fake" }
func (e fakeEntry) Key() string                     { return e.key }
func (e fakeEntry) Value() []byte                   { return e.value }
func (e fakeEntry) Revision() uint64                { return 1 }
func (e fakeEntry) Created() time.Time              { return time.Time{} }
func (e fakeEntry) Delta() uint64                   { return 0 }
func (e fakeEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

type fakeKV struct {
	data map[string][]byte
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Create(_ context.Context, key string, value []byte) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.data[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	f.data[key] = value
	return 1, nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.data[key] = value
	return 1, nil
}

func (f *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return fakeEntry{key: key, value: v}, nil
}

func newTestLedger() (*Ledger, *fakeKV, *fakeKV) {
	started, finished := newFakeKV(), newFakeKV()
	return &Ledger{
		Logger:   slog.Default(),
		started:  started,
		finished: finished,
	}, started, finished
}

func TestTryBegin(t *testing.T) {
	t.Parallel()

	t.Run("fresh id", func(t *testing.T) {
		t.Parallel()

		l, _, _ := newTestLedger()
		state, err := l.TryBegin(t.Context(), "t3_abc")
		require.NoError(t, err)
		require.Equal(t, core.BeginFresh, state)
	})

	t.Run("in flight after unfinished begin", func(t *testing.T) {
		t.Parallel()

		l, _, _ := newTestLedger()
		_, err := l.TryBegin(t.Context(), "t3_abc")
		require.NoError(t, err)

		state, err := l.TryBegin(t.Context(), "t3_abc")
		require.NoError(t, err)
		require.Equal(t, core.BeginInFlight, state)
	})

	t.Run("finished is terminal", func(t *testing.T) {
		t.Parallel()

		l, _, _ := newTestLedger()
		_, err := l.TryBegin(t.Context(), "t3_abc")
		require.NoError(t, err)
		require.NoError(t, l.MarkFinished(t.Context(), "t3_abc"))

		state, err := l.TryBegin(t.Context(), "t3_abc")
		require.NoError(t, err)
		require.Equal(t, core.BeginFinished, state)
	})

	t.Run("backend failure is loud", func(t *testing.T) {
		t.Parallel()

		l, started, _ := newTestLedger()
		started.err = errors.New("connection refused")

		_, err := l.TryBegin(t.Context(), "t3_abc")
		require.Error(t, err)
	})
}

func TestIsFinished(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLedger()

	done, err := l.IsFinished(t.Context(), "t3_abc")
	require.NoError(t, err)
	require.False(t, done)

	require.NoError(t, l.MarkFinished(t.Context(), "t3_abc"))

	done, err = l.IsFinished(t.Context(), "t3_abc")
	require.NoError(t, err)
	require.True(t, done)
}
