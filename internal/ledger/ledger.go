// Package ledger is the process's durable dedup: two network-attached id
// sets, started and finished. It exists only to keep a mirror from being
// created twice; claim/done state belongs to the registry.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"transcribot/internal/core"
	inats "transcribot/internal/nats"
)

// kv is the slice of jetstream.KeyValue the ledger needs; tests swap in
// an in-memory one.
type kv interface {
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
}

type Ledger struct {
	Logger *slog.Logger
	NATS   *inats.NATS

	started  kv
	finished kv
}

var _ core.Ledger = (*Ledger)(nil)

func (l *Ledger) Init(context.Context) error {
	l.Logger = l.Logger.With("component", "ledger.Ledger")
	l.started = l.NATS.Started
	l.finished = l.NATS.Finished
	return nil
}

// TryBegin atomically inserts id into the started set. BeginFresh on the
// first insert, BeginInFlight when a previous attempt never finished,
// BeginFinished when the id is terminally done. Backend failures are
// returned loudly; callers must not proceed on error.
func (l *Ledger) TryBegin(ctx context.Context, id string) (core.BeginState, error) {
	done, err := l.IsFinished(ctx, id)
	if err != nil {
		return 0, err
	}
	if done {
		return core.BeginFinished, nil
	}

	_, err = l.started.Create(ctx, id, stamp())
	if err == nil {
		return core.BeginFresh, nil
	}
	if errors.Is(err, jetstream.ErrKeyExists) {
		return core.BeginInFlight, nil
	}
	return 0, fmt.Errorf("ledger try-begin %s: %w", id, err)
}

// MarkFinished moves id to its terminal state.
func (l *Ledger) MarkFinished(ctx context.Context, id string) error {
	if _, err := l.finished.Put(ctx, id, stamp()); err != nil {
		return fmt.Errorf("ledger mark-finished %s: %w", id, err)
	}
	return nil
}

// IsFinished reports whether id has reached its terminal state.
func (l *Ledger) IsFinished(ctx context.Context, id string) (bool, error) {
	_, err := l.finished.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("ledger is-finished %s: %w", id, err)
}

func stamp() []byte {
	return []byte(strconv.FormatInt(time.Now().Unix(), 10))
}
