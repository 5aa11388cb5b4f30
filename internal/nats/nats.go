package nats

import (
	"context"
	"log/slog"

	libnats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"transcribot/internal/config"
)

// Bucket names. Started and Finished together form the idempotency
// ledger; State holds small cursors such as the meta-sweep watermark.
const (
	BucketStarted  = "transcribot_post_ids"
	BucketFinished = "transcribot_complete_post_ids"
	BucketState    = "transcribot_state"
)

// NATS owns the server connection and the KV buckets the bot persists
// through. It is the only stateful backend the process talks to besides
// the registry.
type NATS struct {
	Logger *slog.Logger
	Config *config.Config

	JS       jetstream.JetStream
	Started  jetstream.KeyValue
	Finished jetstream.KeyValue
	State    jetstream.KeyValue
}

func (n *NATS) Init(ctx context.Context) error {
	n.Logger = n.Logger.With("component", "nats.NATS")

	nc, err := libnats.Connect(n.Config.NATSURL)
	if err != nil {
		return err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return err
	}
	n.JS = js

	if n.Config.NATSInit {
		if err := n.createBuckets(ctx); err != nil {
			return err
		}
	}

	if n.Started, err = js.KeyValue(ctx, BucketStarted); err != nil {
		return err
	}
	if n.Finished, err = js.KeyValue(ctx, BucketFinished); err != nil {
		return err
	}
	if n.State, err = js.KeyValue(ctx, BucketState); err != nil {
		return err
	}

	return nil
}

func (n *NATS) HealthCheck(context.Context) error {
	_, err := n.JS.Conn().RTT()
	return err
}

func (n *NATS) Shutdown(context.Context) error {
	return n.JS.Conn().Drain()
}

func (n *NATS) createBuckets(ctx context.Context) error {
	n.Logger.Info("Initializing NATS buckets")
	for _, bucket := range []string{BucketStarted, BucketFinished, BucketState} {
		_, err := n.JS.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: bucket,
		})
		if err != nil {
			return err
		}
		n.Logger.Info("KeyValue created or updated", "name", bucket)
	}
	return nil
}
