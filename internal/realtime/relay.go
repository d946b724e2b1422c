package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/store"
)

const (
	publishTimeout = 2 * time.Second

	// consecutive publish failures before notices are dropped for a while
	publishFailureThreshold = 3
	publishCooldown         = 30 * time.Second
)

// Refresher reloads local state after another instance committed a change.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Relay publishes local commits to a redis channel and refreshes the local
// store when another instance publishes.
type Relay struct {
	rdb      *redis.Client
	channel  string
	instance string
	target   Refresher
	log      zerolog.Logger
	breaker  *breaker

	sub  *redis.PubSub
	done chan struct{}
}

// NewRelay creates a relay with a fresh instance id.
func NewRelay(rdb *redis.Client, channel string, target Refresher) *Relay {
	instance := uuid.New().String()
	return &Relay{
		rdb:      rdb,
		channel:  channel,
		instance: instance,
		target:   target,
		log:      logger.For("relay").With().Str("instance", instance).Logger(),
		breaker:  newBreaker(publishFailureThreshold, publishCooldown),
		done:     make(chan struct{}),
	}
}

// Instance returns the id stamped on published notices.
func (r *Relay) Instance() string {
	return r.instance
}

// Start subscribes and begins consuming notices in the background.
func (r *Relay) Start(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.sub = sub
	go r.consume(ctx, sub.Channel())
	r.log.Info().Str("channel", r.channel).Msg("Redis relay started")
	return nil
}

func (r *Relay) consume(ctx context.Context, ch <-chan *redis.Message) {
	defer close(r.done)
	for msg := range ch {
		var n Notice
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			r.log.Warn().Err(err).Msg("Ignoring malformed change notice")
			continue
		}
		if n.Instance == r.instance {
			continue
		}
		if err := r.target.Refresh(ctx); err != nil {
			r.log.Error().Err(err).Str("from", n.Instance).Msg("Failed to refresh after remote change")
			continue
		}
		r.log.Debug().Str("from", n.Instance).Str("kind", n.Kind).Msg("Refreshed after remote change")
	}
}

// Publish announces a local commit. Failures are logged; other instances
// catch up on their next notice. While redis keeps failing, notices are
// dropped without a network round trip until the cooldown passes.
func (r *Relay) Publish(kind store.ChangeKind) {
	if !r.breaker.allow() {
		r.log.Debug().Str("kind", string(kind)).Msg("Change notice dropped, redis unavailable")
		return
	}

	data, err := json.Marshal(Notice{Instance: r.instance, Kind: string(kind)})
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encode change notice")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err = r.rdb.Publish(ctx, r.channel, data).Err()

	state, changed := r.breaker.record(err)
	if err != nil {
		r.log.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to publish change notice")
	}
	if changed {
		r.log.Info().Str("breaker", state.String()).Msg("Redis publish breaker changed state")
	}
}

// Close unsubscribes and waits for the consumer to stop.
func (r *Relay) Close() error {
	if r.sub == nil {
		return nil
	}
	err := r.sub.Close()
	<-r.done
	return err
}
