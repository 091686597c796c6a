// Redis-backed Notifier. Pub/sub carries the live fan-out between nodes;
// every event is additionally appended to a capped stream so external
// consumers can tail mutations without holding a subscription open.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	channelPrefix = "yahora.question."
	streamEvents  = "yahora.events"
	streamMaxLen  = 10000
)

// Redis fans events out through a redis server. It satisfies Notifier.
type Redis struct {
	rdb *redis.Client
}

// MustRedis parses a redis URL and returns a connected client, panicking on a
// malformed URL. Connection failures surface on first use.
func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatal().Err(err).Msg("redis: invalid REDIS_URL")
	}
	return redis.NewClient(opt)
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Publish sends the event to the question's pub/sub channel and appends it to
// the event stream. A stream append failure is logged but does not fail the
// publish; the stream is an audit tail, not the delivery path.
func (r *Redis) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, channelPrefix+ev.QuestionID, payload).Err(); err != nil {
		return err
	}
	if err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamEvents,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"kind":        ev.Kind,
			"question_id": ev.QuestionID,
			"status":      ev.Status,
			"answer_id":   ev.AnswerID,
			"at":          ev.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		},
	}).Err(); err != nil {
		log.Warn().Err(err).Str("question_id", ev.QuestionID).Msg("notify: stream append failed")
	}
	return nil
}

// Subscribe implements Notifier over a redis pub/sub channel. The returned
// unsubscribe function closes the subscription and drains the goroutine.
func (r *Redis) Subscribe(questionID string) (<-chan Event, func()) {
	sub := r.rdb.Subscribe(context.Background(), channelPrefix+questionID)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("notify: bad event payload")
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()

	return out, func() { _ = sub.Close() }
}
