// Package notifications delivers rollback notifications raised by the cart manager.
package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shopcart/pkg/cartstate"
	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
	"github.com/angelmondragon/shopcart/pkg/logger"
	pkgredis "github.com/angelmondragon/shopcart/pkg/redis"
)

// LogSink writes notifications as structured log entries.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) (*LogSink, error) {
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &LogSink{logg: logg}, nil
}

func (s *LogSink) Notify(ctx context.Context, n cartstate.Notification) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"kind":      string(n.Kind),
		"title":     n.Title,
		"op":        string(n.Operation),
		"line_id":   n.LineID,
		"user_text": n.Message,
	})
	s.logg.Warn(ctx, "cart.notification")
	return nil
}

// message is the pub/sub payload published for each notification.
type message struct {
	cartstate.Notification
	SentAt time.Time `json:"sentAt"`
}

// PublisherSink publishes notifications on a Redis channel so other processes (a UI
// gateway, a push service) can show them.
type PublisherSink struct {
	pub     pkgredis.Publisher
	channel string
	now     func() time.Time
}

// NewPublisherSink publishes on the bare channel name; the publisher applies its own
// key prefix.
func NewPublisherSink(pub pkgredis.Publisher, channel string) (*PublisherSink, error) {
	if pub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "redis publisher required")
	}
	if channel == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification channel required")
	}
	return &PublisherSink{pub: pub, channel: pub.ChannelName(channel), now: time.Now}, nil
}

func (s *PublisherSink) Notify(ctx context.Context, n cartstate.Notification) error {
	payload, err := json.Marshal(message{Notification: n, SentAt: s.now().UTC()})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification")
	}
	if _, err := s.pub.Publish(ctx, s.channel, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish notification")
	}
	return nil
}

// Fanout delivers to every sink and combines their errors.
type Fanout []cartstate.Notifier

// NewFanout assembles the sinks of a cart host: the log, the recorder when set, and Redis
// pub/sub on channel when pub is non-nil.
func NewFanout(logg *logger.Logger, recorder *Recorder, pub pkgredis.Publisher, channel string) (Fanout, error) {
	logSink, err := NewLogSink(logg)
	if err != nil {
		return nil, err
	}
	fanout := Fanout{logSink}
	if recorder != nil {
		fanout = append(fanout, recorder)
	}
	if pub != nil {
		publisher, err := NewPublisherSink(pub, channel)
		if err != nil {
			return nil, err
		}
		fanout = append(fanout, publisher)
	}
	return fanout, nil
}

func (f Fanout) Notify(ctx context.Context, n cartstate.Notification) error {
	var err error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		err = multierr.Append(err, sink.Notify(ctx, n))
	}
	return err
}

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []cartstate.Notification
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 20
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, n cartstate.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append([]cartstate.Notification(nil), r.items[over:]...)
	}
	return nil
}

// Recent returns the stored notifications, oldest first.
func (r *Recorder) Recent() []cartstate.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cartstate.Notification(nil), r.items...)
}
