package changes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/lib/pq"
)

// ConfigSource resolves the effective remote settings; mode.RemoteProvider
// satisfies it.
type ConfigSource interface {
	Config(ctx context.Context) (config.RemoteConfig, error)
}

type listenerConn interface {
	Listen(channel string) error
	Notifications() <-chan *pq.Notification
	Close() error
}

type listenerFactory func(dsn string, onEvent pq.EventCallbackType) listenerConn

type pqListener struct {
	*pq.Listener
}

func (l pqListener) Notifications() <-chan *pq.Notification { return l.Notify }

func newPQListener(dsn string, onEvent pq.EventCallbackType) listenerConn {
	return pqListener{pq.NewListener(dsn, time.Second, 10*time.Second, onEvent)}
}

// PGSubscriber listens on a Postgres NOTIFY channel fed by row triggers on
// the orders and shipments tables.
type PGSubscriber struct {
	source  ConfigSource
	channel string
	factory listenerFactory
}

func NewPGSubscriber(source ConfigSource, channel string) *PGSubscriber {
	return &PGSubscriber{source: source, channel: channel, factory: newPQListener}
}

// Subscribe issues LISTEN and starts delivering notifications. A lost
// connection closes the subscription and reports through onDrop.
func (s *PGSubscriber) Subscribe(ctx context.Context, onChange func(enums.Kind), onDrop func(error)) (Subscription, error) {
	cfg, err := s.source.Config(ctx)
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid remote configuration")
	}

	sub := &pgSubscription{done: make(chan struct{})}
	conn := s.factory(dsn, func(event pq.ListenerEventType, err error) {
		switch event {
		case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
			if err == nil {
				err = errors.New("listener disconnected")
			}
			// closing from inside the callback would block the listener goroutine
			go sub.drop(err, onDrop)
		}
	})
	sub.conn = conn

	if err := conn.Listen(s.channel); err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, fmt.Sprintf("listen on %s", s.channel))
	}
	go sub.loop(ctx, onChange)
	return sub, nil
}

type pgSubscription struct {
	conn listenerConn
	done chan struct{}

	once     sync.Once
	closeErr error
	dropOnce sync.Once
}

func (s *pgSubscription) loop(ctx context.Context, onChange func(enums.Kind)) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			_ = s.Close()
			return
		case n, ok := <-s.conn.Notifications():
			if !ok {
				return
			}
			if n == nil {
				continue
			}
			for _, kind := range kindsFromPayload(n.Extra) {
				onChange(kind)
			}
		}
	}
}

func (s *pgSubscription) drop(err error, onDrop func(error)) {
	s.dropOnce.Do(func() {
		select {
		case <-s.done:
			return
		default:
		}
		_ = s.Close()
		if onDrop != nil {
			onDrop(err)
		}
	})
}

func (s *pgSubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
