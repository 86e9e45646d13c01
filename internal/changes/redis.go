package changes

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/redis"
)

// messageSource yields raw pub/sub payloads for one channel. The returned
// channel is closed when the subscription ends.
type messageSource interface {
	Messages(ctx context.Context, channel string) (<-chan string, func() error, error)
}

type redisSource struct {
	client *redis.Client
}

func (r redisSource) Messages(ctx context.Context, channel string) (<-chan string, func() error, error) {
	sub, err := r.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan string)
	stop := make(chan struct{})
	go func() {
		defer close(out)
		in := sub.Messages()
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-stop:
					return
				}
			}
		}
	}()
	var once sync.Once
	closeFn := func() error {
		var err error
		once.Do(func() {
			close(stop)
			err = sub.Close()
		})
		return err
	}
	return out, closeFn, nil
}

// RedisSubscriber receives change announcements published by Publisher.
type RedisSubscriber struct {
	source  messageSource
	channel string
}

func NewRedisSubscriber(client *redis.Client, channel string) *RedisSubscriber {
	return &RedisSubscriber{source: redisSource{client: client}, channel: client.ChannelKey(channel)}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, onChange func(enums.Kind), onDrop func(error)) (Subscription, error) {
	msgs, closeFn, err := s.source.Messages(ctx, s.channel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "subscribe to change channel")
	}
	sub := &redisSubscription{closeFn: closeFn, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case payload, ok := <-msgs:
				if !ok {
					if !sub.closed() && onDrop != nil {
						onDrop(errors.New("change channel closed"))
					}
					return
				}
				for _, kind := range kindsFromPayload(payload) {
					onChange(kind)
				}
			}
		}
	}()
	return sub, nil
}

type redisSubscription struct {
	closeFn func() error
	done    chan struct{}
	once    sync.Once
	err     error
}

func (s *redisSubscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.closeFn()
	})
	return s.err
}

type publishClient interface {
	Publish(ctx context.Context, channel, message string) (int64, error)
}

// Publisher announces writes for the Redis transport. Postgres relies on
// triggers instead.
type Publisher struct {
	client  publishClient
	channel string
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: client.ChannelKey(channel)}
}

// Notify publishes the collection name. Failures are returned but delivery
// is best effort.
func (p *Publisher) Notify(ctx context.Context, kind enums.Kind) error {
	if p == nil || p.client == nil {
		return nil
	}
	if _, err := p.client.Publish(ctx, p.channel, kind.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "publish change")
	}
	return nil
}
