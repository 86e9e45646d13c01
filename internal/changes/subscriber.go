package changes

import (
	"context"
	"strings"

	"github.com/angelmondragon/shipbridge/pkg/enums"
)

// Subscription is an open change channel. Close releases it and is safe to
// call more than once.
type Subscription interface {
	Close() error
}

// Subscriber opens change channels. onChange receives the collection named by
// the notification; it carries no payload and no ordering guarantee. onDrop,
// when set, is called once if the transport goes away; nothing reconnects
// until Subscribe is called again.
type Subscriber interface {
	Subscribe(ctx context.Context, onChange func(enums.Kind), onDrop func(error)) (Subscription, error)
}

// kindsFromPayload maps a notification payload (a table name, or empty for
// "something changed") onto collections.
func kindsFromPayload(payload string) []enums.Kind {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return enums.AllKinds
	}
	if i := strings.LastIndex(payload, "."); i >= 0 {
		payload = payload[i+1:]
	}
	kind, err := enums.ParseKind(payload)
	if err != nil {
		return enums.AllKinds
	}
	return []enums.Kind{kind}
}
