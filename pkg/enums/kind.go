package enums

import "fmt"

// Kind identifies a synchronized collection.
type Kind string

const (
	KindOrders    Kind = "orders"
	KindShipments Kind = "shipments"
)

// AllKinds lists collections in push/pull order.
var AllKinds = []Kind{KindOrders, KindShipments}

func (k Kind) String() string {
	return string(k)
}

// ParseKind maps a collection or table name onto a Kind.
func ParseKind(value string) (Kind, error) {
	switch value {
	case "orders":
		return KindOrders, nil
	case "shipments":
		return KindShipments, nil
	}
	return "", fmt.Errorf("invalid kind %q", value)
}
