package bundles

import (
	"slices"

	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/shipments"
)

// Violation reports an order referenced by more than one live shipment.
type Violation struct {
	OrderUUID string   `json:"order_uuid"`
	Shipments []string `json:"shipments"`
}

// BundledSet is the union of order uuids referenced by live shipments,
// leaving out the shipment identified by except so its current members stay
// selectable while it is being edited.
func BundledSet(list []shipments.Shipment, except string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, s := range list {
		if s.Deleted || (except != "" && s.UUID == except) {
			continue
		}
		for _, id := range s.OrderUUIDs {
			set[id] = struct{}{}
		}
	}
	return set
}

// AvailableOrders returns the live orders not referenced by any other
// shipment, preserving input order.
func AvailableOrders(all []orders.Order, list []shipments.Shipment, except string) []orders.Order {
	bundled := BundledSet(list, except)
	out := make([]orders.Order, 0, len(all))
	for _, o := range all {
		if o.Deleted {
			continue
		}
		if _, taken := bundled[o.UUID]; taken {
			continue
		}
		out = append(out, o)
	}
	return out
}

// CheckExclusivity lists every order uuid found in two or more live
// shipments. An empty result means the bundling invariant holds.
func CheckExclusivity(list []shipments.Shipment) []Violation {
	owners := make(map[string][]string)
	for _, s := range list {
		if s.Deleted {
			continue
		}
		for _, id := range shipments.NormalizeSet(s.OrderUUIDs) {
			owners[id] = append(owners[id], s.UUID)
		}
	}
	var out []Violation
	for id, refs := range owners {
		if len(refs) < 2 {
			continue
		}
		slices.Sort(refs)
		out = append(out, Violation{OrderUUID: id, Shipments: refs})
	}
	slices.SortFunc(out, func(a, b Violation) int {
		switch {
		case a.OrderUUID < b.OrderUUID:
			return -1
		case a.OrderUUID > b.OrderUUID:
			return 1
		}
		return 0
	})
	return out
}
