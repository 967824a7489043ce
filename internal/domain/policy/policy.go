package policy

import "context"

// Policy carries the two inventory switches read at decision time. The core
// never mutates it; values come from the external settings store.
type Policy struct {
	RequireInspectedToSell bool `json:"require_inspected_to_sell"`
	EventClosesInventory   bool `json:"event_closes_inventory"`
}

type Loader interface {
	Load(ctx context.Context) (Policy, error)
}

type Store interface {
	Loader
	Save(ctx context.Context, p Policy) error
}

// Static is a fixed-policy loader for tests and single-process setups.
type Static Policy

func (s Static) Load(context.Context) (Policy, error) {
	return Policy(s), nil
}
