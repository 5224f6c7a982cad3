package tasks

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindMoveTo     Kind = "MOVE_TO"
	KindAttackMove Kind = "ATTACK_MOVE"
	KindHarvest    Kind = "HARVEST"
	KindConstruct  Kind = "CONSTRUCT"
	KindStore      Kind = "STORE"
	KindPickup     Kind = "PICKUP"
	KindDrop       Kind = "DROP"
	KindStop       Kind = "STOP"
)

var allKinds = []Kind{KindMoveTo, KindAttackMove, KindHarvest, KindConstruct, KindStore, KindPickup, KindDrop, KindStop}

// ParseKind accepts the wire spelling of an order kind (case-insensitive).
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range allKinds {
		if v == k {
			return k, true
		}
	}
	return "", false
}

// NeedsPoint reports whether the order carries a ground point.
func (k Kind) NeedsPoint() bool {
	switch k {
	case KindDrop, KindStop:
		return false
	}
	return true
}

// Order is one player or script command addressed to an agent. Target is a
// ground point (X, Z); entity orders resolve it against the registry when
// applied.
type Order struct {
	OrderID string
	AgentID string
	Kind    Kind
	Target  [2]float64
	// BackToResource applies to STORE: return to the nearest field of the
	// carried kind afterwards.
	BackToResource bool

	SubmittedTick uint64
}

func (o Order) String() string {
	if !o.Kind.NeedsPoint() {
		return fmt.Sprintf("%s %s", o.AgentID, o.Kind)
	}
	return fmt.Sprintf("%s %s (%.2f,%.2f)", o.AgentID, o.Kind, o.Target[0], o.Target[1])
}

// Validate checks the fields that do not depend on world state.
func (o Order) Validate() error {
	if o.AgentID == "" {
		return fmt.Errorf("order: missing agent_id")
	}
	if _, ok := ParseKind(string(o.Kind)); !ok {
		return fmt.Errorf("order: unknown kind %q", o.Kind)
	}
	return nil
}
