package model

import "github.com/paulmach/orb"

// ResourceKind is the raw kind found in the world (what a field yields).
type ResourceKind string

const (
	KindNone    ResourceKind = ""
	KindBerries ResourceKind = "BERRIES"
	KindFarm    ResourceKind = "FARM"
	KindWood    ResourceKind = "WOOD"
	KindGold    ResourceKind = "GOLD"
)

// StorageType is what a camp accepts. StorageAny accepts every type.
type StorageType string

const (
	StorageAny  StorageType = "ANY"
	StorageFood StorageType = "FOOD"
	StorageWood StorageType = "WOOD"
	StorageGold StorageType = "GOLD"
)

func (s StorageType) Accepts(t StorageType) bool {
	return s == StorageAny || s == t
}

type CarriedResource struct {
	Kind   ResourceKind
	Amount int
}

func (c CarriedResource) Empty() bool { return c.Amount <= 0 }

type Field struct {
	Kind          ResourceKind
	Pos           orb.Point
	Remaining     int
	CollectRadius float64
}

type Camp struct {
	Accepts      StorageType
	Pos          orb.Point
	AccessPoint  orb.Point
	AccessRadius float64
	// Stored is a running total per storage type. Camps are unbounded sinks.
	Stored map[StorageType]int
}

func (c *Camp) Deposit(t StorageType, amount int) {
	if amount <= 0 {
		return
	}
	if c.Stored == nil {
		c.Stored = map[StorageType]int{}
	}
	c.Stored[t] += amount
}

type Drop struct {
	Kind         ResourceKind
	Pos          orb.Point
	Amount       int
	PickupRadius float64
}
