package model

import (
	"github.com/paulmach/orb"

	"villagecraft.ai/internal/sim/world/kernel/arena"
)

// Site is a placed, pre-paid construction site.
type Site struct {
	BuildingType string
	Pos          orb.Point
	// ApproachRadius is the distance at which a worker counts as having
	// reached the site.
	ApproachRadius float64

	ConstructionTime float64
	MaxHitPoints     float64
	Built            float64 // seconds of construction applied
	HitPoints        float64
}

func (s *Site) BuiltPercentage() float64 {
	if s.ConstructionTime <= 0 {
		return 100
	}
	p := s.Built * 100 / s.ConstructionTime
	if p > 100 {
		return 100
	}
	return p
}

func (s *Site) Construct(dt float64) {
	if dt <= 0 {
		return
	}
	s.Built += dt
	if s.Built > s.ConstructionTime {
		s.Built = s.ConstructionTime
	}
}

func (s *Site) Repair(hp float64) {
	if hp <= 0 {
		return
	}
	s.HitPoints += hp
	if s.HitPoints > s.MaxHitPoints {
		s.HitPoints = s.MaxHitPoints
	}
}

// Building is a completed structure.
type Building struct {
	BuildingType string
	Pos          orb.Point
	HitPoints    float64
	MaxHitPoints float64
	// Camp is the registered camp when the building stores resources; the
	// zero handle otherwise.
	Camp arena.Handle
}
