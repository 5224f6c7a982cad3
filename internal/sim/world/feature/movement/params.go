package movement

import modelpkg "villagecraft.ai/internal/sim/world/kernel/model"

// SpeedMultipliers scale a unit's base move speed per speed class.
type SpeedMultipliers struct {
	Walk       float64 `json:"walk" yaml:"walk"`
	Sprint     float64 `json:"sprint" yaml:"sprint"`
	CarryLight float64 `json:"carry_light" yaml:"carry_light"`
	CarryHeavy float64 `json:"carry_heavy" yaml:"carry_heavy"`
}

func SpeedFor(base float64, class modelpkg.SpeedClass, m SpeedMultipliers) float64 {
	mult := 1.0
	switch class {
	case modelpkg.SpeedWalk:
		mult = m.Walk
	case modelpkg.SpeedSprint:
		mult = m.Sprint
	case modelpkg.SpeedCarryLight:
		mult = m.CarryLight
	case modelpkg.SpeedCarryHeavy:
		mult = m.CarryHeavy
	}
	if mult <= 0 {
		mult = 1
	}
	return base * mult
}

func ClampStoppingDistance(d float64) float64 {
	if d < 0 {
		return 0
	}
	if d > 8 {
		return 8
	}
	return d
}
