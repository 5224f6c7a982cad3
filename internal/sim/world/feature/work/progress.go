package work

// TimedProgress is elapsed/total clamped to [0,1].
func TimedProgress(elapsed float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return clamp01(elapsed / total)
}

// ConstructionStep converts dt seconds of work on a building into the build
// percentage gained and the hit points repaired. Both views come from the
// same clock: repair = pct * maxHP / 100.
func ConstructionStep(dt, constructionTime, maxHP float64) (pct float64, repair float64) {
	if dt <= 0 || constructionTime <= 0 {
		return 0, 0
	}
	pct = dt * 100 / constructionTime
	repair = pct * maxHP / 100
	return pct, repair
}

// HarvestInterval is the time needed per harvested unit.
func HarvestInterval(timePerUnit, speedMultiplier float64) float64 {
	if speedMultiplier <= 0 {
		speedMultiplier = 1
	}
	if timePerUnit <= 0 {
		return 0
	}
	return timePerUnit / speedMultiplier
}

// CapDraw is how much one harvest unit may add to a carried amount without
// exceeding capacity.
func CapDraw(yield, carried, capacity int) int {
	room := capacity - carried
	if room <= 0 || yield <= 0 {
		return 0
	}
	if yield < room {
		return yield
	}
	return room
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
