package world

import digestfeaturepkg "villagecraft.ai/internal/sim/world/feature/persistence/digest"

func (w *World) stateDigest(nowTick uint64) string {
	return digestfeaturepkg.StateDigest(digestfeaturepkg.StateInput{
		NowTick:  nowTick,
		Agents:   w.agents,
		Registry: w.reg,
	})
}

// StateDigest hashes the current world state. World goroutine only.
func (w *World) StateDigest() string { return w.stateDigest(w.tick.Load()) }
