package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/paulmach/orb"

	"villagecraft.ai/internal/sim/world/feature/entities/registry"
	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

type StateInput struct {
	NowTick uint64

	Agents   map[string]*modelpkg.Agent
	Registry *registry.Registry
}

// StateDigest hashes everything a replay has to reproduce. Registry records
// are visited in arena order, agents in id order.
func StateDigest(in StateInput) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, in.NowTick)
	if in.Registry != nil {
		digestFields(h, &tmp, in.Registry)
		digestCamps(h, &tmp, in.Registry)
		digestDrops(h, &tmp, in.Registry)
		digestSites(h, &tmp, in.Registry)
		digestBuildings(h, &tmp, in.Registry)
	}
	digestAgents(h, &tmp, in.Agents)

	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestPoint(h hashWriter, tmp *[8]byte, p orb.Point) {
	WriteFloat(h, tmp, p.X())
	WriteFloat(h, tmp, p.Y())
}

func digestHandle(h hashWriter, tmp *[8]byte, hd arena.Handle) {
	digestWriteU64(h, tmp, uint64(hd.Index))
	digestWriteU64(h, tmp, uint64(hd.Gen))
}

func digestFields(h hashWriter, tmp *[8]byte, r *registry.Registry) {
	h.Write([]byte("fields"))
	r.EachField(func(hd arena.Handle, f *modelpkg.Field) bool {
		digestHandle(h, tmp, hd)
		h.Write([]byte(f.Kind))
		digestPoint(h, tmp, f.Pos)
		digestWriteI64(h, tmp, int64(f.Remaining))
		return true
	})
}

func digestCamps(h hashWriter, tmp *[8]byte, r *registry.Registry) {
	h.Write([]byte("camps"))
	r.EachCamp(func(hd arena.Handle, c *modelpkg.Camp) bool {
		digestHandle(h, tmp, hd)
		h.Write([]byte(c.Accepts))
		digestPoint(h, tmp, c.AccessPoint)
		stored := make(map[string]int, len(c.Stored))
		for t, n := range c.Stored {
			stored[string(t)] = n
		}
		WriteSortedNonZeroIntMap(h, tmp, stored)
		return true
	})
}

func digestDrops(h hashWriter, tmp *[8]byte, r *registry.Registry) {
	h.Write([]byte("drops"))
	r.EachDrop(func(hd arena.Handle, d *modelpkg.Drop) bool {
		digestHandle(h, tmp, hd)
		h.Write([]byte(d.Kind))
		digestPoint(h, tmp, d.Pos)
		digestWriteI64(h, tmp, int64(d.Amount))
		return true
	})
}

func digestSites(h hashWriter, tmp *[8]byte, r *registry.Registry) {
	h.Write([]byte("sites"))
	r.EachSite(func(hd arena.Handle, s *modelpkg.Site) bool {
		digestHandle(h, tmp, hd)
		h.Write([]byte(s.BuildingType))
		digestPoint(h, tmp, s.Pos)
		WriteFloat(h, tmp, s.Built)
		WriteFloat(h, tmp, s.HitPoints)
		return true
	})
}

func digestBuildings(h hashWriter, tmp *[8]byte, r *registry.Registry) {
	h.Write([]byte("buildings"))
	r.EachBuilding(func(hd arena.Handle, b *modelpkg.Building) bool {
		digestHandle(h, tmp, hd)
		h.Write([]byte(b.BuildingType))
		digestPoint(h, tmp, b.Pos)
		WriteFloat(h, tmp, b.HitPoints)
		digestHandle(h, tmp, b.Camp)
		return true
	})
}

func digestAgents(h hashWriter, tmp *[8]byte, agents map[string]*modelpkg.Agent) {
	agentIDs := make([]string, 0, len(agents))
	for id := range agents {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)
	for _, id := range agentIDs {
		a := agents[id]
		if a == nil {
			continue
		}
		h.Write([]byte(a.ID))
		h.Write([]byte(a.UnitType))
		digestPoint(h, tmp, a.Pos)
		h.Write([]byte(a.Mode))
		h.Write([]byte(a.Speed))
		h.Write([]byte{BoolByte(a.Target.Set), BoolByte(a.Immobile)})
		digestPoint(h, tmp, a.Target.Pos)
		WriteFloat(h, tmp, a.HP)
		c := a.Carrying()
		h.Write([]byte(c.Kind))
		digestWriteI64(h, tmp, int64(c.Amount))
		if a.Worker != nil {
			h.Write([]byte{BoolByte(a.Worker.OnWayToTask)})
		}
		if a.Fighter != nil {
			h.Write([]byte(a.Fighter.AttackTarget))
			h.Write([]byte{BoolByte(a.Fighter.AttackMove)})
		}
		digestWriteU64(h, tmp, a.EventCursor)
	}
}
