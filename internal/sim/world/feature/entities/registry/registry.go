// Package registry tracks the world's resource entities: harvestable fields,
// storage camps, ground drops, construction sites and finished buildings.
//
// Records live in arenas and are addressed by generation-checked handles, so a
// handle held across a suspension point simply stops resolving once its record
// is removed. Each kind keeps an orb quadtree for proximity queries.
package registry

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"villagecraft.ai/internal/sim/world/kernel/arena"
	modelpkg "villagecraft.ai/internal/sim/world/kernel/model"
)

var ErrOutOfBounds = errors.New("position outside world bounds")

type EntityKind string

const (
	EntityField    EntityKind = "FIELD"
	EntityCamp     EntityKind = "CAMP"
	EntityDrop     EntityKind = "DROP"
	EntitySite     EntityKind = "SITE"
	EntityBuilding EntityKind = "BUILDING"
)

// Ref names one registry record.
type Ref struct {
	Kind   EntityKind
	Handle arena.Handle
}

// pointer is the quadtree payload. Key is the raw kind for fields and drops
// and the accepted storage type for camps.
type pointer struct {
	h   arena.Handle
	p   orb.Point
	key string
}

func (p *pointer) Point() orb.Point { return p.p }

type index struct {
	qt   *quadtree.Quadtree
	byID map[arena.Handle]*pointer
}

func newIndex(bound orb.Bound) *index {
	return &index{qt: quadtree.New(bound), byID: map[arena.Handle]*pointer{}}
}

func (ix *index) add(h arena.Handle, p orb.Point, key string) error {
	ptr := &pointer{h: h, p: p, key: key}
	if err := ix.qt.Add(ptr); err != nil {
		return ErrOutOfBounds
	}
	ix.byID[h] = ptr
	return nil
}

func (ix *index) remove(h arena.Handle) {
	ptr := ix.byID[h]
	if ptr == nil {
		return
	}
	ix.qt.Remove(ptr, func(p orb.Pointer) bool {
		q, ok := p.(*pointer)
		return ok && q.h == h
	})
	delete(ix.byID, h)
}

func (ix *index) rekey(h arena.Handle, key string) {
	if ptr := ix.byID[h]; ptr != nil {
		ptr.key = key
	}
}

func (ix *index) nearest(from orb.Point, match func(*pointer) bool) (*pointer, bool) {
	got := ix.qt.Matching(from, func(p orb.Pointer) bool {
		q, ok := p.(*pointer)
		return ok && (match == nil || match(q))
	})
	if got == nil {
		return nil, false
	}
	return got.(*pointer), true
}

func (ix *index) within(from orb.Point, radius float64, match func(*pointer) bool) (*pointer, bool) {
	buf := ix.qt.KNearestMatching(nil, from, 1, func(p orb.Pointer) bool {
		q, ok := p.(*pointer)
		return ok && (match == nil || match(q))
	}, radius)
	if len(buf) == 0 {
		return nil, false
	}
	q := buf[0].(*pointer)
	// KNearest bounds by the search box; confirm the true distance.
	if modelpkg.Dist(from, q.p) > radius {
		return nil, false
	}
	return q, true
}

type Registry struct {
	bound orb.Bound

	fields    *arena.Arena[modelpkg.Field]
	camps     *arena.Arena[modelpkg.Camp]
	drops     *arena.Arena[modelpkg.Drop]
	sites     *arena.Arena[modelpkg.Site]
	buildings *arena.Arena[modelpkg.Building]

	fieldIdx *index
	campIdx  *index
	dropIdx  *index
	siteIdx  *index
}

func New(bound orb.Bound) *Registry {
	return &Registry{
		bound:     bound,
		fields:    arena.New[modelpkg.Field](),
		camps:     arena.New[modelpkg.Camp](),
		drops:     arena.New[modelpkg.Drop](),
		sites:     arena.New[modelpkg.Site](),
		buildings: arena.New[modelpkg.Building](),
		fieldIdx:  newIndex(bound),
		campIdx:   newIndex(bound),
		dropIdx:   newIndex(bound),
		siteIdx:   newIndex(bound),
	}
}

func (r *Registry) Bound() orb.Bound { return r.bound }

// ---- Fields ----

func (r *Registry) AddField(f modelpkg.Field) (arena.Handle, error) {
	if f.Remaining <= 0 {
		return arena.Handle{}, fmt.Errorf("field %s: remaining must be positive", f.Kind)
	}
	if !r.bound.Contains(f.Pos) {
		return arena.Handle{}, ErrOutOfBounds
	}
	h := r.fields.Insert(f)
	if err := r.fieldIdx.add(h, f.Pos, string(f.Kind)); err != nil {
		_ = r.fields.Remove(h)
		return arena.Handle{}, err
	}
	return h, nil
}

func (r *Registry) Field(h arena.Handle) (*modelpkg.Field, bool) { return r.fields.Get(h) }

func (r *Registry) RemoveField(h arena.Handle) bool {
	if err := r.fields.Remove(h); err != nil {
		return false
	}
	r.fieldIdx.remove(h)
	return true
}

// HarvestField draws up to max units from the field and removes it once it
// reaches zero. ok is false when the handle no longer resolves.
func (r *Registry) HarvestField(h arena.Handle, max int) (taken int, depleted bool, ok bool) {
	f, ok := r.fields.Get(h)
	if !ok {
		return 0, true, false
	}
	if max <= 0 {
		return 0, false, true
	}
	taken = max
	if taken > f.Remaining {
		taken = f.Remaining
	}
	f.Remaining -= taken
	if f.Remaining <= 0 {
		r.RemoveField(h)
		return taken, true, true
	}
	return taken, false, true
}

// NearestField returns the closest field of the given raw kind.
func (r *Registry) NearestField(kind modelpkg.ResourceKind, from orb.Point) (arena.Handle, bool) {
	p, ok := r.fieldIdx.nearest(from, func(q *pointer) bool { return q.key == string(kind) })
	if !ok {
		return arena.Handle{}, false
	}
	return p.h, true
}

// NearestFieldWithin is NearestField bounded by a search radius around from.
func (r *Registry) NearestFieldWithin(kind modelpkg.ResourceKind, from orb.Point, radius float64) (arena.Handle, bool) {
	if radius < 0 {
		return arena.Handle{}, false
	}
	p, ok := r.fieldIdx.within(from, radius, func(q *pointer) bool { return q.key == string(kind) })
	if !ok {
		return arena.Handle{}, false
	}
	return p.h, true
}

func (r *Registry) EachField(fn func(arena.Handle, *modelpkg.Field) bool) { r.fields.Each(fn) }

// ---- Camps ----

func (r *Registry) AddCamp(c modelpkg.Camp) (arena.Handle, error) {
	if c.Accepts == "" {
		c.Accepts = modelpkg.StorageAny
	}
	if !r.bound.Contains(c.Pos) {
		return arena.Handle{}, ErrOutOfBounds
	}
	if c.AccessPoint == (orb.Point{}) {
		c.AccessPoint = c.Pos
	}
	h := r.camps.Insert(c)
	if err := r.campIdx.add(h, c.Pos, string(c.Accepts)); err != nil {
		_ = r.camps.Remove(h)
		return arena.Handle{}, err
	}
	return h, nil
}

func (r *Registry) Camp(h arena.Handle) (*modelpkg.Camp, bool) { return r.camps.Get(h) }

func (r *Registry) RemoveCamp(h arena.Handle) bool {
	if err := r.camps.Remove(h); err != nil {
		return false
	}
	r.campIdx.remove(h)
	return true
}

// SetCampType changes what a camp accepts.
func (r *Registry) SetCampType(h arena.Handle, t modelpkg.StorageType) bool {
	c, ok := r.camps.Get(h)
	if !ok {
		return false
	}
	c.Accepts = t
	r.campIdx.rekey(h, string(t))
	return true
}

// NearestCamp returns the closest camp (by camp position) accepting t.
func (r *Registry) NearestCamp(t modelpkg.StorageType, from orb.Point) (arena.Handle, bool) {
	p, ok := r.campIdx.nearest(from, func(q *pointer) bool {
		return modelpkg.StorageType(q.key).Accepts(t)
	})
	if !ok {
		return arena.Handle{}, false
	}
	return p.h, true
}

func (r *Registry) EachCamp(fn func(arena.Handle, *modelpkg.Camp) bool) { r.camps.Each(fn) }

// ---- Drops ----

func (r *Registry) AddDrop(d modelpkg.Drop) (arena.Handle, error) {
	if d.Amount <= 0 {
		return arena.Handle{}, fmt.Errorf("drop %s: amount must be positive", d.Kind)
	}
	if !r.bound.Contains(d.Pos) {
		return arena.Handle{}, ErrOutOfBounds
	}
	h := r.drops.Insert(d)
	if err := r.dropIdx.add(h, d.Pos, string(d.Kind)); err != nil {
		_ = r.drops.Remove(h)
		return arena.Handle{}, err
	}
	return h, nil
}

func (r *Registry) Drop(h arena.Handle) (*modelpkg.Drop, bool) { return r.drops.Get(h) }

func (r *Registry) RemoveDrop(h arena.Handle) bool {
	if err := r.drops.Remove(h); err != nil {
		return false
	}
	r.dropIdx.remove(h)
	return true
}

// TakeFromDrop removes up to max from the pile, destroying it when emptied.
func (r *Registry) TakeFromDrop(h arena.Handle, max int) (taken int, ok bool) {
	d, ok := r.drops.Get(h)
	if !ok {
		return 0, false
	}
	if max <= 0 {
		return 0, true
	}
	taken = max
	if taken > d.Amount {
		taken = d.Amount
	}
	d.Amount -= taken
	if d.Amount <= 0 {
		r.RemoveDrop(h)
	}
	return taken, true
}

func (r *Registry) NearestDrop(kind modelpkg.ResourceKind, from orb.Point) (arena.Handle, bool) {
	p, ok := r.dropIdx.nearest(from, func(q *pointer) bool { return kind == modelpkg.KindNone || q.key == string(kind) })
	if !ok {
		return arena.Handle{}, false
	}
	return p.h, true
}

func (r *Registry) EachDrop(fn func(arena.Handle, *modelpkg.Drop) bool) { r.drops.Each(fn) }

// ---- Sites and buildings ----

func (r *Registry) AddSite(s modelpkg.Site) (arena.Handle, error) {
	if s.ConstructionTime <= 0 {
		return arena.Handle{}, fmt.Errorf("site %s: construction time must be positive", s.BuildingType)
	}
	if !r.bound.Contains(s.Pos) {
		return arena.Handle{}, ErrOutOfBounds
	}
	h := r.sites.Insert(s)
	if err := r.siteIdx.add(h, s.Pos, s.BuildingType); err != nil {
		_ = r.sites.Remove(h)
		return arena.Handle{}, err
	}
	return h, nil
}

func (r *Registry) Site(h arena.Handle) (*modelpkg.Site, bool) { return r.sites.Get(h) }

func (r *Registry) RemoveSite(h arena.Handle) bool {
	if err := r.sites.Remove(h); err != nil {
		return false
	}
	r.siteIdx.remove(h)
	return true
}

func (r *Registry) EachSite(fn func(arena.Handle, *modelpkg.Site) bool) { r.sites.Each(fn) }

// CompleteSite replaces a site with a finished building. When camp is
// non-nil the building also registers as a resource camp at the site.
func (r *Registry) CompleteSite(h arena.Handle, camp *modelpkg.Camp) (arena.Handle, error) {
	s, ok := r.sites.Get(h)
	if !ok {
		return arena.Handle{}, arena.ErrStale
	}
	b := modelpkg.Building{
		BuildingType: s.BuildingType,
		Pos:          s.Pos,
		HitPoints:    s.HitPoints,
		MaxHitPoints: s.MaxHitPoints,
	}
	r.RemoveSite(h)
	if camp != nil {
		c := *camp
		c.Pos = b.Pos
		ch, err := r.AddCamp(c)
		if err != nil {
			return arena.Handle{}, fmt.Errorf("register camp for %s: %w", b.BuildingType, err)
		}
		b.Camp = ch
	}
	return r.buildings.Insert(b), nil
}

func (r *Registry) Building(h arena.Handle) (*modelpkg.Building, bool) { return r.buildings.Get(h) }

func (r *Registry) EachBuilding(fn func(arena.Handle, *modelpkg.Building) bool) {
	r.buildings.Each(fn)
}

// EntityAt reports a registry record located exactly at p. Camps match on
// their access point.
func (r *Registry) EntityAt(p orb.Point) (Ref, bool) {
	var out Ref
	found := false
	r.camps.Each(func(h arena.Handle, c *modelpkg.Camp) bool {
		if modelpkg.SamePoint(c.AccessPoint, p) {
			out, found = Ref{Kind: EntityCamp, Handle: h}, true
			return false
		}
		return true
	})
	if found {
		return out, true
	}
	r.buildings.Each(func(h arena.Handle, b *modelpkg.Building) bool {
		if b.Camp.IsZero() && modelpkg.SamePoint(b.Pos, p) {
			out, found = Ref{Kind: EntityBuilding, Handle: h}, true
			return false
		}
		return true
	})
	if found {
		return out, true
	}
	for _, ix := range []struct {
		kind EntityKind
		idx  *index
	}{{EntitySite, r.siteIdx}, {EntityField, r.fieldIdx}, {EntityDrop, r.dropIdx}} {
		if q, ok := ix.idx.nearest(p, nil); ok && modelpkg.SamePoint(q.p, p) {
			return Ref{Kind: ix.kind, Handle: q.h}, true
		}
	}
	return Ref{}, false
}

type Counts struct {
	Fields, Camps, Drops, Sites, Buildings int
}

func (r *Registry) Counts() Counts {
	return Counts{
		Fields:    r.fields.Len(),
		Camps:     r.camps.Len(),
		Drops:     r.drops.Len(),
		Sites:     r.sites.Len(),
		Buildings: r.buildings.Len(),
	}
}
