package spatial

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// LayerMask selects which collider layers a query sees.
type LayerMask uint32

// AllLayers matches every layer.
const AllLayers LayerMask = ^LayerMask(0)

// Layer returns the mask for a single layer index in [0, 31].
func Layer(i int) LayerMask {
	if i < 0 || i > 31 {
		return 0
	}
	return 1 << uint(i)
}

const defaultCellSize = 0.25

type entry[T any] struct {
	seq    uint64
	value  T
	node   *scene.Node
	radius float64
	layers LayerMask

	// snapshot taken by Insert / Rebuild
	position physics.Vec3
	cell     uint64
}

// Grid is a hashed uniform grid of sphere colliders. Each collider follows a
// scene node; positions are snapshotted on Insert and Rebuild, so hosts call
// Rebuild once per step after moving things. Queries return values in
// registration order.
//
// Grid is not safe for concurrent use.
type Grid[T any] struct {
	cellSize  float64
	cells     map[uint64][]*entry[T]
	byNode    map[uuid.UUID]*entry[T]
	nextSeq   uint64
	maxRadius float64
}

// NewGrid creates a grid; cellSize <= 0 selects a hand-sized default.
func NewGrid[T any](cellSize float64) *Grid[T] {
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	return &Grid[T]{
		cellSize: cellSize,
		cells:    make(map[uint64][]*entry[T]),
		byNode:   make(map[uuid.UUID]*entry[T]),
	}
}

// Insert registers value as a sphere collider following node. Inserting the
// same node again replaces its previous registration.
func (g *Grid[T]) Insert(value T, node *scene.Node, radius float64, layers LayerMask) {
	if !node.Valid() {
		return
	}
	g.Remove(node)
	g.nextSeq++
	e := &entry[T]{
		seq:    g.nextSeq,
		value:  value,
		node:   node,
		radius: math.Max(radius, 0),
		layers: layers,
	}
	g.byNode[node.ID()] = e
	g.place(e)
	g.maxRadius = math.Max(g.maxRadius, e.radius)
}

// Remove drops the collider following node, if any.
func (g *Grid[T]) Remove(node *scene.Node) {
	if node == nil {
		return
	}
	e, ok := g.byNode[node.ID()]
	if !ok {
		return
	}
	delete(g.byNode, node.ID())
	g.unplace(e)
}

// Len is the number of registered colliders.
func (g *Grid[T]) Len() int { return len(g.byNode) }

// Rebuild re-snapshots every collider position and drops colliders whose
// node has been destroyed.
func (g *Grid[T]) Rebuild() {
	clear(g.cells)
	g.maxRadius = 0
	for id, e := range g.byNode {
		if !e.node.Valid() {
			delete(g.byNode, id)
			continue
		}
		g.place(e)
		g.maxRadius = math.Max(g.maxRadius, e.radius)
	}
}

// OverlapSphere returns every collider on a layer in mask whose sphere
// touches the query sphere. Inactive nodes are skipped.
func (g *Grid[T]) OverlapSphere(center physics.Vec3, radius float64, mask LayerMask) []T {
	reach := radius + g.maxRadius
	min := g.coords(center.Sub(physics.Vec3{reach, reach, reach}))
	max := g.coords(center.Add(physics.Vec3{reach, reach, reach}))

	var candidates []*entry[T]
	span := (max[0] - min[0] + 1) * (max[1] - min[1] + 1) * (max[2] - min[2] + 1)
	if span <= 0 || span > int64(len(g.byNode)) {
		candidates = make([]*entry[T], 0, len(g.byNode))
		for _, e := range g.byNode {
			candidates = append(candidates, e)
		}
	} else {
		seen := make(map[*entry[T]]struct{})
		for x := min[0]; x <= max[0]; x++ {
			for y := min[1]; y <= max[1]; y++ {
				for z := min[2]; z <= max[2]; z++ {
					for _, e := range g.cells[cellKey(x, y, z)] {
						if _, dup := seen[e]; dup {
							continue
						}
						seen[e] = struct{}{}
						candidates = append(candidates, e)
					}
				}
			}
		}
	}

	hits := candidates[:0]
	for _, e := range candidates {
		if e.layers&mask == 0 || !e.node.ActiveInHierarchy() {
			continue
		}
		if physics.Distance(center, e.position) > radius+e.radius {
			continue
		}
		hits = append(hits, e)
	}
	slices.SortFunc(hits, func(a, b *entry[T]) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})

	out := make([]T, len(hits))
	for i, e := range hits {
		out[i] = e.value
	}
	return out
}

// RaycastMask finds the nearest collider on mask hit by ray within maxDistance.
func (g *Grid[T]) RaycastMask(ray physics.Ray, maxDistance float64, mask LayerMask) (physics.Hit, T, bool) {
	var (
		best    physics.Hit
		bestVal T
		bestSeq uint64
		found   bool
	)
	dir := ray.Direction.Normalize()
	for _, e := range g.byNode {
		if e.layers&mask == 0 || !e.node.ActiveInHierarchy() {
			continue
		}
		d, ok := intersectSphere(ray.Origin, dir, e.position, e.radius)
		if !ok || d > maxDistance {
			continue
		}
		if !found || d < best.Distance || (d == best.Distance && e.seq < bestSeq) {
			best = physics.Hit{Point: ray.Origin.Add(dir.Mul(d)), Distance: d}
			bestVal = e.value
			bestSeq = e.seq
			found = true
		}
	}
	return best, bestVal, found
}

// Raycast implements physics.Raycaster across all layers.
func (g *Grid[T]) Raycast(ray physics.Ray, maxDistance float64) (physics.Hit, bool) {
	hit, _, ok := g.RaycastMask(ray, maxDistance, AllLayers)
	return hit, ok
}

func intersectSphere(origin, dir, center physics.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

func (g *Grid[T]) place(e *entry[T]) {
	e.position = e.node.Position()
	c := g.coords(e.position)
	e.cell = cellKey(c[0], c[1], c[2])
	g.cells[e.cell] = append(g.cells[e.cell], e)
}

func (g *Grid[T]) unplace(e *entry[T]) {
	bucket := g.cells[e.cell]
	for i, other := range bucket {
		if other == e {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(g.cells, e.cell)
		return
	}
	g.cells[e.cell] = bucket
}

func (g *Grid[T]) coords(p physics.Vec3) [3]int64 {
	return [3]int64{
		int64(math.Floor(p[0] / g.cellSize)),
		int64(math.Floor(p[1] / g.cellSize)),
		int64(math.Floor(p[2] / g.cellSize)),
	}
}

// cellKey hashes integer cell coordinates. Distinct cells may collide; they
// then share a bucket and the exact distance test sorts them out.
func cellKey(x, y, z int64) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(x))
	binary.LittleEndian.PutUint64(buf[8:], uint64(y))
	binary.LittleEndian.PutUint64(buf[16:], uint64(z))
	return xxhash.Sum64(buf[:])
}
