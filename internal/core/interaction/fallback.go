package interaction

import (
	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

const (
	fallbackRayDistance = 4.0
	// fallbackParking is how far behind the camera the hand is moved while
	// it casts its own ray.
	fallbackParking = 1000.0
)

// Camera turns a screen position into a world ray.
type Camera interface {
	ScreenPointToRay(x, y float64) physics.Ray
	Forward() physics.Vec3
}

type fallback struct {
	camera   Camera
	pointer  *input.Pointer
	world    physics.Raycaster
	distance float64
}

// WithFallback makes this a desktop hand steered by the mouse through camera.
// The left mouse button is the standard interaction button.
func WithFallback(camera Camera, pointer *input.Pointer, world physics.Raycaster) Option {
	return func(h *Hand) {
		if camera == nil || pointer == nil {
			return
		}
		h.fallback = &fallback{camera: camera, pointer: pointer, world: world, distance: -1}
	}
}

// IsFallback reports whether the hand is mouse driven.
func (h *Hand) IsFallback() bool { return h.fallback != nil }

// UpdateFallback moves a fallback hand along the pointer ray. While the
// button is held the hand keeps the distance of the last hit; otherwise it
// follows whatever the ray hits within reach, or stays at the remembered
// distance.
func (h *Hand) UpdateFallback() {
	f := h.fallback
	if f == nil {
		return
	}
	ray := f.camera.ScreenPointToRay(f.pointer.Position())

	if h.StandardButtonHeld() {
		h.node.SetPosition(ray.At(f.distance))
		return
	}

	old := h.node.Position()
	h.node.SetPosition(f.camera.Forward().Mul(-fallbackParking))

	if f.world != nil {
		if hit, ok := f.world.Raycast(ray, fallbackRayDistance); ok {
			h.node.SetPosition(hit.Point)
			f.distance = hit.Distance
			return
		}
	}
	if f.distance > 0 {
		h.node.SetPosition(ray.At(f.distance))
		return
	}
	h.node.SetPosition(old)
}
