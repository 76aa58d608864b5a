package physics

// PoseSource is anything that can report its current world pose. Scene nodes
// implement it; the motion estimator samples one.
type PoseSource interface {
	Pose() Pose
}

// Positioner reports a world position only.
type Positioner interface {
	Position() Vec3
}

// Raycaster answers "what does this ray hit first" queries.
type Raycaster interface {
	Raycast(ray Ray, maxDistance float64) (Hit, bool)
}

// Hit is the result of a successful raycast.
type Hit struct {
	Point    Vec3
	Distance float64
}
