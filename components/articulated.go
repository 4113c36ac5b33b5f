package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
)

// Bone marks a body as one link of a skeleton.
type Bone struct {
	Skeleton ecs.Entity
	Name     string
}

// Skeleton lists its bones in creation order.
type Skeleton struct {
	Bones []ecs.Entity
}

// Fragment marks a body as a piece of a fractured cluster. While Attached it
// is carried rigidly by Parent at Offset and is not integrated.
type Fragment struct {
	Cluster  ecs.Entity
	Parent   ecs.Entity
	Attached bool
	Offset   mgl64.Vec3 // in the parent's body space
}

// Cluster lists its particles and the ether drag they use when dry.
type Cluster struct {
	Particles      []ecs.Entity
	LinearDamping  float64
	AngularDamping float64
}
