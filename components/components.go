// Package components defines ECS components for the rigid-body world.
package components

// Kind is the submersion model a body floats with.
type Kind uint8

const (
	KindRigid    Kind = iota // point-sampled single body
	KindSkeletal             // one point per bone
	KindFragment             // one point per free particle
	KindMesh                 // pressure integrated over a hull
)

// Identity names an entity for telemetry and logs.
type Identity struct {
	ID   uint32
	Name string
	Kind Kind
}
