package components

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// recordHeaderSize covers the type tag and the five float32 scalars.
const recordHeaderSize = 4 + 5*4

var (
	ErrShortRecord    = errors.New("rigidbody record too short")
	ErrUnterminatedID = errors.New("rigidbody record collider id not terminated")
	ErrBodyType       = errors.New("unknown body type")
)

// MarshalBinary writes the persisted fields as a little-endian record: uint32 body
// type, float32 mass, friction, restitution, linear and angular damping, then the
// null-terminated collider id.
func (rb *RigidBody) MarshalBinary() ([]byte, error) {
	buf := make([]byte, recordHeaderSize, recordHeaderSize+len(rb.ColliderID)+1)
	binary.LittleEndian.PutUint32(buf[0:], uint32(rb.Type))
	for i, f := range [...]float32{rb.Mass, rb.StaticFriction, rb.Restitution, rb.LinearDamping, rb.AngularDamping} {
		binary.LittleEndian.PutUint32(buf[4+4*i:], math.Float32bits(f))
	}
	buf = append(buf, rb.ColliderID...)
	return append(buf, 0), nil
}

// UnmarshalBinary reads a record written by MarshalBinary. Runtime state is left
// untouched; the shape asset must be resolved again from ColliderID.
func (rb *RigidBody) UnmarshalBinary(data []byte) error {
	if len(data) < recordHeaderSize+1 {
		return fmt.Errorf("decode rigidbody: %w (%d bytes)", ErrShortRecord, len(data))
	}
	typ := BodyType(binary.LittleEndian.Uint32(data[0:]))
	if typ != Dynamic && typ != Static {
		return fmt.Errorf("decode rigidbody: %w %d", ErrBodyType, uint32(typ))
	}
	end := bytes.IndexByte(data[recordHeaderSize:], 0)
	if end < 0 {
		return fmt.Errorf("decode rigidbody: %w", ErrUnterminatedID)
	}

	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	rb.Type = typ
	rb.Mass = f(0)
	rb.StaticFriction = f(1)
	rb.Restitution = f(2)
	rb.LinearDamping = f(3)
	rb.AngularDamping = f(4)
	rb.ColliderID = string(data[recordHeaderSize : recordHeaderSize+end])
	return nil
}

// RecordSize returns the encoded length of the body's record.
func (rb *RigidBody) RecordSize() int {
	return recordHeaderSize + len(rb.ColliderID) + 1
}
