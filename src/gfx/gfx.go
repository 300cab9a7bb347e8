// Package gfx defines rendering related features that renderers must implement.
//
// Physical resources (buffers, images, render targets) are described by a
// Descriptor and handed out by an Allocator. Code that uses resources talks
// only to an Allocator, so it may be backed by a pool or by direct
// allocation without changes at the call site.
package gfx

import (
	"errors"
	"reflect"
)

// package errors
var (
	ErrNilDescriptor = errors.New("resource descriptor is nil")
	ErrInvalidHandle = errors.New("invalid resource handle")
	ErrNotReady      = errors.New("resource is not ready")
)

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Extent2D is the size of a two dimensional resource.
type Extent2D struct {
	Width, Height uint
}

// Empty reports whether the extent has no area.
func (e Extent2D) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Extent3D is the size of a three dimensional resource.
type Extent3D struct {
	Width, Height, Depth uint
}

// Descriptor describes what a physical resource of kind T should be,
// and knows how to create and destroy one. Descriptors are values: two
// equal descriptors describe interchangeable resources.
type Descriptor[T any] interface {

	// Allocate creates a new physical resource.
	Allocate() (T, error)

	// Free releases the native handles of a resource
	// created from this or a compatible descriptor.
	Free(T) error
}

// Preparer is implemented by descriptors whose resources must be
// initialised before every use, for example cleared.
// Descriptors that don't implement it need no preparation.
type Preparer[T any] interface {

	// Prepare (re)initialises the contents of a freshly
	// allocated or reused resource.
	Prepare(T) error
}

// Aliaser is implemented by descriptors that accept physical resources
// created from other descriptors. A descriptor must only accept others
// whose resources have the same native layout and usage, since a reused
// resource is prepared but never reallocated.
type Aliaser[T any] interface {

	// CanUsePhysicalResource reports whether a resource allocated
	// by other may satisfy a request for this descriptor.
	CanUsePhysicalResource(other Descriptor[T]) bool
}

// Prepare runs d's preparation on r, if d has any.
func Prepare[T any](d Descriptor[T], r T) error {
	if p, ok := d.(Preparer[T]); ok {
		return p.Prepare(r)
	}
	return nil
}

// CanUsePhysicalResource reports whether a resource allocated by have may
// be handed out for a request described by want. Unless want implements
// Aliaser, only equal descriptors are compatible.
func CanUsePhysicalResource[T any](want, have Descriptor[T]) bool {
	if want == nil || have == nil {
		return false
	}
	if a, ok := want.(Aliaser[T]); ok {
		return a.CanUsePhysicalResource(have)
	}
	return Equal(want, have)
}

// Equal reports whether two descriptors are the same value, compared
// deeply. Descriptors of different types are never equal.
func Equal[T any](a, b Descriptor[T]) bool {
	return reflect.DeepEqual(a, b)
}
