// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides resource kinds and allocators for testing code
// that uses gfx allocators without touching any native resources.
package gfxtest

import (
	"errors"

	"github.com/devblok/respool/src/gfx"
)

// ErrDoubleFree is returned when a Resource is freed twice.
var ErrDoubleFree = errors.New("resource freed twice")

// Resource is a fake physical resource.
type Resource struct {
	ID            int
	Width, Height int

	// Color is the content left by the last Prepare.
	Color    string
	Prepared int
	Freed    bool
}

// Ledger records what happens to resources of every descriptor pointing at
// it. Setting one of the error fields makes the matching operation fail.
type Ledger struct {
	Allocated []*Resource
	Prepared  []*Resource
	Freed     []*Resource

	AllocateErr error
	PrepareErr  error
	FreeErr     error

	// FailFree limits FreeErr to the resources it returns true for.
	FailFree func(*Resource) bool
}

// Live returns the number of allocated resources not yet freed.
func (l *Ledger) Live() int {
	return len(l.Allocated) - len(l.Freed)
}

// Descriptor describes a Resource. It has no aliasing rules
// of its own, so only equal descriptors share resources.
type Descriptor struct {
	Width, Height int
	Color         string
	Ledger        *Ledger
}

// Allocate implements interface
func (d Descriptor) Allocate() (*Resource, error) {
	if d.Ledger.AllocateErr != nil {
		return nil, d.Ledger.AllocateErr
	}
	r := &Resource{
		ID:     len(d.Ledger.Allocated) + 1,
		Width:  d.Width,
		Height: d.Height,
	}
	d.Ledger.Allocated = append(d.Ledger.Allocated, r)
	return r, nil
}

// Prepare implements interface
func (d Descriptor) Prepare(r *Resource) error {
	if d.Ledger.PrepareErr != nil {
		return d.Ledger.PrepareErr
	}
	r.Color = d.Color
	r.Prepared++
	d.Ledger.Prepared = append(d.Ledger.Prepared, r)
	return nil
}

// Free implements interface
func (d Descriptor) Free(r *Resource) error {
	if r.Freed {
		return ErrDoubleFree
	}
	if d.Ledger.FreeErr != nil && (d.Ledger.FailFree == nil || d.Ledger.FailFree(r)) {
		return d.Ledger.FreeErr
	}
	r.Freed = true
	d.Ledger.Freed = append(d.Ledger.Freed, r)
	return nil
}

// ShapeDescriptor is a Descriptor that accepts any
// resource of the same width and height, whatever its color.
type ShapeDescriptor struct {
	Descriptor
}

// CanUsePhysicalResource implements interface
func (d ShapeDescriptor) CanUsePhysicalResource(other gfx.Descriptor[*Resource]) bool {
	var o Descriptor
	switch v := other.(type) {
	case ShapeDescriptor:
		o = v.Descriptor
	case Descriptor:
		o = v
	default:
		return false
	}
	return o.Width == d.Width && o.Height == d.Height
}

// Call is one recorded allocator call.
type Call[T any] struct {
	Op         string
	Descriptor gfx.Descriptor[T]
	Resource   T
	Err        error
}

// Recorder wraps an Allocator and records every call made through it.
// With a nil Allocator it forwards to gfx.Unpooled.
type Recorder[T any] struct {
	Allocator gfx.Allocator[T]
	Calls     []Call[T]
}

func (r *Recorder[T]) next() gfx.Allocator[T] {
	if r.Allocator == nil {
		return gfx.Unpooled[T]{}
	}
	return r.Allocator
}

// Acquire implements interface
func (r *Recorder[T]) Acquire(d gfx.Descriptor[T]) (T, error) {
	res, err := r.next().Acquire(d)
	r.Calls = append(r.Calls, Call[T]{Op: "acquire", Descriptor: d, Resource: res, Err: err})
	return res, err
}

// Release implements interface
func (r *Recorder[T]) Release(d gfx.Descriptor[T], res T) error {
	err := r.next().Release(d, res)
	r.Calls = append(r.Calls, Call[T]{Op: "release", Descriptor: d, Resource: res, Err: err})
	return err
}

// Outstanding returns the number of acquired resources not yet released.
func (r *Recorder[T]) Outstanding() int {
	n := 0
	for _, c := range r.Calls {
		if c.Err != nil {
			continue
		}
		switch c.Op {
		case "acquire":
			n++
		case "release":
			n--
		}
	}
	return n
}
