// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "errors"

// Allocator hands out physical resources for descriptors and takes them
// back when the caller is done with them for the frame.
type Allocator[T any] interface {

	// Acquire returns a prepared resource satisfying d.
	// The caller owns it until it is given back with Release.
	Acquire(d Descriptor[T]) (T, error)

	// Release gives r back. The caller must not use r afterwards,
	// and d must correctly describe r.
	Release(d Descriptor[T], r T) error
}

// Unpooled is an Allocator without any caching: every Acquire allocates
// and every Release frees. The zero value is ready to use.
type Unpooled[T any] struct{}

// Acquire implements interface
func (Unpooled[T]) Acquire(d Descriptor[T]) (T, error) {
	var zero T
	if d == nil {
		return zero, ErrNilDescriptor
	}
	r, err := d.Allocate()
	if err != nil {
		return zero, err
	}
	if err := Prepare(d, r); err != nil {
		return zero, Discard(err, d, r)
	}
	return r, nil
}

// Release implements interface
func (Unpooled[T]) Release(d Descriptor[T], r T) error {
	if d == nil {
		return ErrNilDescriptor
	}
	return d.Free(r)
}

// Discard frees r, which failed with cause, and returns cause
// joined with any error from freeing it.
func Discard[T any](cause error, d Descriptor[T], r T) error {
	if err := d.Free(r); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
