// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"reflect"
	"sync"
)

// Handle is a reference to a resource that may not be available yet.
type Handle[T any] interface {

	// Get returns the referenced resource, or an error
	// when there is nothing to return.
	Get() (T, error)
}

// Invalid returns the handle that never refers to anything.
// Its Get always fails with ErrInvalidHandle.
func Invalid[T any]() Handle[T] {
	return invalidHandle[T]{}
}

type invalidHandle[T any] struct{}

func (invalidHandle[T]) Get() (T, error) {
	var zero T
	return zero, fmt.Errorf("%w: %v dereferenced before it was available", ErrInvalidHandle, typeOf[T]())
}

// typeOf returns the static type T, which %T can't name for nil interfaces.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolved returns a handle that refers to r.
func Resolved[T any](r T) Handle[T] {
	return HandleFunc[T](func() (T, error) {
		return r, nil
	})
}

// HandleFunc adapts a function to a Handle.
type HandleFunc[T any] func() (T, error)

// Get calls f.
func (f HandleFunc[T]) Get() (T, error) {
	return f()
}

// MustGet returns the resource behind h and panics if there is none.
// Use it where an unavailable resource is a programming error.
func MustGet[T any](h Handle[T]) T {
	r, err := h.Get()
	if err != nil {
		panic(err)
	}
	return r
}

// NewDeferred creates a handle that gets its resource later with Set.
func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{}
}

// Deferred is a Handle that is resolved once, possibly
// by a different goroutine than the one that reads it.
// The zero value is an unresolved handle.
type Deferred[T any] struct {
	init     sync.Once
	once     sync.Once
	ready    chan struct{}
	resource T
}

func (d *Deferred[T]) readyChan() chan struct{} {
	d.init.Do(func() {
		d.ready = make(chan struct{})
	})
	return d.ready
}

// Set resolves the handle. Only the first call has any effect,
// it reports whether this call was the one that resolved it.
func (d *Deferred[T]) Set(r T) bool {
	set := false
	d.once.Do(func() {
		d.resource = r
		close(d.readyChan())
		set = true
	})
	return set
}

// Ready returns a channel that is closed once the handle is resolved.
func (d *Deferred[T]) Ready() <-chan struct{} {
	return d.readyChan()
}

// Get implements interface
func (d *Deferred[T]) Get() (T, error) {
	select {
	case <-d.readyChan():
		return d.resource, nil
	default:
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrNotReady, typeOf[T]())
	}
}
