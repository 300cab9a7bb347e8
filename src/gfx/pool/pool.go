// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pool implements a cross-frame cache of physical resources.
// Resources released during a frame stay pooled for a fixed number of
// frame boundaries, where any compatible request may pick them up again,
// and are destroyed once that window passes unused.
package pool

import (
	"errors"
	"fmt"

	"github.com/devblok/respool/src/gfx"
	log "github.com/sirupsen/logrus"
)

// package errors
var (
	ErrNegativeRetention = errors.New("retention window can not be negative")
)

// DefaultName is the name of pools created without WithName.
const DefaultName = "default"

// Option configures a CrossFrame pool.
type Option func(*options)

type options struct {
	name   string
	logger log.FieldLogger
}

// WithName names the pool in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger pool events are written to.
func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type entry[T any] struct {
	descriptor   gfx.Descriptor[T]
	resource     T
	framesToLive int
}

// Stats counts what a pool did since it was created.
type Stats struct {
	Allocations uint64
	Reuses      uint64
	Evictions   uint64
	Frames      uint64
}

// New creates a pool keeping released resources
// for retention calls of EndFrame.
func New[T any](retention int, opts ...Option) (*CrossFrame[T], error) {
	if retention < 0 {
		return nil, fmt.Errorf("pool.New(%d): %w", retention, ErrNegativeRetention)
	}

	o := options{name: DefaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.StandardLogger()
	}

	return &CrossFrame[T]{
		name:      o.name,
		retention: retention,
		log:       o.logger.WithField("pool", o.name),
		metrics:   newPoolMetrics(o.name),
	}, nil
}

// CrossFrame is an Allocator that keeps released resources around
// for reuse in later frames. EndFrame must be called once per frame.
//
// A CrossFrame is meant to be driven from the render thread only,
// it is not safe for concurrent use.
type CrossFrame[T any] struct {
	name      string
	retention int

	// oldest first, the most recently released entry is last
	entries []entry[T]

	stats   Stats
	log     log.FieldLogger
	metrics poolMetrics
}

var _ gfx.Allocator[struct{}] = (*CrossFrame[struct{}])(nil)

// Name returns the name of the pool.
func (p *CrossFrame[T]) Name() string {
	return p.name
}

// Retention returns the number of frames a released resource survives.
func (p *CrossFrame[T]) Retention() int {
	return p.retention
}

// Len returns the number of pooled resources.
func (p *CrossFrame[T]) Len() int {
	return len(p.entries)
}

// Stats returns the pool counters.
func (p *CrossFrame[T]) Stats() Stats {
	return p.stats
}

// Acquire implements interface. The most recently released compatible
// resource is reused, otherwise a new one is allocated; either way it is
// prepared before being returned. A resource that fails to prepare is
// freed and never returns to the pool.
func (p *CrossFrame[T]) Acquire(d gfx.Descriptor[T]) (T, error) {
	var zero T
	if d == nil {
		return zero, gfx.ErrNilDescriptor
	}

	r, reused := p.take(d)
	if reused {
		p.stats.Reuses++
		p.metrics.reuses.Inc()
		p.log.WithField("pooled", len(p.entries)).Debug("Reusing pooled resource")
	} else {
		var err error
		if r, err = d.Allocate(); err != nil {
			return zero, err
		}
		p.stats.Allocations++
		p.metrics.allocations.Inc()
		p.log.WithField("pooled", len(p.entries)).Debug("Allocated resource")
	}

	if err := gfx.Prepare(d, r); err != nil {
		return zero, gfx.Discard(err, d, r)
	}
	return r, nil
}

// take removes and returns the most recently released
// resource that d can use, if there is one.
func (p *CrossFrame[T]) take(d gfx.Descriptor[T]) (T, bool) {
	for idx := len(p.entries) - 1; idx >= 0; idx-- {
		if !gfx.CanUsePhysicalResource(d, p.entries[idx].descriptor) {
			continue
		}
		r := p.entries[idx].resource
		last := len(p.entries) - 1
		copy(p.entries[idx:], p.entries[idx+1:])
		p.entries[last] = entry[T]{}
		p.entries = p.entries[:last]
		p.metrics.entries.Dec()
		return r, true
	}
	var zero T
	return zero, false
}

// Release implements interface. The resource becomes available
// to compatible Acquire calls for the retention window.
func (p *CrossFrame[T]) Release(d gfx.Descriptor[T], r T) error {
	if d == nil {
		return gfx.ErrNilDescriptor
	}
	p.entries = append(p.entries, entry[T]{
		descriptor:   d,
		resource:     r,
		framesToLive: p.retention,
	})
	p.metrics.entries.Inc()
	return nil
}

// EndFrame ages every pooled resource by one frame, freeing those whose
// retention window has run out. If freeing fails, EndFrame stops there:
// resources already freed stay freed, the failed one is dropped from the
// pool and the rest are left for the next call.
func (p *CrossFrame[T]) EndFrame() error {
	p.stats.Frames++

	kept := p.entries[:0]
	for idx := range p.entries {
		e := p.entries[idx]
		if e.framesToLive > 0 {
			e.framesToLive--
			kept = append(kept, e)
			continue
		}

		p.stats.Evictions++
		p.metrics.evictions.Inc()
		p.metrics.entries.Dec()
		if err := e.descriptor.Free(e.resource); err != nil {
			p.log.WithError(err).Error("Failed to free expired resource")
			kept = append(kept, p.entries[idx+1:]...)
			p.truncate(kept)
			return fmt.Errorf("pool %s: %w", p.name, err)
		}
	}

	if evicted := len(p.entries) - len(kept); evicted > 0 {
		p.log.WithFields(log.Fields{
			"evicted": evicted,
			"pooled":  len(kept),
		}).Debug("Evicted expired resources")
	}
	p.truncate(kept)
	return nil
}

// truncate makes kept, which aliases the front of entries, the new
// contents of the pool and clears the slots left behind.
func (p *CrossFrame[T]) truncate(kept []entry[T]) {
	clear(p.entries[len(kept):])
	p.entries = kept
}

// Clear frees every pooled resource regardless of its age. The pool is
// always left empty; errors from individual frees are joined together.
func (p *CrossFrame[T]) Clear() error {
	if len(p.entries) == 0 {
		return nil
	}

	var errs []error
	for _, e := range p.entries {
		if err := e.descriptor.Free(e.resource); err != nil {
			errs = append(errs, err)
		}
	}
	p.stats.Evictions += uint64(len(p.entries))
	p.metrics.evictions.Add(float64(len(p.entries)))
	p.metrics.entries.Sub(float64(len(p.entries)))
	p.log.WithField("freed", len(p.entries)).Debug("Cleared pool")

	p.truncate(p.entries[:0])
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("pool %s: %w", p.name, err)
	}
	return nil
}

// Close implements io.Closer, it's the same as Clear.
func (p *CrossFrame[T]) Close() error {
	return p.Clear()
}
