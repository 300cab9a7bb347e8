// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"io"
)

// FrameEnder is anything that has to be told when a frame is over,
// resource pools age their contents on it.
type FrameEnder interface {
	EndFrame() error
}

// Frames is the frame clock of the render loop. Everything registered
// with it is told about the end of every frame exactly once.
type Frames struct {
	frame  uint64
	enders []FrameEnder
}

// Register adds e to the things told about frame ends.
func (f *Frames) Register(e FrameEnder) {
	f.enders = append(f.enders, e)
}

// Frame returns the number of frames ended so far.
func (f *Frames) Frame() uint64 {
	return f.frame
}

// EndFrame ends the current frame for everything registered, in
// registration order. It stops at the first failure, the frame
// still counts as ended.
func (f *Frames) EndFrame() error {
	f.frame++
	for _, e := range f.enders {
		if err := e.EndFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", f.frame, err)
		}
	}
	return nil
}

// Close closes everything registered that is an io.Closer
// and forgets all of it.
func (f *Frames) Close() error {
	var errs []error
	for _, e := range f.enders {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	f.enders = nil
	return errors.Join(errs...)
}
