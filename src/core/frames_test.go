// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/respool/src/core"
	"github.com/devblok/respool/src/gfx/gfxtest"
	"github.com/devblok/respool/src/gfx/pool"
)

type countingEnder struct {
	ended int
	err   error
}

func (e *countingEnder) EndFrame() error {
	e.ended++
	return e.err
}

func TestFramesEndsEveryRegisteredOnce(t *testing.T) {
	c := qt.New(t)
	var frames core.Frames
	a, b := &countingEnder{}, &countingEnder{}
	frames.Register(a)
	frames.Register(b)

	for idx := 0; idx < 3; idx++ {
		c.Assert(frames.EndFrame(), qt.IsNil)
	}
	c.Assert(frames.Frame(), qt.Equals, uint64(3))
	c.Assert(a.ended, qt.Equals, 3)
	c.Assert(b.ended, qt.Equals, 3)
}

func TestFramesStopsAtFailure(t *testing.T) {
	c := qt.New(t)
	var frames core.Frames
	errLost := errors.New("device lost")
	a, b := &countingEnder{err: errLost}, &countingEnder{}
	frames.Register(a)
	frames.Register(b)

	err := frames.EndFrame()
	c.Assert(err, qt.ErrorIs, errLost)
	c.Assert(err, qt.ErrorMatches, "frame 1: device lost")
	c.Assert(b.ended, qt.Equals, 0)
	c.Assert(frames.Frame(), qt.Equals, uint64(1))
}

func TestFramesDrivePools(t *testing.T) {
	c := qt.New(t)
	ledger := &gfxtest.Ledger{}
	d := gfxtest.Descriptor{Width: 32, Height: 32, Ledger: ledger}

	short, err := pool.New[*gfxtest.Resource](0, pool.WithName(c.Name()+"/short"))
	c.Assert(err, qt.IsNil)
	long, err := pool.New[*gfxtest.Resource](5, pool.WithName(c.Name()+"/long"))
	c.Assert(err, qt.IsNil)

	var frames core.Frames
	frames.Register(short)
	frames.Register(long)

	r1, _ := short.Acquire(d)
	r2, _ := long.Acquire(d)
	c.Assert(short.Release(d, r1), qt.IsNil)
	c.Assert(long.Release(d, r2), qt.IsNil)

	c.Assert(frames.EndFrame(), qt.IsNil)
	c.Assert(short.Len(), qt.Equals, 0)
	c.Assert(long.Len(), qt.Equals, 1)

	c.Assert(frames.Close(), qt.IsNil)
	c.Assert(long.Len(), qt.Equals, 0)
	c.Assert(ledger.Live(), qt.Equals, 0)
}

func TestNewTime(t *testing.T) {
	c := qt.New(t)
	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 1000, EventPollDelay: 1})
	defer tm.Stop()

	c.Assert(tm.Fps(), qt.Equals, 1000)
	<-tm.FpsTicker().C
	<-tm.EventTicker().C
}
