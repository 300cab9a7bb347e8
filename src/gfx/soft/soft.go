// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package soft implements CPU backed rendering resources. They follow
// the same descriptor contract as GPU resources, so they can be pooled
// and used where no device is available.
package soft

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/devblok/respool/src/gfx"
	glm "github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

// package errors
var (
	ErrEmptyExtent = errors.New("resource extent has no area")
	ErrReleased    = errors.New("resource was already released")
)

// Color converts a normalised RGBA vector into a color,
// clamping every channel to [0, 1].
func Color(v glm.Vec4) color.NRGBA {
	return color.NRGBA{
		R: channel(v.X()),
		G: channel(v.Y()),
		B: channel(v.Z()),
		A: channel(v.W()),
	}
}

func channel(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 0xff
	}
	return uint8(f*0xff + 0.5)
}

func newRGBA(extent gfx.Extent2D) (*image.RGBA, error) {
	if extent.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyExtent, extent.Width, extent.Height)
	}
	return image.NewRGBA(image.Rect(0, 0, int(extent.Width), int(extent.Height))), nil
}

// RenderTarget is a color image with an optional depth buffer.
type RenderTarget struct {
	Color *image.RGBA
	Depth []float32
}

// Release implements interface
func (rt *RenderTarget) Release() {
	rt.Color = nil
	rt.Depth = nil
}

// Extent returns the size of the render target.
func (rt *RenderTarget) Extent() gfx.Extent2D {
	if rt.Color == nil {
		return gfx.Extent2D{}
	}
	size := rt.Color.Bounds().Size()
	return gfx.Extent2D{Width: uint(size.X), Height: uint(size.Y)}
}

// RenderTargetDescriptor describes a RenderTarget and the values it is
// cleared to before use. Targets of equal extent and depth usage are
// interchangeable, the clear values don't matter.
type RenderTargetDescriptor struct {
	Extent     gfx.Extent2D
	Depth      bool
	ClearColor glm.Vec4
	ClearDepth float32
}

// Allocate implements interface
func (d RenderTargetDescriptor) Allocate() (*RenderTarget, error) {
	img, err := newRGBA(d.Extent)
	if err != nil {
		return nil, err
	}
	rt := &RenderTarget{Color: img}
	if d.Depth {
		rt.Depth = make([]float32, d.Extent.Width*d.Extent.Height)
	}
	return rt, nil
}

// Prepare implements interface
func (d RenderTargetDescriptor) Prepare(rt *RenderTarget) error {
	if rt.Color == nil {
		return ErrReleased
	}
	draw.Draw(rt.Color, rt.Color.Bounds(), image.NewUniform(Color(d.ClearColor)), image.Point{}, draw.Src)
	for idx := range rt.Depth {
		rt.Depth[idx] = d.ClearDepth
	}
	return nil
}

// Free implements interface
func (d RenderTargetDescriptor) Free(rt *RenderTarget) error {
	if rt.Color == nil {
		return ErrReleased
	}
	rt.Release()
	return nil
}

// CanUsePhysicalResource implements interface
func (d RenderTargetDescriptor) CanUsePhysicalResource(other gfx.Descriptor[*RenderTarget]) bool {
	o, ok := other.(RenderTargetDescriptor)
	return ok && o.Extent == d.Extent && o.Depth == d.Depth
}

// Texture is a sampled image.
type Texture struct {
	Pixels *image.RGBA
}

// Release implements interface
func (t *Texture) Release() {
	t.Pixels = nil
}

// TextureDescriptor describes a Texture filled from Source, scaled to
// Extent with Filter. Without a Filter draw.ApproxBiLinear is used,
// without a Source the texture is cleared to transparent.
type TextureDescriptor struct {
	Extent gfx.Extent2D
	Source image.Image
	Filter draw.Interpolator
}

// Allocate implements interface
func (d TextureDescriptor) Allocate() (*Texture, error) {
	img, err := newRGBA(d.Extent)
	if err != nil {
		return nil, err
	}
	return &Texture{Pixels: img}, nil
}

// Prepare implements interface
func (d TextureDescriptor) Prepare(t *Texture) error {
	if t.Pixels == nil {
		return ErrReleased
	}
	if d.Source == nil {
		draw.Draw(t.Pixels, t.Pixels.Bounds(), image.Transparent, image.Point{}, draw.Src)
		return nil
	}
	filter := d.Filter
	if filter == nil {
		filter = draw.ApproxBiLinear
	}
	filter.Scale(t.Pixels, t.Pixels.Bounds(), d.Source, d.Source.Bounds(), draw.Src, nil)
	return nil
}

// Free implements interface
func (d TextureDescriptor) Free(t *Texture) error {
	if t.Pixels == nil {
		return ErrReleased
	}
	t.Release()
	return nil
}

// CanUsePhysicalResource implements interface
func (d TextureDescriptor) CanUsePhysicalResource(other gfx.Descriptor[*Texture]) bool {
	o, ok := other.(TextureDescriptor)
	return ok && o.Extent == d.Extent
}

// Composite draws t over rt with its top left corner at pt.
func Composite(rt *RenderTarget, t *Texture, pt image.Point) error {
	if rt.Color == nil || t.Pixels == nil {
		return ErrReleased
	}
	r := t.Pixels.Bounds().Add(pt)
	draw.Draw(rt.Color, r, t.Pixels, image.Point{}, draw.Over)
	return nil
}
