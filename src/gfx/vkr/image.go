// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"
	"unsafe"

	"github.com/devblok/respool/src/gfx"
	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
)

// DepthFormat is the format of depth attachments.
const DepthFormat = vk.FormatD16Unorm

// NewImage creates a device local 2D image with a view over it.
func NewImage(dev *Device, extent gfx.Extent2D, format vk.Format, usage vk.ImageUsageFlagBits, aspect vk.ImageAspectFlagBits) (*Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  uint32(extent.Width),
			Height: uint32(extent.Height),
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(dev.Get(), &createInfo, nil, &image)); err != nil {
		return nil, fmt.Errorf("vk.CreateImage(): %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev.Get(), image, &req)
	req.Deref()

	memory, err := dev.Memory().Malloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(dev.Get(), image, nil)
		return nil, err
	}

	if err := vk.Error(vk.BindImageMemory(dev.Get(), image, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		memory.Release()
		vk.DestroyImage(dev.Get(), image, nil)
		return nil, fmt.Errorf("vk.BindImageMemory(): %w", err)
	}

	ivci := vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            image,
		ViewType:         vk.ImageViewType2d,
		Format:           format,
		SubresourceRange: subresourceRange(aspect),
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(dev.Get(), &ivci, nil, &view)); err != nil {
		memory.Release()
		vk.DestroyImage(dev.Get(), image, nil)
		return nil, fmt.Errorf("vk.CreateImageView(): %w", err)
	}

	return &Image{
		device: dev.Get(),
		image:  image,
		view:   view,
		aspect: aspect,
		memory: memory,
	}, nil
}

// Image implements and abstracts vulkan image primitive.
type Image struct {
	device vk.Device
	image  vk.Image
	view   vk.ImageView
	aspect vk.ImageAspectFlagBits
	memory Memory
}

// Get returns the vulkan Image handle.
func (i *Image) Get() vk.Image {
	return i.image
}

// View returns the view covering the whole image.
func (i *Image) View() vk.ImageView {
	return i.view
}

// Mem returns the underlying memory of the Image.
func (i *Image) Mem() *Memory {
	return &i.memory
}

// Release destroys the view, the image and its memory.
func (i *Image) Release() {
	vk.DestroyImageView(i.device, i.view, nil)
	vk.DestroyImage(i.device, i.image, nil)
	i.memory.Release()
}

// RenderTarget is a color attachment with an optional depth attachment.
type RenderTarget struct {
	Color *Image
	Depth *Image
}

// Release implements interface
func (rt *RenderTarget) Release() {
	if rt.Depth != nil {
		rt.Depth.Release()
	}
	rt.Color.Release()
}

// RenderTargetDescriptor describes a RenderTarget and what it's cleared
// to before use. Targets on the same device with equal extent, format and
// depth usage are interchangeable, the clear values don't matter.
type RenderTargetDescriptor struct {
	Device     *Device
	Extent     gfx.Extent2D
	Format     vk.Format
	Depth      bool
	ClearColor glm.Vec4
	ClearDepth float32
}

// Allocate implements interface
func (d RenderTargetDescriptor) Allocate() (*RenderTarget, error) {
	color, err := NewImage(d.Device, d.Extent, d.Format,
		vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit,
		vk.ImageAspectColorBit)
	if err != nil {
		return nil, err
	}

	rt := &RenderTarget{Color: color}
	if d.Depth {
		depth, err := NewImage(d.Device, d.Extent, DepthFormat,
			vk.ImageUsageDepthStencilAttachmentBit|vk.ImageUsageTransferDstBit,
			vk.ImageAspectDepthBit)
		if err != nil {
			color.Release()
			return nil, err
		}
		rt.Depth = depth
	}
	return rt, nil
}

// Prepare implements interface. Previous contents are discarded,
// the attachments are cleared and left ready to be rendered to.
func (d RenderTargetDescriptor) Prepare(rt *RenderTarget) error {
	return d.Device.Submit(func(cmd vk.CommandBuffer) {
		transition(cmd, rt.Color, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		cv := clearColor(d.ClearColor)
		vk.CmdClearColorImage(cmd, rt.Color.Get(), vk.ImageLayoutTransferDstOptimal, &cv,
			1, []vk.ImageSubresourceRange{subresourceRange(rt.Color.aspect)})
		transition(cmd, rt.Color, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutColorAttachmentOptimal)

		if rt.Depth == nil {
			return
		}
		transition(cmd, rt.Depth, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		dv := vk.ClearDepthStencilValue{Depth: d.ClearDepth}
		vk.CmdClearDepthStencilImage(cmd, rt.Depth.Get(), vk.ImageLayoutTransferDstOptimal, &dv,
			1, []vk.ImageSubresourceRange{subresourceRange(rt.Depth.aspect)})
		transition(cmd, rt.Depth, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutDepthStencilAttachmentOptimal)
	})
}

// Free implements interface
func (d RenderTargetDescriptor) Free(rt *RenderTarget) error {
	rt.Release()
	return nil
}

// CanUsePhysicalResource implements interface
func (d RenderTargetDescriptor) CanUsePhysicalResource(other gfx.Descriptor[*RenderTarget]) bool {
	o, ok := other.(RenderTargetDescriptor)
	return ok &&
		o.Device == d.Device &&
		o.Extent == d.Extent &&
		o.Format == d.Format &&
		o.Depth == d.Depth
}

func subresourceRange(aspect vk.ImageAspectFlagBits) vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(aspect),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}

// transition records a layout transition of img
// between the layouts a render target goes through.
func transition(cmd vk.CommandBuffer, img *Image, old, new vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           old,
		NewLayout:           new,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Get(),
		SubresourceRange:    subresourceRange(img.aspect),
	}

	srcStage, dstStage := layoutStages(&barrier)
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func layoutStages(barrier *vk.ImageMemoryBarrier) (vk.PipelineStageFlags, vk.PipelineStageFlags) {
	switch barrier.NewLayout {
	case vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		return vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
		return vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
	default:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
		return vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
}

// clearColor lays out a float RGBA color the way
// the clear color union expects it.
func clearColor(v glm.Vec4) vk.ClearColorValue {
	var cv vk.ClearColorValue
	rgba := [4]float32(v)
	copy(cv[:], (*[unsafe.Sizeof(rgba)]byte)(unsafe.Pointer(&rgba))[:])
	return cv
}
