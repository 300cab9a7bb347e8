// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// NewBuffer creates, configures, allocates and binds a new buffer.
func NewBuffer(dev *Device, size uint, usage vk.BufferUsageFlagBits, mode vk.SharingMode, prop vk.MemoryPropertyFlagBits) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: mode,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev.Get(), &createInfo, nil, &buffer)); err != nil {
		return nil, fmt.Errorf("vk.CreateBuffer(): %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev.Get(), buffer, &req)
	req.Deref()

	memory, err := dev.Memory().Malloc(req, prop)
	if err != nil {
		vk.DestroyBuffer(dev.Get(), buffer, nil)
		return nil, err
	}

	if err := vk.Error(vk.BindBufferMemory(dev.Get(), buffer, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		memory.Release()
		vk.DestroyBuffer(dev.Get(), buffer, nil)
		return nil, fmt.Errorf("vk.BindBufferMemory(): %w", err)
	}

	return &Buffer{
		device: dev.Get(),
		buffer: buffer,
		memory: memory,
	}, nil
}

// Buffer implements a generic vulkan buffer.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer

	memory Memory
}

// Mem returns the Memory that the buffer is based on.
func (b *Buffer) Mem() *Memory {
	return &b.memory
}

// Get returns the vulkan Buffer handle.
func (b *Buffer) Get() vk.Buffer {
	return b.buffer
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	vk.DestroyBuffer(b.device, b.buffer, nil)
	b.memory.Release()
}

// BufferDescriptor describes a Buffer. Buffers have no contents worth
// initialising and are only shared between equal descriptors.
type BufferDescriptor struct {
	Device     *Device
	Size       uint
	Usage      vk.BufferUsageFlagBits
	Sharing    vk.SharingMode
	Properties vk.MemoryPropertyFlagBits
}

// Allocate implements interface
func (d BufferDescriptor) Allocate() (*Buffer, error) {
	return NewBuffer(d.Device, d.Size, d.Usage, d.Sharing, d.Properties)
}

// Free implements interface
func (d BufferDescriptor) Free(b *Buffer) error {
	b.Release()
	return nil
}
