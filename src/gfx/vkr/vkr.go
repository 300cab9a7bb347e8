// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements vulkan rendering resources.
package vkr

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// NewDevice wraps a logical device with what is needed to create
// and initialise resources on it: a memory allocator and a
// transient command pool on the given queue family.
func NewDevice(device vk.Device, phyDevice vk.PhysicalDevice, queue vk.Queue, queueFamily uint32) (*Device, error) {
	ma, err := NewMemoryAllocator(device, phyDevice)
	if err != nil {
		return nil, err
	}

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
		QueueFamilyIndex: queueFamily,
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device, &cpci, nil, &commandPool)); err != nil {
		return nil, fmt.Errorf("vk.CreateCommandPool(): %w", err)
	}

	return &Device{
		device:      device,
		queue:       queue,
		memory:      ma,
		commandPool: commandPool,
	}, nil
}

// Device is a logical device that resources are created on.
type Device struct {
	device      vk.Device
	queue       vk.Queue
	memory      *MemoryAllocator
	commandPool vk.CommandPool
}

// Get returns the vulkan device handle.
func (d *Device) Get() vk.Device {
	return d.device
}

// Memory returns the allocator used for resources of this device.
func (d *Device) Memory() *MemoryAllocator {
	return d.memory
}

// Submit records commands into a one time command buffer, submits it
// and waits until the queue is idle again.
func (d *Device) Submit(record func(vk.CommandBuffer)) error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        d.commandPool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, commandBuffers)); err != nil {
		return fmt.Errorf("vk.AllocateCommandBuffers(): %w", err)
	}
	defer vk.FreeCommandBuffers(d.device, d.commandPool, 1, commandBuffers)

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(commandBuffers[0], &cbbi)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer(): %w", err)
	}

	record(commandBuffers[0])

	if err := vk.Error(vk.EndCommandBuffer(commandBuffers[0])); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %w", err)
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}
	if err := vk.Error(vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{si}, nil)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %w", err)
	}

	if err := vk.Error(vk.QueueWaitIdle(d.queue)); err != nil {
		return fmt.Errorf("vk.QueueWaitIdle(): %w", err)
	}
	return nil
}

// Destroy destroys the command pool. Resources created
// on the device must be released before.
func (d *Device) Destroy() {
	vk.DestroyCommandPool(d.device, d.commandPool, nil)
}
