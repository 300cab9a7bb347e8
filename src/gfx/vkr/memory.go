// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"sort"

	vk "github.com/devblok/vulkan"
)

// ErrNoMemoryType is returned when no memory type
// satisfies both the resource and the requested properties.
var ErrNoMemoryType = errors.New("suitable memory type not found")

// Memory is a device memory region owned by one resource.
type Memory struct {
	size      uint
	typeIndex uint32
	memory    vk.DeviceMemory
	allocator *MemoryAllocator
}

// Len returns the length of the region.
func (m *Memory) Len() uint {
	return m.size
}

// Offset returns where the region starts in its allocation.
// Every resource gets a dedicated allocation, so it's always 0.
func (m *Memory) Offset() uint {
	return 0
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Release frees the memory.
func (m *Memory) Release() {
	vk.FreeMemory(m.allocator.device, m.memory, nil)
	m.allocator.untrack(m.typeIndex, m.size)
}

// MemoryUsage is what is currently allocated from one memory type.
type MemoryUsage struct {
	TypeIndex   uint32
	HeapIndex   uint32
	Allocations int
	Bytes       uint64
}

// NewMemoryAllocator creates a memory allocator for the logical device,
// choosing memory types from the properties of the physical device.
func NewMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) (*MemoryAllocator, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()

	return newMemoryAllocator(device, memProperties), nil
}

func newMemoryAllocator(device vk.Device, memProperties vk.PhysicalDeviceMemoryProperties) *MemoryAllocator {
	for idx := uint32(0); idx < memProperties.MemoryTypeCount; idx++ {
		memProperties.MemoryTypes[idx].Deref()
	}
	return &MemoryAllocator{
		device:        device,
		memProperties: memProperties,
		usage:         make(map[uint32]*MemoryUsage),
	}
}

// MemoryAllocator gives every resource its own device memory
// allocation and keeps count of what is live per memory type.
type MemoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
	usage         map[uint32]*MemoryUsage
}

// Malloc allocates memory satisfying req with at least the given properties.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlagBits) (Memory, error) {
	memTypeIdx, err := ma.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return Memory{}, fmt.Errorf("%w: type bits %b, properties %b", err, req.MemoryTypeBits, prop)
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return Memory{}, fmt.Errorf("vk.AllocateMemory(): %w", err)
	}
	ma.track(memTypeIdx, uint(req.Size))

	return Memory{
		size:      uint(req.Size),
		typeIndex: memTypeIdx,
		memory:    memory,
		allocator: ma,
	}, nil
}

// Usage returns the live allocations per memory type, ordered by type index.
func (ma *MemoryAllocator) Usage() []MemoryUsage {
	usage := make([]MemoryUsage, 0, len(ma.usage))
	for _, u := range ma.usage {
		usage = append(usage, *u)
	}
	sort.Slice(usage, func(i, j int) bool {
		return usage[i].TypeIndex < usage[j].TypeIndex
	})
	return usage
}

func (ma *MemoryAllocator) track(typeIndex uint32, size uint) {
	u, ok := ma.usage[typeIndex]
	if !ok {
		u = &MemoryUsage{
			TypeIndex: typeIndex,
			HeapIndex: ma.memProperties.MemoryTypes[typeIndex].HeapIndex,
		}
		ma.usage[typeIndex] = u
	}
	u.Allocations++
	u.Bytes += uint64(size)
}

func (ma *MemoryAllocator) untrack(typeIndex uint32, size uint) {
	u, ok := ma.usage[typeIndex]
	if !ok {
		return
	}
	u.Allocations--
	u.Bytes -= uint64(size)
	if u.Allocations == 0 {
		delete(ma.usage, typeIndex)
	}
}

// findMemoryType returns the first memory type allowed by filter
// that has all of prop.
func (ma *MemoryAllocator) findMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < ma.memProperties.MemoryTypeCount; idx++ {
		if filter&(1<<idx) == 0 {
			continue
		}
		if ma.memProperties.MemoryTypes[idx].PropertyFlags&prop == prop {
			return idx, nil
		}
	}
	return 0, ErrNoMemoryType
}
