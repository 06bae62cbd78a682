// Package guestmem is a flat, byte-addressable guest memory implementing
// the full internal/callbacks.UserCallbacks surface, generalizing
// memory_bus.go's SystemBus (contiguous byte slice, page-keyed I/O region
// table, RWMutex-guarded access, little-endian 32-bit accessors) from a
// single CPU's address space into a standalone, host-process-embeddable
// harness for the cmd/ tools and package tests to drive a JIT without a
// real operating system underneath it.
package guestmem

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/vexdbt/armjit/internal/callbacks"
)

// PageSize and PageMask mirror memory_bus.go's I/O region paging scheme,
// mapping each registered region onto every 256-byte page it spans so a
// lookup is a single map access plus a short linear scan.
const (
	PageSize = 0x100
	PageMask = ^uint32(PageSize - 1)
)

type ioRegion struct {
	start, end uint32
	onRead     func(addr uint32) uint32
	onWrite    func(addr uint32, value uint32)
}

// Memory is a flat guest address space: all accesses are little-endian,
// and a region of it may be marked read-only (for ConstMemoryReader/
// IsReadOnlyMemory) or mapped to an I/O callback pair (for devices the
// cmd/ tools want to simulate, e.g. a terminal-output byte).
type Memory struct {
	mu      sync.RWMutex
	bytes   []byte
	mapping map[uint32][]ioRegion

	roStart, roEnd uint32
	roSet          bool

	ticksRemaining atomic.Uint64

	exceptions     func(pc uint32, kind uint8)
	supervisorCall func(pc uint32, imm uint32)
}

// New returns a zeroed Memory of the given size in bytes.
func New(size uint32) *Memory {
	return &Memory{
		bytes:   make([]byte, size),
		mapping: make(map[uint32][]ioRegion),
	}
}

// LoadAt copies data into the guest address space starting at addr,
// overwriting whatever was there.
func (m *Memory) LoadAt(addr uint32, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.bytes[addr:], data)
}

// SetReadOnlyRange marks [start, end) as read-only guest memory — the
// region the optimizer's constant-folding pass is allowed to treat as
// immutable for the program's whole run.
func (m *Memory) SetReadOnlyRange(start, end uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roStart, m.roEnd, m.roSet = start, end, true
}

// MapIO registers an I/O region the way memory_bus.go's MapIO does,
// letting a cmd/ tool simulate a simple memory-mapped peripheral (a
// terminal-output latch, a status register) without a real device model.
func (m *Memory) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	region := ioRegion{start: start, end: end, onRead: onRead, onWrite: onWrite}
	first := start & PageMask
	last := end & PageMask
	for page := first; page <= last; page += PageSize {
		m.mapping[page] = append(m.mapping[page], region)
	}
}

// SetExceptionHandler installs the callback invoked on ExceptionRaised.
func (m *Memory) SetExceptionHandler(fn func(pc uint32, kind uint8)) { m.exceptions = fn }

// SetSupervisorHandler installs the callback invoked on CallSupervisor.
func (m *Memory) SetSupervisorHandler(fn func(pc uint32, imm uint32)) { m.supervisorCall = fn }

// SetTickBudget sets the remaining tick budget a JIT's Run call is allowed
// to spend before its cooperative timeout kicks in.
func (m *Memory) SetTickBudget(n uint64) { m.ticksRemaining.Store(n) }

func (m *Memory) ioRead(addr uint32) (uint32, bool) {
	regions, ok := m.mapping[addr&PageMask]
	if !ok {
		return 0, false
	}
	for _, r := range regions {
		if addr >= r.start && addr <= r.end && r.onRead != nil {
			return r.onRead(addr), true
		}
	}
	return 0, false
}

func (m *Memory) ioWrite(addr, value uint32) bool {
	regions, ok := m.mapping[addr&PageMask]
	if !ok {
		return false
	}
	for _, r := range regions {
		if addr >= r.start && addr <= r.end && r.onWrite != nil {
			r.onWrite(addr, value)
			return true
		}
	}
	return false
}

func (m *Memory) Read8(addr uint32) uint8 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bytes[addr]
}

func (m *Memory) Write8(addr uint32, v uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes[addr] = v
}

func (m *Memory) Read16(addr uint32) uint16 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return binary.LittleEndian.Uint16(m.bytes[addr:])
}

func (m *Memory) Write16(addr uint32, v uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	binary.LittleEndian.PutUint16(m.bytes[addr:], v)
}

func (m *Memory) Read32(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.ioRead(addr); ok {
		binary.LittleEndian.PutUint32(m.bytes[addr:], v)
		return v
	}
	return binary.LittleEndian.Uint32(m.bytes[addr:])
}

func (m *Memory) Write32(addr uint32, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ioWrite(addr, v) {
		binary.LittleEndian.PutUint32(m.bytes[addr:], v)
		return
	}
	binary.LittleEndian.PutUint32(m.bytes[addr:], v)
}

func (m *Memory) Read64(addr uint32) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return binary.LittleEndian.Uint64(m.bytes[addr:])
}

func (m *Memory) Write64(addr uint32, v uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	binary.LittleEndian.PutUint64(m.bytes[addr:], v)
}

// ReadCode reads a guest instruction word, the fetch path the translator
// and decoder use. No I/O region ever intercepts a code fetch.
func (m *Memory) ReadCode(addr uint32) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return binary.LittleEndian.Uint32(m.bytes[addr:])
}

// IsReadOnlyMemory reports whether addr falls in the range SetReadOnlyRange
// configured. Memory never marked read-only reports false for everything.
func (m *Memory) IsReadOnlyMemory(addr uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roSet && addr >= m.roStart && addr < m.roEnd
}

func (m *Memory) addTicks(n uint64) {
	for {
		cur := m.ticksRemaining.Load()
		if cur == 0 {
			return
		}
		next := uint64(0)
		if n < cur {
			next = cur - n
		}
		if m.ticksRemaining.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (m *Memory) getTicksRemaining() uint64 { return m.ticksRemaining.Load() }

func (m *Memory) exceptionRaised(pc uint32, kind uint8) {
	if m.exceptions != nil {
		m.exceptions(pc, kind)
	}
}

func (m *Memory) callSupervisor(pc uint32, imm uint32) {
	if m.supervisorCall != nil {
		m.supervisorCall(pc, imm)
	}
}

// Callbacks returns the UserCallbacks vtable wired to this Memory, ready to
// hand to armjit.WithCallbacks.
func (m *Memory) Callbacks() callbacks.UserCallbacks {
	return callbacks.UserCallbacks{
		MemoryReadCode:    m.ReadCode,
		MemoryRead8:       m.Read8,
		MemoryRead16:      m.Read16,
		MemoryRead32:      m.Read32,
		MemoryRead64:      m.Read64,
		MemoryWrite8:      m.Write8,
		MemoryWrite16:     m.Write16,
		MemoryWrite32:     m.Write32,
		MemoryWrite64:     m.Write64,
		AddTicks:          m.addTicks,
		GetTicksRemaining: m.getTicksRemaining,
		CallSupervisor:    m.callSupervisor,
		ExceptionRaised:   m.exceptionRaised,
		IsReadOnlyMemory:  m.IsReadOnlyMemory,
	}
}
