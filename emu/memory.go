package emu

import "sort"

// Memory is a sparse word-addressed memory image. Addresses that were never
// written read as zero and are not materialized by reads.
type Memory struct {
	words map[int64]int64
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{words: make(map[int64]int64)}
}

// Read returns the value at addr, or 0 if addr was never written.
func (m *Memory) Read(addr int64) int64 {
	return m.words[addr]
}

// Peek returns the value at addr and whether an entry exists.
func (m *Memory) Peek(addr int64) (int64, bool) {
	v, ok := m.words[addr]
	return v, ok
}

// Write stores value at addr, creating the entry if needed.
func (m *Memory) Write(addr, value int64) {
	m.words[addr] = value
}

// Len returns the number of materialized entries.
func (m *Memory) Len() int {
	return len(m.words)
}

// Addresses returns all materialized addresses in ascending order.
func (m *Memory) Addresses() []int64 {
	addrs := make([]int64, 0, len(m.words))
	for a := range m.words {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Snapshot returns a copy of all materialized entries.
func (m *Memory) Snapshot() map[int64]int64 {
	snapshot := make(map[int64]int64, len(m.words))
	for a, v := range m.words {
		snapshot[a] = v
	}
	return snapshot
}

// Reset removes every entry.
func (m *Memory) Reset() {
	m.words = make(map[int64]int64)
}
