package ble

import (
	"fmt"
	"sync"

	"github.com/user/aurakey-ble/logger"
)

// SimStack is an in-memory wireless stack used by the daemon's demo mode
// and by tests. It models the slot table the way the real firmware does:
// a fixed array of profile slots, one active index, and a split bond flag.
type SimStack struct {
	mu     sync.Mutex
	slots  []simSlot
	active int
	bonded bool
	prefix string
}

type simSlot struct {
	addr      Address
	connected bool
}

// NewSimStack creates a simulated stack with the given number of profile
// slots, all open.
func NewSimStack(capacity int) *SimStack {
	return &SimStack{
		slots:  make([]simSlot, capacity),
		prefix: "sim-stack",
	}
}

// Pair binds addr to slot i and marks it connected, as if a host just
// completed pairing on that slot.
func (s *SimStack) Pair(i int, addr Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return fmt.Errorf("pair: slot %d out of range", i)
	}
	s.slots[i] = simSlot{addr: addr, connected: true}
	logger.Debug(s.prefix, "paired %s into slot %d", addr, i)
	return nil
}

// SetConnected flips the live connection state of slot i without
// touching its bond.
func (s *SimStack) SetConnected(i int, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.slots) && !s.slots[i].addr.IsNone() {
		s.slots[i].connected = connected
	}
}

// SetPeripheralBonded sets the split bond flag reported by PeripheralIsBonded.
func (s *SimStack) SetPeripheralBonded(bonded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonded = bonded
}

func (s *SimStack) ActiveProfileIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *SimStack) ProfileIsOpen(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return false
	}
	return s.slots[i].addr.IsNone()
}

func (s *SimStack) ProfileIsConnected(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return false
	}
	return s.slots[i].connected
}

func (s *SimStack) ProfileAddress(i int) Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return AddressNone
	}
	return s.slots[i].addr
}

func (s *SimStack) SelectProfile(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return fmt.Errorf("select: slot %d out of range", i)
	}
	s.active = i
	logger.Info(s.prefix, "active profile -> %d", i)
	return nil
}

func (s *SimStack) DisconnectProfile(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return fmt.Errorf("disconnect: slot %d out of range", i)
	}
	old := s.slots[i].addr
	s.slots[i] = simSlot{}
	if !old.IsNone() {
		logger.Info(s.prefix, "unpaired %s from slot %d", old, i)
	}
	return nil
}

func (s *SimStack) ClearAllBonds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		s.slots[i] = simSlot{}
	}
	s.bonded = false
	logger.Info(s.prefix, "cleared all bonds")
}

func (s *SimStack) PeripheralIsBonded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bonded
}
