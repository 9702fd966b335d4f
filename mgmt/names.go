// Package mgmt implements the profile management RPC subsystem: the durable
// profile name table, the six request handlers, and the request dispatcher.
//
// The package performs no internal locking. The transport runtime guarantees
// requests are dispatched one at a time to completion, and everything here
// relies on that contract.
package mgmt

import (
	"errors"
	"strings"

	"github.com/user/aurakey-ble/ble"
	"github.com/user/aurakey-ble/logger"
	"github.com/user/aurakey-ble/settings"
)

// ProfileNameMaxLen is the byte capacity of a stored display name. Longer
// names are silently truncated, matching the device's fixed name buffers.
const ProfileNameMaxLen = 31

// ErrStoreFull is returned by Upsert when every slot already holds a
// different address. The table has one slot per profile, so this only
// happens when persisted history names more distinct addresses than the
// current profile capacity.
var ErrStoreFull = errors.New("name store full")

type nameEntry struct {
	addr ble.Address
	name string
}

// NameStore maps hardware addresses to display names: a fixed table of one
// entry per profile slot, hydrated from durable storage at startup and
// written through on every rename.
type NameStore struct {
	entries []nameEntry
	store   settings.Store
}

// NewNameStore creates an empty table with one slot per profile. The store
// receives keys equal to the canonical address string; namespace it with
// settings.WithPrefix before passing it in.
func NewNameStore(capacity int, store settings.Store) *NameStore {
	return &NameStore{
		entries: make([]nameEntry, capacity),
		store:   store,
	}
}

// Capacity returns the number of slots, which equals the wireless stack's
// profile count.
func (s *NameStore) Capacity() int {
	return len(s.entries)
}

// Lookup returns the name stored for addr, or "" if none.
func (s *NameStore) Lookup(addr ble.Address) string {
	if addr.IsNone() {
		return ""
	}
	for i := range s.entries {
		if s.entries[i].addr == addr {
			return s.entries[i].name
		}
	}
	return ""
}

// Upsert stores name for addr: an entry already holding addr is updated in
// place, otherwise the first empty slot is taken. The in-memory update
// happens first; the durable write follows synchronously and its failure is
// the operation's failure, leaving memory ahead of flash until the next
// successful write for that address.
func (s *NameStore) Upsert(addr ble.Address, name string) error {
	name = truncateName(name)

	slot := s.findSlot(addr)
	if slot < 0 {
		logger.Warn("names", "no slot available for %s", addr)
		return ErrStoreFull
	}

	s.entries[slot] = nameEntry{addr: addr, name: name}
	logger.Debug("names", "slot %d: %s -> %q", slot, addr, name)

	return s.store.Save(addr.String(), []byte(name))
}

// Remove clears the entry for addr, if any. The durable record is left in
// place; it is only ever overwritten by a later Upsert for the same address.
func (s *NameStore) Remove(addr ble.Address) {
	if addr.IsNone() {
		return
	}
	for i := range s.entries {
		if s.entries[i].addr == addr {
			s.entries[i] = nameEntry{}
			logger.Debug("names", "slot %d: removed %s", i, addr)
			return
		}
	}
}

// Hydrate restores one persisted record. The key is the canonical address
// string written by Upsert; records with unparseable keys are skipped, never
// fatal. Replaying the same records again lands on the same slots.
func (s *NameStore) Hydrate(key string, value []byte) {
	addr, err := ble.ParseAddress(key)
	if err != nil {
		logger.Warn("names", "skipping record with unparseable address %q: %v", key, err)
		return
	}

	slot := s.findSlot(addr)
	if slot < 0 {
		logger.Warn("names", "no slot for persisted name of %s", addr)
		return
	}

	name := truncateName(string(value))
	s.entries[slot] = nameEntry{addr: addr, name: name}
	logger.Debug("names", "hydrated slot %d: %s -> %q", slot, addr, name)
}

// HydrateAll replays the whole store through Hydrate.
func (s *NameStore) HydrateAll() error {
	return s.store.Load(s.Hydrate)
}

// findSlot returns the index of the entry holding addr, else the first
// empty slot, else -1.
func (s *NameStore) findSlot(addr ble.Address) int {
	free := -1
	for i := range s.entries {
		if s.entries[i].addr == addr {
			return i
		}
		if free < 0 && s.entries[i].addr.IsNone() {
			free = i
		}
	}
	return free
}

// truncateName enforces the slot capacity and NUL-free content.
func truncateName(name string) string {
	if i := strings.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if len(name) > ProfileNameMaxLen {
		name = name[:ProfileNameMaxLen]
	}
	return name
}
