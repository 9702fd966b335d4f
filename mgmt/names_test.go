package mgmt

import (
	"errors"
	"strings"
	"testing"

	"github.com/user/aurakey-ble/ble"
	"github.com/user/aurakey-ble/settings"
)

func mustAddr(t *testing.T, s string) ble.Address {
	t.Helper()
	addr, err := ble.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	return addr
}

func TestNameStore_LookupMiss(t *testing.T) {
	ns := NewNameStore(3, settings.NewMemStore())

	if name := ns.Lookup(mustAddr(t, "C0:FF:EE:00:00:01 (random)")); name != "" {
		t.Errorf("Expected empty name for unknown address, got %q", name)
	}
	if name := ns.Lookup(ble.AddressNone); name != "" {
		t.Errorf("Expected empty name for sentinel address, got %q", name)
	}
}

func TestNameStore_UpsertAndLookup(t *testing.T) {
	store := settings.NewMemStore()
	ns := NewNameStore(3, store)
	addr := mustAddr(t, "C0:FF:EE:00:00:01 (random)")

	if err := ns.Upsert(addr, "Laptop"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if name := ns.Lookup(addr); name != "Laptop" {
		t.Errorf("Expected %q, got %q", "Laptop", name)
	}

	// The durable record is keyed by the canonical address string.
	value, ok := store.Get(addr.String())
	if !ok {
		t.Fatalf("Expected durable record under %q", addr.String())
	}
	if string(value) != "Laptop" {
		t.Errorf("Expected durable value %q, got %q", "Laptop", value)
	}
}

func TestNameStore_UpsertOverwritesInPlace(t *testing.T) {
	store := settings.NewMemStore()
	ns := NewNameStore(2, store)
	addr := mustAddr(t, "C0:FF:EE:00:00:01 (random)")
	other := mustAddr(t, "C0:FF:EE:00:00:02 (random)")

	if err := ns.Upsert(addr, "Laptop"); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if err := ns.Upsert(other, "Tablet"); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	// Renaming an existing address must reuse its slot, not allocate.
	if err := ns.Upsert(addr, "Work Laptop"); err != nil {
		t.Fatalf("rename Upsert failed: %v", err)
	}

	if name := ns.Lookup(addr); name != "Work Laptop" {
		t.Errorf("Expected %q, got %q", "Work Laptop", name)
	}
	if name := ns.Lookup(other); name != "Tablet" {
		t.Errorf("Expected other entry untouched, got %q", name)
	}
}

func TestNameStore_UpsertTruncatesLongNames(t *testing.T) {
	ns := NewNameStore(2, settings.NewMemStore())
	addr := mustAddr(t, "C0:FF:EE:00:00:01 (random)")

	long := strings.Repeat("x", 100)
	if err := ns.Upsert(addr, long); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	name := ns.Lookup(addr)
	if len(name) != ProfileNameMaxLen {
		t.Errorf("Expected name truncated to %d bytes, got %d", ProfileNameMaxLen, len(name))
	}
	if name != long[:ProfileNameMaxLen] {
		t.Errorf("Expected prefix of original name, got %q", name)
	}
}

func TestNameStore_UpsertFullTable(t *testing.T) {
	ns := NewNameStore(2, settings.NewMemStore())

	if err := ns.Upsert(mustAddr(t, "C0:FF:EE:00:00:01 (random)"), "a"); err != nil {
		t.Fatalf("Upsert 1 failed: %v", err)
	}
	if err := ns.Upsert(mustAddr(t, "C0:FF:EE:00:00:02 (random)"), "b"); err != nil {
		t.Fatalf("Upsert 2 failed: %v", err)
	}

	err := ns.Upsert(mustAddr(t, "C0:FF:EE:00:00:03 (random)"), "c")
	if !errors.Is(err, ErrStoreFull) {
		t.Errorf("Expected ErrStoreFull, got %v", err)
	}
}

func TestNameStore_UpsertDurableWriteFailure(t *testing.T) {
	store := settings.NewMemStore()
	store.SaveErr = errors.New("flash write failed")
	ns := NewNameStore(2, store)
	addr := mustAddr(t, "C0:FF:EE:00:00:01 (random)")

	err := ns.Upsert(addr, "Laptop")
	if err == nil {
		t.Fatalf("Expected durable write failure to propagate")
	}

	// The in-memory table was already updated before the write failed.
	// This inconsistency is the documented behavior.
	if name := ns.Lookup(addr); name != "Laptop" {
		t.Errorf("Expected in-memory entry despite write failure, got %q", name)
	}
}

func TestNameStore_RemoveMissingIsNoop(t *testing.T) {
	ns := NewNameStore(2, settings.NewMemStore())
	ns.Remove(mustAddr(t, "C0:FF:EE:00:00:01 (random)"))
	ns.Remove(ble.AddressNone)
}

func TestNameStore_RemoveKeepsDurableRecord(t *testing.T) {
	store := settings.NewMemStore()
	ns := NewNameStore(2, store)
	addr := mustAddr(t, "C0:FF:EE:00:00:01 (random)")

	if err := ns.Upsert(addr, "Laptop"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	ns.Remove(addr)

	if name := ns.Lookup(addr); name != "" {
		t.Errorf("Expected name cleared after Remove, got %q", name)
	}

	// Remove intentionally leaves the durable record behind; a later
	// hydration resurrects the name for that address.
	if _, ok := store.Get(addr.String()); !ok {
		t.Errorf("Expected durable record to remain after Remove")
	}

	fresh := NewNameStore(2, store)
	if err := fresh.HydrateAll(); err != nil {
		t.Fatalf("HydrateAll failed: %v", err)
	}
	if name := fresh.Lookup(addr); name != "Laptop" {
		t.Errorf("Expected orphaned record to hydrate, got %q", name)
	}
}

func TestNameStore_HydrateBareAddressKey(t *testing.T) {
	ns := NewNameStore(2, settings.NewMemStore())

	// Keys without a type suffix parse as random.
	ns.Hydrate("C0:FF:EE:00:00:01", []byte("Laptop"))

	addr := mustAddr(t, "C0:FF:EE:00:00:01 (random)")
	if name := ns.Lookup(addr); name != "Laptop" {
		t.Errorf("Expected bare key to hydrate as random, got %q", name)
	}
}

func TestNameStore_HydrateSkipsUnparseableKeys(t *testing.T) {
	ns := NewNameStore(2, settings.NewMemStore())

	ns.Hydrate("not-an-address", []byte("junk"))
	ns.Hydrate("", []byte("junk"))

	addr := mustAddr(t, "C0:FF:EE:00:00:01 (random)")
	if err := ns.Upsert(addr, "Laptop"); err != nil {
		t.Errorf("Expected table untouched by bad records, Upsert failed: %v", err)
	}
}

func TestNameStore_HydrateIsIdempotent(t *testing.T) {
	store := settings.NewMemStore()
	seed := NewNameStore(3, store)
	a := mustAddr(t, "C0:FF:EE:00:00:01 (random)")
	b := mustAddr(t, "C0:FF:EE:00:00:02 (public)")
	if err := seed.Upsert(a, "Laptop"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := seed.Upsert(b, "Phone"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	ns := NewNameStore(3, store)
	if err := ns.HydrateAll(); err != nil {
		t.Fatalf("first replay failed: %v", err)
	}
	if err := ns.HydrateAll(); err != nil {
		t.Fatalf("second replay failed: %v", err)
	}

	if name := ns.Lookup(a); name != "Laptop" {
		t.Errorf("Expected %q after double replay, got %q", "Laptop", name)
	}
	if name := ns.Lookup(b); name != "Phone" {
		t.Errorf("Expected %q after double replay, got %q", "Phone", name)
	}

	// Double replay must not consume extra slots: a third address fits.
	c := mustAddr(t, "C0:FF:EE:00:00:03 (random)")
	if err := ns.Upsert(c, "Tablet"); err != nil {
		t.Errorf("Expected a free slot after double replay: %v", err)
	}
}

func TestNameStore_HydrateOverCapacity(t *testing.T) {
	store := settings.NewMemStore()
	for i := 0; i < 4; i++ {
		key := mustAddr(t, "C0:FF:EE:00:00:0"+string(rune('1'+i))+" (random)").String()
		if err := store.Save(key, []byte("dev")); err != nil {
			t.Fatalf("seed save failed: %v", err)
		}
	}

	// More persisted addresses than slots: extras are skipped, not fatal.
	ns := NewNameStore(2, store)
	if err := ns.HydrateAll(); err != nil {
		t.Fatalf("HydrateAll failed: %v", err)
	}
}
