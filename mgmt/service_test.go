package mgmt

import (
	"errors"
	"testing"

	"github.com/user/aurakey-ble/ble"
	"github.com/user/aurakey-ble/protocol"
	"github.com/user/aurakey-ble/settings"
)

// fakeStack is a call-counting wireless stack double.
type fakeStack struct {
	addrs     []ble.Address
	connected []bool
	active    int
	bonded    bool

	selectErr     error
	disconnectErr error

	selectCalls     int
	disconnectCalls int
	clearCalls      int
}

func newFakeStack(capacity int) *fakeStack {
	return &fakeStack{
		addrs:     make([]ble.Address, capacity),
		connected: make([]bool, capacity),
	}
}

func (f *fakeStack) pair(i int, t *testing.T, s string) {
	t.Helper()
	f.addrs[i] = mustAddr(t, s)
	f.connected[i] = true
}

func (f *fakeStack) ActiveProfileIndex() int { return f.active }

func (f *fakeStack) ProfileIsOpen(i int) bool { return f.addrs[i].IsNone() }

func (f *fakeStack) ProfileIsConnected(i int) bool { return f.connected[i] }

func (f *fakeStack) ProfileAddress(i int) ble.Address { return f.addrs[i] }

func (f *fakeStack) SelectProfile(i int) error {
	f.selectCalls++
	if f.selectErr != nil {
		return f.selectErr
	}
	f.active = i
	return nil
}

func (f *fakeStack) DisconnectProfile(i int) error {
	f.disconnectCalls++
	if f.disconnectErr != nil {
		return f.disconnectErr
	}
	f.addrs[i] = ble.AddressNone
	f.connected[i] = false
	return nil
}

func (f *fakeStack) ClearAllBonds() {
	f.clearCalls++
	for i := range f.addrs {
		f.addrs[i] = ble.AddressNone
		f.connected[i] = false
	}
	f.bonded = false
}

func (f *fakeStack) PeripheralIsBonded() bool { return f.bonded }

func newTestService(stack ble.Stack, capacity int, role ble.SplitRole) (*Service, *settings.MemStore) {
	store := settings.NewMemStore()
	names := NewNameStore(capacity, store)
	return NewService(stack, names, role), store
}

func TestService_GetProfilesFreshBoot(t *testing.T) {
	stack := newFakeStack(5)
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.GetProfiles(&protocol.GetProfilesRequest{})
	if err != nil {
		t.Fatalf("GetProfiles failed: %v", err)
	}

	if resp.MaxProfiles != 5 {
		t.Errorf("Expected max_profiles=5, got %d", resp.MaxProfiles)
	}
	if len(resp.Profiles) != 5 {
		t.Fatalf("Expected 5 profiles, got %d", len(resp.Profiles))
	}
	for i, p := range resp.Profiles {
		if p.Index != uint32(i) {
			t.Errorf("profile %d: wrong index %d", i, p.Index)
		}
		if !p.IsOpen {
			t.Errorf("profile %d: expected open on fresh boot", i)
		}
		if p.Name != "" || p.Address != "" {
			t.Errorf("profile %d: expected empty address/name, got %q/%q", i, p.Address, p.Name)
		}
	}
	if !resp.Profiles[0].IsActive {
		t.Errorf("Expected profile 0 active by default")
	}
}

func TestService_RenameThenList(t *testing.T) {
	stack := newFakeStack(5)
	stack.pair(2, t, "C0:FF:EE:00:00:01 (random)")
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	rename, err := svc.SetProfileName(&protocol.SetProfileNameRequest{Index: 2, Name: "Laptop"})
	if err != nil {
		t.Fatalf("SetProfileName failed: %v", err)
	}
	if !rename.Success {
		t.Fatalf("Expected rename to succeed")
	}

	list, err := svc.GetProfiles(&protocol.GetProfilesRequest{})
	if err != nil {
		t.Fatalf("GetProfiles failed: %v", err)
	}
	p := list.Profiles[2]
	if p.Name != "Laptop" {
		t.Errorf("Expected slot 2 name %q, got %q", "Laptop", p.Name)
	}
	if p.Address != "C0:FF:EE:00:00:01 (random)" {
		t.Errorf("Expected canonical address string, got %q", p.Address)
	}
	if p.IsOpen {
		t.Errorf("Expected slot 2 not open after pairing")
	}
}

func TestService_RenameInvalidIndex(t *testing.T) {
	stack := newFakeStack(5)
	svc, store := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.SetProfileName(&protocol.SetProfileNameRequest{Index: 7, Name: "x"})
	if err != nil {
		t.Fatalf("SetProfileName failed: %v", err)
	}
	if resp.Success {
		t.Errorf("Expected success=false for out-of-range index")
	}
	if store.Len() != 0 {
		t.Errorf("Expected no durable write for invalid index, found %d records", store.Len())
	}
}

func TestService_RenameOpenSlot(t *testing.T) {
	stack := newFakeStack(5)
	svc, store := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.SetProfileName(&protocol.SetProfileNameRequest{Index: 1, Name: "Ghost"})
	if err != nil {
		t.Fatalf("SetProfileName failed: %v", err)
	}
	if resp.Success {
		t.Errorf("Expected success=false for slot with no address")
	}
	if store.Len() != 0 {
		t.Errorf("Expected no durable write for open slot")
	}
}

func TestService_SwitchProfile(t *testing.T) {
	stack := newFakeStack(5)
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.SwitchProfile(&protocol.SwitchProfileRequest{Index: 3})
	if err != nil {
		t.Fatalf("SwitchProfile failed: %v", err)
	}
	if !resp.Success {
		t.Errorf("Expected switch to succeed")
	}
	if stack.active != 3 {
		t.Errorf("Expected active profile 3, got %d", stack.active)
	}
}

func TestService_SwitchProfileOutOfRangeSkipsStack(t *testing.T) {
	stack := newFakeStack(5)
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.SwitchProfile(&protocol.SwitchProfileRequest{Index: 5})
	if err != nil {
		t.Fatalf("SwitchProfile failed: %v", err)
	}
	if resp.Success {
		t.Errorf("Expected success=false for out-of-range index")
	}
	if stack.selectCalls != 0 {
		t.Errorf("Expected zero stack calls for invalid index, got %d", stack.selectCalls)
	}
}

func TestService_SwitchProfileStackFailure(t *testing.T) {
	stack := newFakeStack(5)
	stack.selectErr = errors.New("radio busy")
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.SwitchProfile(&protocol.SwitchProfileRequest{Index: 1})
	if err != nil {
		t.Fatalf("SwitchProfile failed: %v", err)
	}
	if resp.Success {
		t.Errorf("Expected stack failure mirrored as success=false")
	}
	if stack.selectCalls != 1 {
		t.Errorf("Expected one stack call, got %d", stack.selectCalls)
	}
}

func TestService_UnpairClearsNameEvenWhenStackFails(t *testing.T) {
	stack := newFakeStack(5)
	stack.pair(2, t, "C0:FF:EE:00:00:01 (random)")
	stack.disconnectErr = errors.New("link loss")
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	if resp, _ := svc.SetProfileName(&protocol.SetProfileNameRequest{Index: 2, Name: "Laptop"}); !resp.Success {
		t.Fatalf("rename setup failed")
	}

	resp, err := svc.UnpairProfile(&protocol.UnpairProfileRequest{Index: 2})
	if err != nil {
		t.Fatalf("UnpairProfile failed: %v", err)
	}
	if resp.Success {
		t.Errorf("Expected stack failure mirrored as success=false")
	}
	if stack.disconnectCalls != 1 {
		t.Errorf("Expected one disconnect call, got %d", stack.disconnectCalls)
	}

	// The name entry goes before the stack call, so it is gone regardless
	// of the unpair outcome.
	list, _ := svc.GetProfiles(&protocol.GetProfilesRequest{})
	if list.Profiles[2].Name != "" {
		t.Errorf("Expected slot 2 name cleared, got %q", list.Profiles[2].Name)
	}
}

func TestService_UnpairInvalidIndex(t *testing.T) {
	stack := newFakeStack(5)
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.UnpairProfile(&protocol.UnpairProfileRequest{Index: 9})
	if err != nil {
		t.Fatalf("UnpairProfile failed: %v", err)
	}
	if resp.Success {
		t.Errorf("Expected success=false for out-of-range index")
	}
	if stack.disconnectCalls != 0 {
		t.Errorf("Expected zero stack calls for invalid index, got %d", stack.disconnectCalls)
	}
}

func TestService_GetSplitInfoStandalone(t *testing.T) {
	svc, _ := newTestService(newFakeStack(5), 5, ble.RoleStandalone)

	resp, err := svc.GetSplitInfo(&protocol.GetSplitInfoRequest{})
	if err != nil {
		t.Fatalf("GetSplitInfo failed: %v", err)
	}
	info := resp.Info
	if info.IsSplit || info.IsCentral || info.IsPeripheral || info.PeripheralConnected || info.CentralBonded {
		t.Errorf("Expected all-false split info for standalone build, got %+v", info)
	}
}

func TestService_GetSplitInfoCentralPlaceholders(t *testing.T) {
	stack := newFakeStack(5)
	stack.bonded = true // must NOT leak into central-role fields
	svc, _ := newTestService(stack, 5, ble.RoleCentral)

	resp, err := svc.GetSplitInfo(&protocol.GetSplitInfoRequest{})
	if err != nil {
		t.Fatalf("GetSplitInfo failed: %v", err)
	}
	info := resp.Info
	if !info.IsSplit || !info.IsCentral || info.IsPeripheral {
		t.Errorf("Expected central split flags, got %+v", info)
	}
	// Central-role peripheral fields are fixed false placeholders.
	if info.PeripheralConnected || info.CentralBonded {
		t.Errorf("Expected placeholder false fields on central, got %+v", info)
	}
}

func TestService_GetSplitInfoPeripheral(t *testing.T) {
	stack := newFakeStack(5)
	stack.bonded = true
	svc, _ := newTestService(stack, 5, ble.RolePeripheral)

	resp, err := svc.GetSplitInfo(&protocol.GetSplitInfoRequest{})
	if err != nil {
		t.Fatalf("GetSplitInfo failed: %v", err)
	}
	info := resp.Info
	if !info.IsSplit || info.IsCentral || !info.IsPeripheral {
		t.Errorf("Expected peripheral split flags, got %+v", info)
	}
	if !info.CentralBonded {
		t.Errorf("Expected central_bonded from the stack's bond query")
	}
	if info.PeripheralConnected {
		t.Errorf("Expected peripheral_connected to stay false")
	}
}

func TestService_ForgetSplitBond(t *testing.T) {
	stack := newFakeStack(5)
	svc, _ := newTestService(stack, 5, ble.RoleCentral)

	resp, err := svc.ForgetSplitBond(&protocol.ForgetSplitBondRequest{})
	if err != nil {
		t.Fatalf("ForgetSplitBond failed: %v", err)
	}
	if !resp.Success {
		t.Errorf("Expected unconditional success on a split build")
	}
	if stack.clearCalls != 1 {
		t.Errorf("Expected one clear-bonds call, got %d", stack.clearCalls)
	}
}

func TestService_ForgetSplitBondNonSplit(t *testing.T) {
	stack := newFakeStack(5)
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	resp, err := svc.ForgetSplitBond(&protocol.ForgetSplitBondRequest{})
	if err != nil {
		t.Fatalf("ForgetSplitBond failed: %v", err)
	}
	if resp.Success {
		t.Errorf("Expected success=false on a non-split build")
	}
	if stack.clearCalls != 0 {
		t.Errorf("Expected no clear-bonds call on a non-split build, got %d", stack.clearCalls)
	}
}

// Full lifecycle: pair, rename, list, unpair, list.
func TestService_ProfileLifecycle(t *testing.T) {
	stack := newFakeStack(5)
	svc, _ := newTestService(stack, 5, ble.RoleStandalone)

	stack.pair(2, t, "C0:FF:EE:00:00:0A (random)")

	rename, _ := svc.SetProfileName(&protocol.SetProfileNameRequest{Index: 2, Name: "Laptop"})
	if !rename.Success {
		t.Fatalf("Expected rename to succeed")
	}

	list, _ := svc.GetProfiles(&protocol.GetProfilesRequest{})
	if list.Profiles[2].Name != "Laptop" {
		t.Fatalf("Expected slot 2 named, got %q", list.Profiles[2].Name)
	}

	unpair, _ := svc.UnpairProfile(&protocol.UnpairProfileRequest{Index: 2})
	if !unpair.Success {
		t.Fatalf("Expected unpair to succeed")
	}

	list, _ = svc.GetProfiles(&protocol.GetProfilesRequest{})
	p := list.Profiles[2]
	if p.Name != "" || p.Address != "" || !p.IsOpen {
		t.Errorf("Expected slot 2 back to open/empty, got %+v", p)
	}
}
