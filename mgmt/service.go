package mgmt

import (
	"github.com/user/aurakey-ble/ble"
	"github.com/user/aurakey-ble/logger"
	"github.com/user/aurakey-ble/protocol"
)

// Service implements the six profile management operations on top of the
// wireless stack and the name store. Handlers never return Go errors for
// the failures the protocol models — invalid indexes, a full name table and
// failed stack calls all surface as success=false in the specific response.
type Service struct {
	stack ble.Stack
	names *NameStore
	role  ble.SplitRole
	count int
}

// NewService wires the handlers. The profile count is taken from the name
// store's capacity, which matches the stack's slot table by construction.
func NewService(stack ble.Stack, names *NameStore, role ble.SplitRole) *Service {
	return &Service{
		stack: stack,
		names: names,
		role:  role,
		count: names.Capacity(),
	}
}

// GetProfiles assembles the profile table: per-slot stack state joined with
// the name store. Pure read, cannot fail.
func (s *Service) GetProfiles(req *protocol.GetProfilesRequest) (*protocol.GetProfilesResponse, error) {
	resp := &protocol.GetProfilesResponse{
		MaxProfiles: uint32(s.count),
		Profiles:    make([]*protocol.ProfileInfo, 0, s.count),
	}

	active := s.stack.ActiveProfileIndex()
	for i := 0; i < s.count; i++ {
		info := &protocol.ProfileInfo{
			Index:       uint32(i),
			IsOpen:      s.stack.ProfileIsOpen(i),
			IsConnected: s.stack.ProfileIsConnected(i),
			IsActive:    i == active,
		}
		if addr := s.stack.ProfileAddress(i); !addr.IsNone() {
			info.Address = addr.String()
			info.Name = s.names.Lookup(addr)
		}
		resp.Profiles = append(resp.Profiles, info)
	}
	return resp, nil
}

// SetProfileName stores a display name for the device paired on a slot.
// Fails (success=false) on an out-of-range index, an open slot, a full name
// table, or a durable write error.
func (s *Service) SetProfileName(req *protocol.SetProfileNameRequest) (*protocol.SetProfileNameResponse, error) {
	resp := &protocol.SetProfileNameResponse{}

	if int(req.Index) >= s.count {
		logger.Warn("mgmt", "set name: invalid profile index %d", req.Index)
		return resp, nil
	}
	addr := s.stack.ProfileAddress(int(req.Index))
	if addr.IsNone() {
		logger.Warn("mgmt", "set name: profile %d has no address", req.Index)
		return resp, nil
	}

	resp.Success = s.names.Upsert(addr, req.Name) == nil
	return resp, nil
}

// SwitchProfile selects a slot as the active profile. An out-of-range index
// fails without touching the stack.
func (s *Service) SwitchProfile(req *protocol.SwitchProfileRequest) (*protocol.SwitchProfileResponse, error) {
	resp := &protocol.SwitchProfileResponse{}

	if int(req.Index) >= s.count {
		logger.Warn("mgmt", "switch: invalid profile index %d", req.Index)
		return resp, nil
	}

	err := s.stack.SelectProfile(int(req.Index))
	if err != nil {
		logger.Warn("mgmt", "switch to %d failed: %v", req.Index, err)
	}
	resp.Success = err == nil
	return resp, nil
}

// UnpairProfile drops a slot's pairing. The slot's name entry is cleared
// first, so the name is gone even when the stack call then fails.
func (s *Service) UnpairProfile(req *protocol.UnpairProfileRequest) (*protocol.UnpairProfileResponse, error) {
	resp := &protocol.UnpairProfileResponse{}

	if int(req.Index) >= s.count {
		logger.Warn("mgmt", "unpair: invalid profile index %d", req.Index)
		return resp, nil
	}

	if addr := s.stack.ProfileAddress(int(req.Index)); !addr.IsNone() {
		s.names.Remove(addr)
	}

	err := s.stack.DisconnectProfile(int(req.Index))
	if err != nil {
		logger.Warn("mgmt", "unpair %d failed: %v", req.Index, err)
	}
	resp.Success = err == nil
	return resp, nil
}

// GetSplitInfo reports the split keyboard view. On a central half the
// peripheral connection and bond fields read false: the stack exposes no
// query for them yet, and a fixed known value beats a fabricated status.
func (s *Service) GetSplitInfo(req *protocol.GetSplitInfoRequest) (*protocol.GetSplitInfoResponse, error) {
	info := &protocol.SplitInfo{}

	switch {
	case s.role.Split && s.role.Central:
		info.IsSplit = true
		info.IsCentral = true
	case s.role.Split && s.role.Peripheral:
		info.IsSplit = true
		info.IsPeripheral = true
		info.CentralBonded = s.stack.PeripheralIsBonded()
	}

	return &protocol.GetSplitInfoResponse{Info: info}, nil
}

// ForgetSplitBond clears every stored bond to reset the inter-half
// connection. The clear primitive reports no failure, so success is
// unconditional on a split build; a non-split build refuses.
func (s *Service) ForgetSplitBond(req *protocol.ForgetSplitBondRequest) (*protocol.ForgetSplitBondResponse, error) {
	resp := &protocol.ForgetSplitBondResponse{}

	if !s.role.Split {
		logger.Warn("mgmt", "forget split bond: not a split keyboard")
		return resp, nil
	}

	s.stack.ClearAllBonds()
	resp.Success = true
	return resp, nil
}
