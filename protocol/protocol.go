// Package protocol defines the profile management RPC messages and their
// protobuf wire encoding.
//
// Request and Response are tagged unions: exactly one variant field is
// populated per message. The encoding is standard protobuf, built directly
// on protowire so the repo carries no code generation step; field numbers
// are part of the device protocol and must not change.
package protocol

// Request oneof field numbers.
const (
	fieldGetProfiles     = 1
	fieldSetProfileName  = 2
	fieldSwitchProfile   = 3
	fieldUnpairProfile   = 4
	fieldGetSplitInfo    = 5
	fieldForgetSplitBond = 6

	// Response-only variant.
	fieldError = 7
)

// GetProfilesRequest asks for the full profile table.
type GetProfilesRequest struct{}

// SetProfileNameRequest assigns a display name to the device currently
// paired on a profile slot.
type SetProfileNameRequest struct {
	Index uint32 `json:"index"`
	Name  string `json:"name"`
}

// SwitchProfileRequest makes a slot the active profile.
type SwitchProfileRequest struct {
	Index uint32 `json:"index"`
}

// UnpairProfileRequest disconnects and unpairs a slot.
type UnpairProfileRequest struct {
	Index uint32 `json:"index"`
}

// GetSplitInfoRequest asks for split keyboard state.
type GetSplitInfoRequest struct{}

// ForgetSplitBondRequest clears all bonds to reset the split connection.
type ForgetSplitBondRequest struct{}

// Request is the incoming tagged union. At most one variant is non-nil.
type Request struct {
	GetProfiles     *GetProfilesRequest     `json:"get_profiles,omitempty"`
	SetProfileName  *SetProfileNameRequest  `json:"set_profile_name,omitempty"`
	SwitchProfile   *SwitchProfileRequest   `json:"switch_profile,omitempty"`
	UnpairProfile   *UnpairProfileRequest   `json:"unpair_profile,omitempty"`
	GetSplitInfo    *GetSplitInfoRequest    `json:"get_split_info,omitempty"`
	ForgetSplitBond *ForgetSplitBondRequest `json:"forget_split_bond,omitempty"`
}

// ProfileInfo is one row of the profile table.
type ProfileInfo struct {
	Index       uint32 `json:"index"`
	IsOpen      bool   `json:"is_open"`
	IsConnected bool   `json:"is_connected"`
	IsActive    bool   `json:"is_active"`
	Address     string `json:"address,omitempty"`
	Name        string `json:"name,omitempty"`
}

// GetProfilesResponse carries the full profile table.
type GetProfilesResponse struct {
	MaxProfiles uint32         `json:"max_profiles"`
	Profiles    []*ProfileInfo `json:"profiles"`
}

// SetProfileNameResponse reports whether the rename stuck.
type SetProfileNameResponse struct {
	Success bool `json:"success"`
}

// SwitchProfileResponse reports whether the profile switch stuck.
type SwitchProfileResponse struct {
	Success bool `json:"success"`
}

// UnpairProfileResponse reports whether the unpair stuck.
type UnpairProfileResponse struct {
	Success bool `json:"success"`
}

// SplitInfo is the split keyboard view computed per request.
type SplitInfo struct {
	IsSplit             bool `json:"is_split"`
	IsCentral           bool `json:"is_central"`
	IsPeripheral        bool `json:"is_peripheral"`
	PeripheralConnected bool `json:"peripheral_connected"`
	CentralBonded       bool `json:"central_bonded"`
}

// GetSplitInfoResponse wraps SplitInfo.
type GetSplitInfoResponse struct {
	Info *SplitInfo `json:"info"`
}

// ForgetSplitBondResponse reports whether the bond reset ran.
type ForgetSplitBondResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the shared error path: decode failures, unsupported
// request tags, and handler-internal failures.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Response is the outgoing tagged union. Exactly one variant is non-nil.
type Response struct {
	GetProfiles     *GetProfilesResponse     `json:"get_profiles,omitempty"`
	SetProfileName  *SetProfileNameResponse  `json:"set_profile_name,omitempty"`
	SwitchProfile   *SwitchProfileResponse   `json:"switch_profile,omitempty"`
	UnpairProfile   *UnpairProfileResponse   `json:"unpair_profile,omitempty"`
	GetSplitInfo    *GetSplitInfoResponse    `json:"get_split_info,omitempty"`
	ForgetSplitBond *ForgetSplitBondResponse `json:"forget_split_bond,omitempty"`
	Error           *ErrorResponse           `json:"error,omitempty"`
}
