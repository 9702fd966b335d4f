package protocol

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers inside the leaf messages. Index/success/message are field 1
// everywhere they appear; only ProfileInfo, GetProfilesResponse, SplitInfo
// and SetProfileNameRequest carry more than one field.
const (
	infoIndex       = 1
	infoIsOpen      = 2
	infoIsConnected = 3
	infoIsActive    = 4
	infoAddress     = 5
	infoName        = 6

	profilesMax  = 1
	profilesList = 2

	splitIsSplit             = 1
	splitIsCentral           = 2
	splitIsPeripheral        = 3
	splitPeripheralConnected = 4
	splitCentralBonded       = 5

	setNameIndex = 1
	setNameName  = 2
)

// appendBool emits a varint bool field, skipping the proto3 default.
func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

// appendUint emits a varint field, skipping the proto3 default.
func appendUint(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

// appendString emits a length-delimited string field, skipping the default.
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendMessage emits a length-delimited sub-message field. Unlike scalar
// fields, a present-but-empty sub-message is still emitted: presence is what
// discriminates the union variants.
func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

// walkFields iterates the fields of an encoded message, calling fn with the
// raw bytes of each length-delimited field or the varint bytes re-sliced for
// scalar fields. Unknown fields are skipped, protobuf-style.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		consumed, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if consumed == 0 {
			consumed = protowire.ConsumeFieldValue(num, typ, b)
			if consumed < 0 {
				return protowire.ParseError(consumed)
			}
		}
		b = b[consumed:]
	}
	return nil
}

func consumeBool(b []byte, dst *bool) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = v != 0
	return n, nil
}

func consumeUint(b []byte, dst *uint32) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = uint32(v)
	return n, nil
}

func consumeString(b []byte, dst *string) (int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = string(v)
	return n, nil
}

func consumeBytes(b []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

// --- leaf message bodies ---

func (m *SetProfileNameRequest) appendTo(b []byte) []byte {
	b = appendUint(b, setNameIndex, m.Index)
	b = appendString(b, setNameName, m.Name)
	return b
}

func (m *SetProfileNameRequest) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == setNameIndex && typ == protowire.VarintType:
			return consumeUint(b, &m.Index)
		case num == setNameName && typ == protowire.BytesType:
			return consumeString(b, &m.Name)
		}
		return 0, nil
	})
}

func appendIndexOnly(b []byte, index uint32) []byte {
	return appendUint(b, 1, index)
}

func unmarshalIndexOnly(b []byte, dst *uint32) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			return consumeUint(b, dst)
		}
		return 0, nil
	})
}

func appendSuccessOnly(b []byte, success bool) []byte {
	return appendBool(b, 1, success)
}

func unmarshalSuccessOnly(b []byte, dst *bool) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			return consumeBool(b, dst)
		}
		return 0, nil
	})
}

func (m *ProfileInfo) appendTo(b []byte) []byte {
	b = appendUint(b, infoIndex, m.Index)
	b = appendBool(b, infoIsOpen, m.IsOpen)
	b = appendBool(b, infoIsConnected, m.IsConnected)
	b = appendBool(b, infoIsActive, m.IsActive)
	b = appendString(b, infoAddress, m.Address)
	b = appendString(b, infoName, m.Name)
	return b
}

func (m *ProfileInfo) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == infoIndex && typ == protowire.VarintType:
			return consumeUint(b, &m.Index)
		case num == infoIsOpen && typ == protowire.VarintType:
			return consumeBool(b, &m.IsOpen)
		case num == infoIsConnected && typ == protowire.VarintType:
			return consumeBool(b, &m.IsConnected)
		case num == infoIsActive && typ == protowire.VarintType:
			return consumeBool(b, &m.IsActive)
		case num == infoAddress && typ == protowire.BytesType:
			return consumeString(b, &m.Address)
		case num == infoName && typ == protowire.BytesType:
			return consumeString(b, &m.Name)
		}
		return 0, nil
	})
}

func (m *GetProfilesResponse) appendTo(b []byte) []byte {
	b = appendUint(b, profilesMax, m.MaxProfiles)
	for _, p := range m.Profiles {
		b = appendMessage(b, profilesList, p.appendTo(nil))
	}
	return b
}

func (m *GetProfilesResponse) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == profilesMax && typ == protowire.VarintType:
			return consumeUint(b, &m.MaxProfiles)
		case num == profilesList && typ == protowire.BytesType:
			body, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p := &ProfileInfo{}
			if err := p.unmarshal(body); err != nil {
				return 0, err
			}
			m.Profiles = append(m.Profiles, p)
			return n, nil
		}
		return 0, nil
	})
}

func (m *SplitInfo) appendTo(b []byte) []byte {
	b = appendBool(b, splitIsSplit, m.IsSplit)
	b = appendBool(b, splitIsCentral, m.IsCentral)
	b = appendBool(b, splitIsPeripheral, m.IsPeripheral)
	b = appendBool(b, splitPeripheralConnected, m.PeripheralConnected)
	b = appendBool(b, splitCentralBonded, m.CentralBonded)
	return b
}

func (m *SplitInfo) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return 0, nil
		}
		switch num {
		case splitIsSplit:
			return consumeBool(b, &m.IsSplit)
		case splitIsCentral:
			return consumeBool(b, &m.IsCentral)
		case splitIsPeripheral:
			return consumeBool(b, &m.IsPeripheral)
		case splitPeripheralConnected:
			return consumeBool(b, &m.PeripheralConnected)
		case splitCentralBonded:
			return consumeBool(b, &m.CentralBonded)
		}
		return 0, nil
	})
}

func (m *GetSplitInfoResponse) appendTo(b []byte) []byte {
	if m.Info != nil {
		b = appendMessage(b, 1, m.Info.appendTo(nil))
	}
	return b
}

func (m *GetSplitInfoResponse) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			body, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			info := &SplitInfo{}
			if err := info.unmarshal(body); err != nil {
				return 0, err
			}
			m.Info = info
			return n, nil
		}
		return 0, nil
	})
}

func (m *ErrorResponse) appendTo(b []byte) []byte {
	return appendString(b, 1, m.Message)
}

func (m *ErrorResponse) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			return consumeString(b, &m.Message)
		}
		return 0, nil
	})
}

// --- Request union ---

// Marshal encodes the request. A Request with no populated variant encodes
// to zero bytes.
func (m *Request) Marshal() []byte {
	var b []byte
	switch {
	case m.GetProfiles != nil:
		b = appendMessage(b, fieldGetProfiles, nil)
	case m.SetProfileName != nil:
		b = appendMessage(b, fieldSetProfileName, m.SetProfileName.appendTo(nil))
	case m.SwitchProfile != nil:
		b = appendMessage(b, fieldSwitchProfile, appendIndexOnly(nil, m.SwitchProfile.Index))
	case m.UnpairProfile != nil:
		b = appendMessage(b, fieldUnpairProfile, appendIndexOnly(nil, m.UnpairProfile.Index))
	case m.GetSplitInfo != nil:
		b = appendMessage(b, fieldGetSplitInfo, nil)
	case m.ForgetSplitBond != nil:
		b = appendMessage(b, fieldForgetSplitBond, nil)
	}
	return b
}

// Unmarshal decodes a request, protobuf last-one-wins across variants.
func (m *Request) Unmarshal(data []byte) error {
	*m = Request{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return 0, nil
		}
		body, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		switch num {
		case fieldGetProfiles:
			*m = Request{GetProfiles: &GetProfilesRequest{}}
		case fieldSetProfileName:
			req := &SetProfileNameRequest{}
			if err := req.unmarshal(body); err != nil {
				return 0, err
			}
			*m = Request{SetProfileName: req}
		case fieldSwitchProfile:
			req := &SwitchProfileRequest{}
			if err := unmarshalIndexOnly(body, &req.Index); err != nil {
				return 0, err
			}
			*m = Request{SwitchProfile: req}
		case fieldUnpairProfile:
			req := &UnpairProfileRequest{}
			if err := unmarshalIndexOnly(body, &req.Index); err != nil {
				return 0, err
			}
			*m = Request{UnpairProfile: req}
		case fieldGetSplitInfo:
			*m = Request{GetSplitInfo: &GetSplitInfoRequest{}}
		case fieldForgetSplitBond:
			*m = Request{ForgetSplitBond: &ForgetSplitBondRequest{}}
		}
		return n, nil
	})
}

// --- Response union ---

// Marshal encodes the response.
func (m *Response) Marshal() []byte {
	var b []byte
	switch {
	case m.GetProfiles != nil:
		b = appendMessage(b, fieldGetProfiles, m.GetProfiles.appendTo(nil))
	case m.SetProfileName != nil:
		b = appendMessage(b, fieldSetProfileName, appendSuccessOnly(nil, m.SetProfileName.Success))
	case m.SwitchProfile != nil:
		b = appendMessage(b, fieldSwitchProfile, appendSuccessOnly(nil, m.SwitchProfile.Success))
	case m.UnpairProfile != nil:
		b = appendMessage(b, fieldUnpairProfile, appendSuccessOnly(nil, m.UnpairProfile.Success))
	case m.GetSplitInfo != nil:
		b = appendMessage(b, fieldGetSplitInfo, m.GetSplitInfo.appendTo(nil))
	case m.ForgetSplitBond != nil:
		b = appendMessage(b, fieldForgetSplitBond, appendSuccessOnly(nil, m.ForgetSplitBond.Success))
	case m.Error != nil:
		b = appendMessage(b, fieldError, m.Error.appendTo(nil))
	}
	return b
}

// Unmarshal decodes a response.
func (m *Response) Unmarshal(data []byte) error {
	*m = Response{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return 0, nil
		}
		body, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		switch num {
		case fieldGetProfiles:
			resp := &GetProfilesResponse{}
			if err := resp.unmarshal(body); err != nil {
				return 0, err
			}
			*m = Response{GetProfiles: resp}
		case fieldSetProfileName:
			resp := &SetProfileNameResponse{}
			if err := unmarshalSuccessOnly(body, &resp.Success); err != nil {
				return 0, err
			}
			*m = Response{SetProfileName: resp}
		case fieldSwitchProfile:
			resp := &SwitchProfileResponse{}
			if err := unmarshalSuccessOnly(body, &resp.Success); err != nil {
				return 0, err
			}
			*m = Response{SwitchProfile: resp}
		case fieldUnpairProfile:
			resp := &UnpairProfileResponse{}
			if err := unmarshalSuccessOnly(body, &resp.Success); err != nil {
				return 0, err
			}
			*m = Response{UnpairProfile: resp}
		case fieldGetSplitInfo:
			resp := &GetSplitInfoResponse{}
			if err := resp.unmarshal(body); err != nil {
				return 0, err
			}
			*m = Response{GetSplitInfo: resp}
		case fieldForgetSplitBond:
			resp := &ForgetSplitBondResponse{}
			if err := unmarshalSuccessOnly(body, &resp.Success); err != nil {
				return 0, err
			}
			*m = Response{ForgetSplitBond: resp}
		case fieldError:
			resp := &ErrorResponse{}
			if err := resp.unmarshal(body); err != nil {
				return 0, err
			}
			*m = Response{Error: resp}
		}
		return n, nil
	})
}

// Variant returns a short name for the populated request variant, or "" for
// an empty union. Used for logging and the unsupported-tag error path.
func (m *Request) Variant() string {
	switch {
	case m.GetProfiles != nil:
		return "get_profiles"
	case m.SetProfileName != nil:
		return "set_profile_name"
	case m.SwitchProfile != nil:
		return "switch_profile"
	case m.UnpairProfile != nil:
		return "unpair_profile"
	case m.GetSplitInfo != nil:
		return "get_split_info"
	case m.ForgetSplitBond != nil:
		return "forget_split_bond"
	}
	return ""
}
