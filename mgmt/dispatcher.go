package mgmt

import (
	"fmt"

	"github.com/user/aurakey-ble/logger"
	"github.com/user/aurakey-ble/protocol"
)

// Handlers is the set of operations the dispatcher routes to. Service is
// the production implementation; tests substitute stubs to drive the
// internal-failure path.
type Handlers interface {
	GetProfiles(*protocol.GetProfilesRequest) (*protocol.GetProfilesResponse, error)
	SetProfileName(*protocol.SetProfileNameRequest) (*protocol.SetProfileNameResponse, error)
	SwitchProfile(*protocol.SwitchProfileRequest) (*protocol.SwitchProfileResponse, error)
	UnpairProfile(*protocol.UnpairProfileRequest) (*protocol.UnpairProfileResponse, error)
	GetSplitInfo(*protocol.GetSplitInfoRequest) (*protocol.GetSplitInfoResponse, error)
	ForgetSplitBond(*protocol.ForgetSplitBondRequest) (*protocol.ForgetSplitBondResponse, error)
}

// Dispatcher decodes a request, routes it to exactly one handler, and
// encodes exactly one response. It holds no state between calls.
type Dispatcher struct {
	handlers Handlers
	prefix   string
}

// NewDispatcher creates a dispatcher over the given handlers.
func NewDispatcher(handlers Handlers) *Dispatcher {
	return &Dispatcher{handlers: handlers, prefix: "dispatch"}
}

// Handle processes one encoded request and returns one encoded response.
// Malformed bytes and unknown variants produce an ErrorResponse without a
// handler being invoked; a handler's internal error is replaced by a
// generic ErrorResponse naming the failure.
func (d *Dispatcher) Handle(reqBytes []byte) []byte {
	var req protocol.Request
	if err := req.Unmarshal(reqBytes); err != nil {
		logger.Warn(d.prefix, "failed to decode request: %v", err)
		return errorResponse("failed to decode request")
	}

	logger.DebugJSON(d.prefix, fmt.Sprintf("request %s", req.Variant()), &req)

	resp := &protocol.Response{}
	var err error
	switch {
	case req.GetProfiles != nil:
		resp.GetProfiles, err = d.handlers.GetProfiles(req.GetProfiles)
	case req.SetProfileName != nil:
		resp.SetProfileName, err = d.handlers.SetProfileName(req.SetProfileName)
	case req.SwitchProfile != nil:
		resp.SwitchProfile, err = d.handlers.SwitchProfile(req.SwitchProfile)
	case req.UnpairProfile != nil:
		resp.UnpairProfile, err = d.handlers.UnpairProfile(req.UnpairProfile)
	case req.GetSplitInfo != nil:
		resp.GetSplitInfo, err = d.handlers.GetSplitInfo(req.GetSplitInfo)
	case req.ForgetSplitBond != nil:
		resp.ForgetSplitBond, err = d.handlers.ForgetSplitBond(req.ForgetSplitBond)
	default:
		logger.Warn(d.prefix, "unsupported request variant")
		return errorResponse("unsupported request")
	}

	if err != nil {
		logger.Warn(d.prefix, "handler %s failed: %v", req.Variant(), err)
		return errorResponse(fmt.Sprintf("failed to process request: %v", err))
	}

	return resp.Marshal()
}

func errorResponse(message string) []byte {
	resp := &protocol.Response{Error: &protocol.ErrorResponse{Message: message}}
	return resp.Marshal()
}
