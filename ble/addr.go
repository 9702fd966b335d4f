package ble

import (
	"fmt"
	"strconv"
	"strings"
)

// AddressType distinguishes public device addresses from random ones.
type AddressType uint8

const (
	AddressPublic AddressType = iota
	AddressRandom
)

func (t AddressType) String() string {
	if t == AddressRandom {
		return "random"
	}
	return "public"
}

// Address identifies a paired remote device: a 6-byte MAC plus an address
// type. The zero value is not a valid address; use AddressNone for "no
// device" (an empty profile slot).
type Address struct {
	MAC  [6]byte
	Type AddressType
}

// AddressNone is the sentinel for an empty profile slot.
var AddressNone = Address{}

// IsNone reports whether this is the empty-slot sentinel.
func (a Address) IsNone() bool {
	return a == AddressNone
}

// String returns the canonical textual form, e.g.
// "C0:FF:EE:00:12:34 (random)". This form is also used as the durable
// storage key for profile names.
func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X (%s)",
		a.MAC[0], a.MAC[1], a.MAC[2], a.MAC[3], a.MAC[4], a.MAC[5], a.Type)
}

// ParseAddress parses either the canonical suffixed form
// ("XX:XX:XX:XX:XX:XX (random)") or a bare MAC ("XX:XX:XX:XX:XX:XX").
// A bare MAC is tried as random first, then public — the same two-parse
// fallback the firmware applies when replaying stored keys.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)

	typ := AddressRandom
	if i := strings.IndexByte(s, ' '); i >= 0 {
		suffix := strings.Trim(s[i+1:], "()")
		switch suffix {
		case "random":
			typ = AddressRandom
		case "public":
			typ = AddressPublic
		default:
			return AddressNone, fmt.Errorf("unknown address type %q", suffix)
		}
		s = s[:i]
	}

	mac, err := parseMAC(s)
	if err != nil {
		return AddressNone, err
	}

	return Address{MAC: mac, Type: typ}, nil
}

func parseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return mac, fmt.Errorf("malformed MAC %q", s)
	}
	for i, p := range parts {
		if len(p) != 2 {
			return mac, fmt.Errorf("malformed MAC octet %q in %q", p, s)
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return mac, fmt.Errorf("malformed MAC octet %q in %q", p, s)
		}
		mac[i] = byte(b)
	}
	return mac, nil
}
