package ble

// Stack is the slice of the wireless stack the profile management
// subsystem consumes. Profile slots are identified by index 0..N-1;
// a slot's address is AddressNone while it is unpaired ("open").
type Stack interface {
	// ActiveProfileIndex returns the index of the currently selected profile.
	ActiveProfileIndex() int

	// ProfileIsOpen reports whether slot i has no paired device.
	ProfileIsOpen(i int) bool

	// ProfileIsConnected reports whether the device paired to slot i is
	// currently connected.
	ProfileIsConnected(i int) bool

	// ProfileAddress returns the address paired to slot i, or AddressNone.
	ProfileAddress(i int) Address

	// SelectProfile makes slot i the active profile.
	SelectProfile(i int) error

	// DisconnectProfile disconnects and unpairs slot i.
	DisconnectProfile(i int) error

	// ClearAllBonds drops every stored bond, including the split bond.
	ClearAllBonds()

	// PeripheralIsBonded reports whether the peripheral half holds a bond
	// to its central. Only meaningful for a split peripheral.
	PeripheralIsBonded() bool
}

// SplitRole describes which half of a split keyboard this firmware image
// is built as. A non-split build has all fields false except Split being
// false too; exactly one of Central/Peripheral is set when Split is true.
type SplitRole struct {
	Split      bool
	Central    bool
	Peripheral bool
}

// RoleStandalone is a non-split keyboard.
var RoleStandalone = SplitRole{}

// RoleCentral is the half that talks to the host and relays the peripheral.
var RoleCentral = SplitRole{Split: true, Central: true}

// RolePeripheral is the half bonded to the central.
var RolePeripheral = SplitRole{Split: true, Peripheral: true}
