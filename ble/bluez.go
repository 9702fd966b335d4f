package ble

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/user/aurakey-ble/logger"
)

const (
	bluezBusName  = "org.bluez"
	adapterPath   = "/org/bluez/hci0"
	adapterIface  = "org.bluez.Adapter1"
	deviceIface   = "org.bluez.Device1"
	propsIface    = "org.freedesktop.DBus.Properties"
	objManagerAPI = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

// BlueZStack adapts the host's BlueZ daemon to the Stack interface so the
// daemon can manage real pairings instead of simulated ones. Profile slots
// map onto the adapter's paired devices in discovery order; slots beyond
// the paired device count read as open.
//
// BlueZ has no notion of a split keyboard's inter-half bond, so
// PeripheralIsBonded always reports false here.
type BlueZStack struct {
	conn *dbus.Conn

	mu     sync.Mutex
	slots  []Address
	active int
}

// NewBlueZStack connects to the system bus and fills the slot table from
// the adapter's currently paired devices.
func NewBlueZStack(capacity int) (*BlueZStack, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}

	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == bluezBusName {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("org.bluez not found on system bus, is bluetooth.service running?")
	}

	s := &BlueZStack{
		conn:  conn,
		slots: make([]Address, capacity),
	}
	if err := s.loadPairedDevices(); err != nil {
		logger.Warn("bluez", "could not enumerate paired devices: %v", err)
	}
	return s, nil
}

// Close releases the bus connection.
func (s *BlueZStack) Close() {
	s.conn.Close()
}

// loadPairedDevices walks the BlueZ object tree and binds paired devices
// to slots in stable (sorted path) order.
func (s *BlueZStack) loadPairedDevices() error {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := s.conn.Object(bluezBusName, "/").Call(objManagerAPI, 0).Store(&objects); err != nil {
		return err
	}

	var paths []string
	for path, ifaces := range objects {
		dev, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		if paired, ok := dev["Paired"].Value().(bool); !ok || !paired {
			continue
		}
		paths = append(paths, string(path))
	}
	sort.Strings(paths)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range paths {
		if i >= len(s.slots) {
			logger.Warn("bluez", "more paired devices than profile slots, ignoring %s", p)
			break
		}
		mac := macFromPath(dbus.ObjectPath(p))
		addr, err := ParseAddress(mac)
		if err != nil {
			logger.Warn("bluez", "skipping device with unparseable path %s: %v", p, err)
			continue
		}
		s.slots[i] = addr
		logger.Debug("bluez", "slot %d <- %s", i, addr)
	}
	return nil
}

// deviceObjectPath converts an address to a BlueZ device object path,
// e.g. "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF".
func deviceObjectPath(addr Address) dbus.ObjectPath {
	mac := fmt.Sprintf("%02X_%02X_%02X_%02X_%02X_%02X",
		addr.MAC[0], addr.MAC[1], addr.MAC[2], addr.MAC[3], addr.MAC[4], addr.MAC[5])
	return dbus.ObjectPath(adapterPath + "/dev_" + mac)
}

// macFromPath extracts a MAC string from a BlueZ device object path.
func macFromPath(path dbus.ObjectPath) string {
	s := string(path)
	prefix := adapterPath + "/dev_"
	if !strings.HasPrefix(s, prefix) {
		return ""
	}
	return strings.ReplaceAll(s[len(prefix):], "_", ":")
}

func (s *BlueZStack) getBool(path dbus.ObjectPath, prop string) bool {
	obj := s.conn.Object(bluezBusName, path)
	var v dbus.Variant
	if err := obj.Call(propsIface+".Get", 0, deviceIface, prop).Store(&v); err != nil {
		return false
	}
	val, _ := v.Value().(bool)
	return val
}

func (s *BlueZStack) slotAddr(i int) Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return AddressNone
	}
	return s.slots[i]
}

func (s *BlueZStack) ActiveProfileIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *BlueZStack) ProfileIsOpen(i int) bool {
	return s.slotAddr(i).IsNone()
}

func (s *BlueZStack) ProfileIsConnected(i int) bool {
	addr := s.slotAddr(i)
	if addr.IsNone() {
		return false
	}
	return s.getBool(deviceObjectPath(addr), "Connected")
}

func (s *BlueZStack) ProfileAddress(i int) Address {
	return s.slotAddr(i)
}

func (s *BlueZStack) SelectProfile(i int) error {
	addr := s.slotAddr(i)
	if addr.IsNone() {
		// An open slot can still be selected; there is just nothing to
		// connect to yet.
		s.mu.Lock()
		s.active = i
		s.mu.Unlock()
		return nil
	}
	obj := s.conn.Object(bluezBusName, deviceObjectPath(addr))
	if err := obj.Call(deviceIface+".Connect", 0).Err; err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	s.mu.Lock()
	s.active = i
	s.mu.Unlock()
	return nil
}

func (s *BlueZStack) DisconnectProfile(i int) error {
	addr := s.slotAddr(i)
	if addr.IsNone() {
		return nil
	}
	obj := s.conn.Object(bluezBusName, deviceObjectPath(addr))
	// Disconnect first; RemoveDevice drops the bond.
	obj.Call(deviceIface+".Disconnect", 0)
	adapter := s.conn.Object(bluezBusName, dbus.ObjectPath(adapterPath))
	if err := adapter.Call(adapterIface+".RemoveDevice", 0, deviceObjectPath(addr)).Err; err != nil {
		return fmt.Errorf("remove device %s: %w", addr, err)
	}
	s.mu.Lock()
	s.slots[i] = AddressNone
	s.mu.Unlock()
	return nil
}

func (s *BlueZStack) ClearAllBonds() {
	s.mu.Lock()
	addrs := make([]Address, len(s.slots))
	copy(addrs, s.slots)
	s.mu.Unlock()

	for i, addr := range addrs {
		if addr.IsNone() {
			continue
		}
		if err := s.DisconnectProfile(i); err != nil {
			logger.Warn("bluez", "clear bonds: %v", err)
		}
	}
}

func (s *BlueZStack) PeripheralIsBonded() bool {
	return false
}
