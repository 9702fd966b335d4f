// aurakeyd runs the profile management RPC subsystem as a daemon: a
// wireless stack (simulated or BlueZ-backed), the durable name store, and
// the dispatcher behind a unix socket.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/aurakey-ble/ble"
	"github.com/user/aurakey-ble/logger"
	"github.com/user/aurakey-ble/mgmt"
	"github.com/user/aurakey-ble/settings"
	"github.com/user/aurakey-ble/transport"
	"github.com/user/aurakey-ble/util"
)

func main() {
	var (
		flagSocket   = flag.String("socket", util.GetSocketPath(), "unix socket to listen on")
		flagDataDir  = flag.String("data-dir", util.GetSettingsDir(), "durable settings directory")
		flagProfiles = flag.Int("profiles", 5, "number of profile slots")
		flagStack    = flag.String("stack", "sim", "wireless stack backend: sim or bluez")
		flagRole     = flag.String("role", "standalone", "split role: standalone, central or peripheral")
		flagDemo     = flag.Bool("demo", false, "pre-pair fake devices into the sim stack")
	)
	flag.Parse()

	if err := run(*flagSocket, *flagDataDir, *flagProfiles, *flagStack, *flagRole, *flagDemo); err != nil {
		fmt.Fprintf(os.Stderr, "aurakeyd: %v\n", err)
		os.Exit(1)
	}
}

func run(socketPath, dataDir string, profiles int, stackName, roleName string, demo bool) error {
	role, err := parseRole(roleName)
	if err != nil {
		return err
	}

	stack, err := buildStack(stackName, profiles, role, demo)
	if err != nil {
		return err
	}

	fileStore, err := settings.NewFileStore(dataDir)
	if err != nil {
		return err
	}

	names := mgmt.NewNameStore(profiles, settings.WithPrefix(fileStore, "names/"))
	if err := names.HydrateAll(); err != nil {
		return fmt.Errorf("hydrate name store: %w", err)
	}

	service := mgmt.NewService(stack, names, role)
	dispatcher := mgmt.NewDispatcher(service)

	server := transport.NewServer(socketPath, dispatcher.Handle)
	if err := server.Start(); err != nil {
		return err
	}

	logger.Info("aurakeyd", "ready: %d profiles, %s stack, %s role", profiles, stackName, roleName)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("aurakeyd", "shutting down")
	server.Close()
	return nil
}

func parseRole(name string) (ble.SplitRole, error) {
	switch name {
	case "standalone":
		return ble.RoleStandalone, nil
	case "central":
		return ble.RoleCentral, nil
	case "peripheral":
		return ble.RolePeripheral, nil
	}
	return ble.SplitRole{}, fmt.Errorf("unknown role %q", name)
}

func buildStack(name string, profiles int, role ble.SplitRole, demo bool) (ble.Stack, error) {
	switch name {
	case "sim":
		sim := ble.NewSimStack(profiles)
		if demo {
			seedDemoPairings(sim, profiles)
		}
		if role.Peripheral {
			sim.SetPeripheralBonded(true)
		}
		return sim, nil
	case "bluez":
		return ble.NewBlueZStack(profiles)
	}
	return nil, fmt.Errorf("unknown stack %q", name)
}

// seedDemoPairings pairs a couple of fake hosts so the CLI has something
// to show against a fresh sim stack.
func seedDemoPairings(sim *ble.SimStack, profiles int) {
	demo := []string{
		"C0:FF:EE:00:12:34 (random)",
		"DE:AD:BE:EF:00:01 (public)",
	}
	for i, s := range demo {
		if i >= profiles {
			break
		}
		addr, err := ble.ParseAddress(s)
		if err != nil {
			continue
		}
		sim.Pair(i, addr)
	}
	sim.SetConnected(1, false)
}
