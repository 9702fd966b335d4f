package util

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the data directory path
func GetDataDir() string {
	if envDir := os.Getenv("AURAKEY_BLE_DIR"); envDir != "" {
		return envDir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".aurakey-ble-data")
}

// GetSettingsDir returns the durable settings directory
func GetSettingsDir() string {
	return filepath.Join(GetDataDir(), "settings")
}

// GetSocketPath returns the default RPC socket path
func GetSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	return filepath.Join(dir, "aurakey-ble.sock")
}
