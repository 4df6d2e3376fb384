// Package startup manages the login autostart entry for the tray app. The
// entry lives in the per-user registry Run key, so no elevation is needed.
package startup

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	runKey    = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`
	valueName = "powerwatch"
)

// Test seam, reassigned in unit tests.
var runReg = func(args ...string) error {
	return exec.Command("reg", args...).Run()
}

// Enable registers the tray app to start at login.
func Enable() error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)
	logrus.Infof("writing login startup entry")

	cmdLine := fmt.Sprintf(`"%s" tray`, exePath)
	err = runReg("add", runKey, "/v", valueName, "/t", "REG_SZ", "/d", cmdLine, "/f")
	if err != nil {
		return fmt.Errorf("failed to write startup entry: %w", err)
	}

	return nil
}

// Disable removes the login startup entry. Removing an entry that does not
// exist is not an error.
func Disable() error {
	enabled, err := IsEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	logrus.Infof("removing login startup entry")

	err = runReg("delete", runKey, "/v", valueName, "/f")
	if err != nil {
		return fmt.Errorf("failed to remove startup entry: %w", err)
	}

	return nil
}

// IsEnabled reports whether the login startup entry exists. reg query exits
// nonzero when the value is absent.
func IsEnabled() (bool, error) {
	err := runReg("query", runKey, "/v", valueName)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query startup entry: %w", err)
	}
	return true, nil
}

// Toggle flips the startup entry and returns the new state.
func Toggle() (bool, error) {
	enabled, err := IsEnabled()
	if err != nil {
		return false, err
	}
	if enabled {
		return false, Disable()
	}
	return true, Enable()
}
