package config

import "github.com/sirupsen/logrus"

type Config interface {
	CheckIntervalSeconds() int
	LowBatteryThreshold() int
	SoundEnabled() bool
	AutoDismissAlerts() bool
	AlertColor() string
	LowBatteryColor() string
	WindowOpacity() float64
	AlwaysOnTop() bool
	AutoStartup() bool
	AllowNonRootAccess() bool
	TelemetryCron() string

	SetCheckIntervalSeconds(int)
	SetLowBatteryThreshold(int)
	SetSoundEnabled(bool)
	SetAutoDismissAlerts(bool)
	SetAutoStartup(bool)
	SetAllowNonRootAccess(bool)
	SetTelemetryCron(string)

	// Replace swaps in a whole new raw config, as a config import does.
	// Callers validate the replacement first.
	Replace(*RawFileConfig)

	// Validate checks that the effective values are usable.
	Validate() error
	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	LogrusFields() logrus.Fields
}
