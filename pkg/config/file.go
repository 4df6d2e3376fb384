package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/powerwatch/powerwatch/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		CheckIntervalSeconds: ptr.To(10),
		LowBatteryThreshold:  ptr.To(20),
		SoundEnabled:         ptr.To(true),
		AutoDismissAlerts:    ptr.To(true),
		AlertColor:           ptr.To("#FF6B35"),
		LowBatteryColor:      ptr.To("#FF0000"),
		WindowOpacity:        ptr.To(0.95),
		AlwaysOnTop:          ptr.To(true),
		AutoStartup:          ptr.To(false),
		AllowNonRootAccess:   ptr.To(false),
		// Empty means no scheduled telemetry refresh. Users on hardware
		// where the management interface is slow can move the deep queries
		// onto a cron schedule instead of every tick.
		TelemetryCron: ptr.To(""),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		// An empty raw config reads as all defaults. Handing out the
		// package-level default struct itself would let a later setter
		// mutate the defaults for the whole process.
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	CheckIntervalSeconds *int     `json:"checkIntervalSeconds,omitempty"`
	LowBatteryThreshold  *int     `json:"lowBatteryThreshold,omitempty"`
	SoundEnabled         *bool    `json:"soundEnabled,omitempty"`
	AutoDismissAlerts    *bool    `json:"autoDismissAlerts,omitempty"`
	AlertColor           *string  `json:"alertColor,omitempty"`
	LowBatteryColor      *string  `json:"lowBatteryColor,omitempty"`
	WindowOpacity        *float64 `json:"windowOpacity,omitempty"`
	AlwaysOnTop          *bool    `json:"alwaysOnTop,omitempty"`
	AutoStartup          *bool    `json:"autoStartup,omitempty"`
	AllowNonRootAccess   *bool    `json:"allowNonRootAccess,omitempty"`
	TelemetryCron        *string  `json:"telemetryCron,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		CheckIntervalSeconds: ptr.To(c.CheckIntervalSeconds()),
		LowBatteryThreshold:  ptr.To(c.LowBatteryThreshold()),
		SoundEnabled:         ptr.To(c.SoundEnabled()),
		AutoDismissAlerts:    ptr.To(c.AutoDismissAlerts()),
		AlertColor:           ptr.To(c.AlertColor()),
		LowBatteryColor:      ptr.To(c.LowBatteryColor()),
		WindowOpacity:        ptr.To(c.WindowOpacity()),
		AlwaysOnTop:          ptr.To(c.AlwaysOnTop()),
		AutoStartup:          ptr.To(c.AutoStartup()),
		AllowNonRootAccess:   ptr.To(c.AllowNonRootAccess()),
		TelemetryCron:        ptr.To(c.TelemetryCron()),
	}

	return rawConfig, nil
}

func (f *File) CheckIntervalSeconds() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.CheckIntervalSeconds != nil {
		return *f.c.CheckIntervalSeconds
	}
	return *defaultFileConfig.CheckIntervalSeconds
}

func (f *File) LowBatteryThreshold() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.LowBatteryThreshold != nil {
		return *f.c.LowBatteryThreshold
	}
	return *defaultFileConfig.LowBatteryThreshold
}

func (f *File) SoundEnabled() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.SoundEnabled != nil {
		return *f.c.SoundEnabled
	}
	return *defaultFileConfig.SoundEnabled
}

func (f *File) AutoDismissAlerts() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AutoDismissAlerts != nil {
		return *f.c.AutoDismissAlerts
	}
	return *defaultFileConfig.AutoDismissAlerts
}

func (f *File) AlertColor() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AlertColor != nil {
		return *f.c.AlertColor
	}
	return *defaultFileConfig.AlertColor
}

func (f *File) LowBatteryColor() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.LowBatteryColor != nil {
		return *f.c.LowBatteryColor
	}
	return *defaultFileConfig.LowBatteryColor
}

func (f *File) WindowOpacity() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.WindowOpacity != nil {
		return *f.c.WindowOpacity
	}
	return *defaultFileConfig.WindowOpacity
}

func (f *File) AlwaysOnTop() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AlwaysOnTop != nil {
		return *f.c.AlwaysOnTop
	}
	return *defaultFileConfig.AlwaysOnTop
}

func (f *File) AutoStartup() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AutoStartup != nil {
		return *f.c.AutoStartup
	}
	return *defaultFileConfig.AutoStartup
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AllowNonRootAccess != nil {
		return *f.c.AllowNonRootAccess
	}
	return *defaultFileConfig.AllowNonRootAccess
}

func (f *File) TelemetryCron() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.TelemetryCron != nil {
		return *f.c.TelemetryCron
	}
	return *defaultFileConfig.TelemetryCron
}

func (f *File) SetCheckIntervalSeconds(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.CheckIntervalSeconds = &i
}

func (f *File) SetLowBatteryThreshold(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.LowBatteryThreshold = &i
}

func (f *File) SetSoundEnabled(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.SoundEnabled = &b
}

func (f *File) SetAutoDismissAlerts(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AutoDismissAlerts = &b
}

func (f *File) SetAutoStartup(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AutoStartup = &b
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) SetTelemetryCron(expr string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.TelemetryCron = &expr
}

// Replace swaps the whole raw config, keeping the file path. A nil
// replacement resets every field to defaults, same as loading a missing
// file.
func (f *File) Replace(c *RawFileConfig) {
	if c == nil {
		c = &RawFileConfig{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c = c
}

// Validate checks the effective configuration values against the ranges the
// daemon is willing to run with.
func (f *File) Validate() error {
	if f.c == nil {
		panic("config is nil")
	}

	raw, err := NewRawFileConfigFromConfig(f)
	if err != nil {
		return err
	}
	return raw.Validate()
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := string(b)

	if strings.TrimSpace(configString) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"checkIntervalSeconds": f.CheckIntervalSeconds(),
		"lowBatteryThreshold":  f.LowBatteryThreshold(),
		"soundEnabled":         f.SoundEnabled(),
		"autoDismissAlerts":    f.AutoDismissAlerts(),
		"autoStartup":          f.AutoStartup(),
		"allowNonRootAccess":   f.AllowNonRootAccess(),
		"telemetryCron":        f.TelemetryCron(),
	}
}
