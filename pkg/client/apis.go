package client

import (
	"encoding/json"
	"fmt"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/powerwatch/powerwatch/pkg/alert"
	"github.com/powerwatch/powerwatch/pkg/config"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
	"github.com/powerwatch/powerwatch/pkg/telemetry"
)

// GetSnapshot returns the power state as the daemon sees it. Set fresh to
// force a live probe instead of the monitor's cached sample.
func (c *Client) GetSnapshot(fresh bool) (*powerinfo.Snapshot, error) {
	path := "/snapshot"
	if fresh {
		path += "?fresh=1"
	}

	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get power snapshot")
	}

	var snap powerinfo.Snapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal power snapshot: %w", err)
	}

	return &snap, nil
}

// GetTelemetry returns resolved advanced telemetry (wattage, capacity,
// runtime) including which fallback source produced it.
func (c *Client) GetTelemetry() (*telemetry.Info, error) {
	ret, err := c.Get("/telemetry")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get power telemetry")
	}

	var info telemetry.Info
	if err := json.Unmarshal([]byte(ret), &info); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal power telemetry")
	}
	return &info, nil
}

// MonitorStatus mirrors the daemon's GET /monitor response.
type MonitorStatus struct {
	Running              bool   `json:"running"`
	CheckIntervalSeconds int    `json:"check_interval_seconds"`
	LowBatteryThreshold  int    `json:"low_battery_threshold"`
	SamplesLastMinute    int    `json:"samples_last_minute"`
	NextTelemetryRefresh string `json:"next_telemetry_refresh,omitempty"`
}

func (c *Client) GetMonitorStatus() (*MonitorStatus, error) {
	ret, err := c.Get("/monitor")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get monitor status")
	}

	var st MonitorStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal monitor status")
	}
	return &st, nil
}

func (c *Client) PauseMonitoring() (string, error) {
	return c.Post("/monitor/pause", "")
}

func (c *Client) ResumeMonitoring() (string, error) {
	return c.Post("/monitor/resume", "")
}

func (c *Client) GetCheckInterval() (int, error) {
	ret, err := c.Get("/check-interval")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get check interval")
	}
	seconds, err := strconv.Atoi(ret)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal check interval")
	}
	return seconds, nil
}

func (c *Client) SetCheckInterval(seconds int) (string, error) {
	return c.Put("/check-interval", strconv.Itoa(seconds))
}

func (c *Client) GetLowBatteryThreshold() (int, error) {
	ret, err := c.Get("/low-battery-threshold")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get low battery threshold")
	}
	threshold, err := strconv.Atoi(ret)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal low battery threshold")
	}
	return threshold, nil
}

func (c *Client) SetLowBatteryThreshold(threshold int) (string, error) {
	return c.Put("/low-battery-threshold", strconv.Itoa(threshold))
}

func (c *Client) GetSound() (bool, error) {
	ret, err := c.Get("/sound")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to get alert sound setting")
	}
	return parseBoolResponse(ret)
}

func (c *Client) SetSound(enabled bool) (string, error) {
	return c.Put("/sound", strconv.FormatBool(enabled))
}

func (c *Client) GetAutoDismiss() (bool, error) {
	ret, err := c.Get("/auto-dismiss")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to get auto dismiss setting")
	}
	return parseBoolResponse(ret)
}

func (c *Client) SetAutoDismiss(enabled bool) (string, error) {
	return c.Put("/auto-dismiss", strconv.FormatBool(enabled))
}

func (c *Client) GetTelemetryCron() (string, error) {
	ret, err := c.Get("/telemetry-cron")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get telemetry cron")
	}

	var expr string
	if err := json.Unmarshal([]byte(ret), &expr); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal telemetry cron")
	}
	return expr, nil
}

func (c *Client) SetTelemetryCron(expr string) (string, error) {
	// Cron expressions contain spaces, so this one has to be a proper JSON
	// string.
	payload, err := json.Marshal(expr)
	if err != nil {
		return "", err
	}
	return c.Put("/telemetry-cron", string(payload))
}

func (c *Client) GetAlerts() ([]alert.Alert, error) {
	ret, err := c.Get("/alerts")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get active alerts")
	}

	var active []alert.Alert
	if err := json.Unmarshal([]byte(ret), &active); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal active alerts")
	}
	return active, nil
}

// DismissAlerts dismisses the alert with the given identity, or every active
// alert when id is empty.
func (c *Client) DismissAlerts(id string) (string, error) {
	if id == "" {
		return c.Post("/alerts/dismiss", "")
	}

	payload, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return c.Post("/alerts/dismiss", string(payload))
}

func (c *Client) TestSound() (string, error) {
	return c.Post("/alerts/test-sound", "")
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

// ImportConfig replaces the daemon's whole config. The daemon validates the
// replacement, saves it, and restarts the monitor with the new values.
func (c *Client) ImportConfig(rc *config.RawFileConfig) (string, error) {
	payload, err := json.Marshal(rc)
	if err != nil {
		return "", err
	}
	return c.Put("/config", string(payload))
}

func (c *Client) ResetConfig() (string, error) {
	return c.Post("/config/reset", "")
}

func (c *Client) GetAutoStartup() (bool, error) {
	ret, err := c.Get("/auto-startup")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to get auto startup setting")
	}
	return parseBoolResponse(ret)
}

func (c *Client) SetAutoStartup(enabled bool) (string, error) {
	return c.Put("/auto-startup", strconv.FormatBool(enabled))
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	// Remove "" around JSON string. I don't want to use a JSON decoder just for this.
	ret = ret[1 : len(ret)-1] // remove the surrounding quotes
	return ret, nil
}

func parseBoolResponse(resp string) (bool, error) {
	switch resp {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
}
