// Package alert keeps track of the user-facing alerts the daemon has raised
// and fans them out as desktop notifications and audible beeps.
package alert

import (
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

// Alert identities. At most one alert of each identity is active at a time;
// raising an identity that is already active refreshes it in place.
const (
	PowerDisconnected = "power-disconnected"
	LowBattery        = "low-battery"
)

const defaultTextColor = "#FFFFFF"

// Alert is the view model served to clients. GUI frontends render it
// directly, so it carries everything needed to draw the alert.
type Alert struct {
	ID              string             `json:"id"`
	Message         string             `json:"message"`
	BackgroundColor string             `json:"background_color"`
	TextColor       string             `json:"text_color"`
	Opacity         float64            `json:"opacity"`
	AlwaysOnTop     bool               `json:"always_on_top"`
	ShowBatteryInfo bool               `json:"show_battery_info"`
	Snapshot        powerinfo.Snapshot `json:"snapshot"`
	RaisedAt        int64              `json:"raised_at"`
}
