package gui

import (
	"context"
	"fmt"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/powerwatch/powerwatch/pkg/utils/startup"
)

func onReady() {
	systray.SetTitle("🔋 Loading...")
	systray.SetTooltip("powerwatch - Power Monitor")

	mStatus := systray.AddMenuItem("Status: Connecting...", "Current power status")
	mStatus.Disable()

	mRemaining := systray.AddMenuItem("Remaining: -", "Estimated runtime left on battery")
	mRemaining.Disable()

	mThreshold := systray.AddMenuItem("Low Battery Threshold: -", "Current low battery threshold")
	mThreshold.Disable()

	systray.AddSeparator()

	mThreshold20 := systray.AddMenuItem("Set Threshold to 20%", "Alert when charge drops below 20 percent")
	mThreshold10 := systray.AddMenuItem("Set Threshold to 10%", "Alert when charge drops below 10 percent")

	systray.AddSeparator()

	mPause := systray.AddMenuItem("Pause Monitoring", "Stop sampling and dismiss open alerts")

	startupEnabled, _ := startup.IsEnabled()
	mStartup := systray.AddMenuItemCheckbox("Start at Login", "Start the tray app when you log in", startupEnabled)

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the tray app, the daemon keeps running")

	refreshCh := make(chan struct{}, 1)
	go startEventBridge(refreshCh)

	go func() {
		actionCh := make(chan string)
		go func() {
			for {
				select {
				case <-mThreshold20.ClickedCh:
					actionCh <- "20"
				case <-mThreshold10.ClickedCh:
					actionCh <- "10"
				case <-mPause.ClickedCh:
					actionCh <- "pause"
				case <-mStartup.ClickedCh:
					actionCh <- "startup"
				case <-mQuit.ClickedCh:
					systray.Quit()
					return
				}
			}
		}()

		for {
			select {
			case action := <-actionCh:
				switch action {
				case "pause":
					togglePause()
				case "startup":
					toggleStartup(mStartup)
				default:
					systray.SetTitle(fmt.Sprintf("Setting to %s%%...", action))
					if _, err := apiClient.Put("/low-battery-threshold", action); err != nil {
						logrus.Errorf("failed to set threshold: %v", err)
					}
					time.Sleep(2 * time.Second)
				}

			case <-refreshCh:

			case <-time.After(2 * time.Second):
			}

			updateStatus(mStatus, mRemaining, mThreshold, mPause)
		}
	}()

	updateStatus(mStatus, mRemaining, mThreshold, mPause)
}

func onExit() {
	logrus.Info("powerwatch tray exiting")
}

func toggleStartup(m *systray.MenuItem) {
	enabled, err := startup.Toggle()
	if err != nil {
		logrus.Errorf("failed to toggle startup: %v", err)
		return
	}

	if enabled {
		m.Check()
	} else {
		m.Uncheck()
	}

	// Mirror the registry state into the daemon config.
	if _, err := apiClient.SetAutoStartup(enabled); err != nil {
		logrus.Warnf("could not record auto startup in the daemon config: %v", err)
	}
}

func togglePause() {
	st, err := apiClient.GetMonitorStatus()
	if err != nil {
		logrus.Errorf("failed to get monitor status: %v", err)
		return
	}

	if st.Running {
		_, err = apiClient.PauseMonitoring()
	} else {
		_, err = apiClient.ResumeMonitoring()
	}
	if err != nil {
		logrus.Errorf("failed to toggle monitoring: %v", err)
	}
}

func updateStatus(mStatus, mRemaining, mThreshold, mPause *systray.MenuItem) {
	snap, err := apiClient.GetSnapshot(false)
	if err != nil {
		systray.SetTitle("🚫 Offline")
		mStatus.SetTitle("Status: Disconnected")
		mRemaining.SetTitle("Remaining: -")
		mThreshold.SetTitle("Low Battery Threshold: -")
		logrus.Errorf("cannot connect to daemon: %v", err)
		return
	}

	st, err := apiClient.GetMonitorStatus()
	if err != nil {
		logrus.Errorf("failed to get monitor status: %v", err)
		return
	}

	statusIcon := "🔋"
	state := "On Battery"
	switch {
	case !snap.IsBatteryPresent:
		statusIcon = "🔌"
		state = "No battery"
	case snap.IsCharging:
		statusIcon = "⚡️"
		state = "Charging"
	case snap.IsACConnected:
		statusIcon = "🔌"
		state = "On AC"
	}

	title := fmt.Sprintf("%s %d%%", statusIcon, snap.BatteryPercentage)
	if !st.Running {
		title = "⏸ " + title
		state += ", monitoring paused"
	}

	systray.SetTitle(title)
	mStatus.SetTitle(fmt.Sprintf("Status: %s", state))

	remainingString := "N/A"
	if !snap.IsACConnected && snap.RemainingTimeMinutes != nil && *snap.RemainingTimeMinutes > 0 {
		total := *snap.RemainingTimeMinutes
		if total >= 60 {
			remainingString = fmt.Sprintf("~%d h %d min", total/60, total%60)
		} else {
			remainingString = fmt.Sprintf("~%d min", total)
		}
	}
	mRemaining.SetTitle(fmt.Sprintf("Remaining: %s", remainingString))
	mThreshold.SetTitle(fmt.Sprintf("Low Battery Threshold: %d%%", st.LowBatteryThreshold))

	if st.Running {
		mPause.SetTitle("Pause Monitoring")
	} else {
		mPause.SetTitle("Resume Monitoring")
	}
}

// startEventBridge subscribes to daemon events and triggers tray refreshes on
// demand, so transitions show up without waiting for the next poll.
func startEventBridge(refresh chan<- struct{}) {
	for {
		evCh, err := apiClient.SubscribeEvents(context.Background())
		if err != nil {
			logrus.WithError(err).Debug("event stream unavailable, retrying")
			time.Sleep(5 * time.Second)
			continue
		}

		for ev := range evCh {
			logrus.WithFields(logrus.Fields{
				"event": ev.Name,
				"data":  string(ev.Data),
			}).Debug("new event")

			select {
			case refresh <- struct{}{}:
			default:
			}
		}

		// Stream ended, the daemon probably restarted.
		time.Sleep(2 * time.Second)
	}
}
