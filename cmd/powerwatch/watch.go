package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/powerwatch/powerwatch/pkg/events"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		GroupID: gBasic,
		Short:   "Stream power events from the daemon",
		Long: `Stream power events from the daemon.

Prints transitions (unplug, replug, low battery), alert lifecycle, and monitoring state changes as they happen. Interrupt with Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			evCh, err := apiClient.SubscribeEvents(ctx)
			if err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}

			cmd.Println("Watching for power events. Press Ctrl-C to stop.")

			for ev := range evCh {
				line, err := formatEvent(ev)
				if err != nil {
					logrus.WithError(err).WithField("event", ev.Name).Warn("failed to decode event")
					continue
				}
				if line != "" {
					cmd.Println(line)
				}
			}

			return nil
		},
	}
}

func formatEvent(ev events.Event) (string, error) {
	switch ev.Name {
	case events.PowerTransition:
		p, err := events.DecodeAs[events.PowerTransitionEvent](ev)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s  %s (battery %d%%)", eventTime(p.Ts), transitionText(p.Kind), p.Snapshot.BatteryPercentage), nil

	case events.PowerStatus:
		p, err := events.DecodeAs[events.PowerStatusEvent](ev)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s  status update (battery %d%%)", eventTime(p.Ts), p.Snapshot.BatteryPercentage), nil

	case events.AlertRaised:
		p, err := events.DecodeAs[events.AlertEvent](ev)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s  alert raised: %s (%s)", eventTime(p.Ts), bold("%s", p.ID), p.Message), nil

	case events.AlertDismissed:
		p, err := events.DecodeAs[events.AlertEvent](ev)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s  alert dismissed: %s", eventTime(p.Ts), bold("%s", p.ID)), nil

	case events.MonitorState:
		p, err := events.DecodeAs[events.MonitorStateEvent](ev)
		if err != nil {
			return "", err
		}
		if p.Running {
			return fmt.Sprintf("%s  monitoring resumed", eventTime(p.Ts)), nil
		}
		return fmt.Sprintf("%s  monitoring paused", eventTime(p.Ts)), nil
	}

	// Unknown event kinds are skipped so old clients keep working against
	// newer daemons.
	return "", nil
}

func transitionText(kind powerinfo.EventKind) string {
	switch kind {
	case powerinfo.EventACDisconnected:
		return color.RedString("AC power disconnected")
	case powerinfo.EventACConnected:
		return color.GreenString("AC power connected")
	case powerinfo.EventBatteryLow:
		return color.RedString("battery low")
	case powerinfo.EventBatteryNormal:
		return color.GreenString("battery back to normal")
	default:
		return string(kind)
	}
}

func eventTime(ts int64) string {
	return time.Unix(ts, 0).Local().Format("15:04:05")
}
