package gui

import (
	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/powerwatch/powerwatch/pkg/client"
	"github.com/powerwatch/powerwatch/pkg/version"
)

var apiClient *client.Client

// NewTrayCommand returns the command that starts the tray application.
func NewTrayCommand(unixSocketPath string, groupID string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tray",
		Short:   "Start the powerwatch tray application",
		GroupID: groupID,
		Long: `Start the powerwatch tray application.

The tray shows the current power state in the notification area and offers
quick access to common settings. It talks to the powerwatch daemon, so the
daemon must be running first.`,
		Run: func(_ *cobra.Command, _ []string) {
			Run(unixSocketPath)
		},
	}

	return cmd
}

// Run starts the tray application and blocks until it quits.
func Run(unixSocketPath string) {
	apiClient = client.NewClient(unixSocketPath)

	logrus.WithField("version", version.Version).WithField("gitCommit", version.GitCommit).Info("powerwatch tray")

	systray.Run(onReady, onExit)
}
