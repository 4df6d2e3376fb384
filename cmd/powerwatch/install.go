package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/powerwatch/powerwatch/pkg/utils/startup"
)

// NewStartupCommand .
func NewStartupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "startup",
		Short:   "Manage launch-at-login for the tray application",
		GroupID: gInstallation,
		Long: `Manage launch-at-login for the powerwatch tray application.

Enabling startup records a Run entry in the current user's registry so the tray application starts automatically at login. No elevation is required. The daemon itself runs as a system service and is not affected by this command.`,
	}

	cmd.AddCommand(
		newStartupEnableCommand(),
		newStartupDisableCommand(),
		newStartupStatusCommand(),
	)

	return cmd
}

func newStartupEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Start the tray application at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := startup.Enable(); err != nil {
				return fmt.Errorf("failed to enable startup: %v", err)
			}

			logrus.Infof("startup enabled")

			// The registry entry is the operative part. The config flag
			// only mirrors it for the tray and status surfaces.
			if _, err := apiClient.SetAutoStartup(true); err != nil {
				logrus.Warnf("could not record auto startup in the daemon config: %v", err)
			}

			exePath, _ := os.Executable()

			cmd.Printf("The startup entry points at the current binary (%s) so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run ``powerwatch startup enable'' again.\n", exePath)

			return nil
		},
	}
}

func newStartupDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Stop starting the tray application at login",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := startup.Disable(); err != nil {
				return fmt.Errorf("failed to disable startup: %v", err)
			}

			logrus.Infof("startup disabled")

			if _, err := apiClient.SetAutoStartup(false); err != nil {
				logrus.Warnf("could not record auto startup in the daemon config: %v", err)
			}

			return nil
		},
	}
}

func newStartupStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the tray application starts at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enabled, err := startup.IsEnabled()
			if err != nil {
				return fmt.Errorf("failed to read startup entry: %v", err)
			}

			if enabled {
				cmd.Println("Startup is enabled.")
			} else {
				cmd.Println("Startup is disabled.")
			}

			// Best effort. The registry entry is authoritative, the daemon
			// config just mirrors it.
			if recorded, err := apiClient.GetAutoStartup(); err == nil && recorded != enabled {
				cmd.Println("The daemon config disagrees with the registry. Run \"powerwatch startup enable\" or \"powerwatch startup disable\" to bring them back in sync.")
			}

			return nil
		},
	}
}
