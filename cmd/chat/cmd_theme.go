package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jan-server/services/chat-ui/internal/domain/theme"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|system]",
	Short:     "Show or change the theme preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "system"},
	RunE:      runTheme,
}

func runTheme(cmd *cobra.Command, args []string) error {
	client := newAPIClient(cmd, newLogger(cmd))

	if len(args) == 1 {
		t, err := theme.Parse(args[0])
		if err != nil {
			return err
		}
		if err := client.SetTheme(cmd.Context(), t); err != nil {
			return fmt.Errorf("set theme: %w", err)
		}
	}

	t, err := client.Theme(cmd.Context())
	if err != nil {
		return fmt.Errorf("get theme: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}
