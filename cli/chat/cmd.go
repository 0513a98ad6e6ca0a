// Package chat provides the interactive chat command.
package chat

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"github.com/tejastrax/tejax/cli/tui"
	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/configuration"
)

// NewCmd instantiates and returns the chat command.
func NewCmd(config *configuration.Config, configPath string, apiClient api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Clipboard is best-effort; copying is disabled where no
			// display is available.
			clipboard.Init()

			model, err := tui.New(cmd.Context(), config, configPath, apiClient)
			if err != nil {
				return errors.Wrap(err, "creating chat terminal")
			}

			p := tea.NewProgram(
				model,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithReportFocus(),
			)
			model.SetProgram(p)

			if _, err := p.Run(); err != nil {
				return errors.Wrap(err, "running chat terminal")
			}
			return nil
		},
	}
}
