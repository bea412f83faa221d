package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the stored conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := resolveUserID()
		if err != nil {
			return err
		}

		resp, err := api.History(context.Background(), userID)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}

		if len(resp.Messages) == 0 {
			fmt.Println("No conversation yet.")
			return nil
		}

		for _, m := range resp.Messages {
			var label string
			switch m.Role {
			case "user":
				label = userStyle.Render("you")
			case "assistant":
				label = assistantStyle.Render("assistant")
			default:
				label = summaryStyle.Render("summary")
			}

			content := m.Content
			if m.Role == "assistant" {
				content = stripHTML(content)
			}
			fmt.Printf("%s %s\n%s\n\n", label, timeStyle.Render(m.Timestamp), content)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored conversation and start fresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := resolveUserID()
		if err != nil {
			return err
		}

		if err := api.Clear(context.Background(), userID); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Println("Conversation cleared.")
		return nil
	},
}
