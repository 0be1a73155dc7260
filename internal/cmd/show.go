package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meri-imperiumi/signalk-logbook/internal/logbook"
	"github.com/meri-imperiumi/signalk-logbook/internal/output"
)

var showCmd = &cobra.Command{
	Use:   "show [date...]",
	Short: "Print logbook entries for one or more dates",
	Long: `Print the entries logged on the given dates (YYYY-MM-DD). With no
arguments the most recent date with entries is shown.

Examples:
  signalk-logbook show
  signalk-logbook show 2024-07-12
  signalk-logbook show 2024-07-12 2024-07-13 --output json`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := logbook.New(dataDir())
	if err != nil {
		return fmt.Errorf("failed to open logbook: %w", err)
	}

	dates := args
	if len(dates) == 0 {
		all, err := store.ListDates()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			return fmt.Errorf("logbook is empty")
		}
		dates = all[len(all)-1:]
	}

	var renderer output.Renderer
	switch strings.ToLower(outputFmt) {
	case "json":
		renderer = output.NewJSONRenderer()
	default:
		renderer = output.NewTextRenderer()
	}

	for _, date := range dates {
		entries, err := store.GetDate(date)
		if err != nil {
			return err
		}
		if len(dates) > 1 {
			fmt.Println(date)
		}
		for _, entry := range entries {
			if err := renderer.Render(entry); err != nil {
				return err
			}
		}
	}
	return nil
}
