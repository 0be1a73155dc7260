package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meri-imperiumi/signalk-logbook/internal/logbook"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List dates with logbook entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := logbook.New(dataDir())
		if err != nil {
			return fmt.Errorf("failed to open logbook: %w", err)
		}
		dates, err := store.ListDates()
		if err != nil {
			return err
		}
		for _, date := range dates {
			fmt.Println(date)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datesCmd)
}
