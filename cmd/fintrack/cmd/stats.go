package cmd

import (
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display spending statistics",
	Long: `Display statistics about recorded transactions.

Shows:
- Number of transactions and total spent
- Spending over the last 7 days
- Top category and per-category totals
- Remaining budget and percentage used

Example:
  fintrack stats`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		renderStats(cmd.OutOrStdout(), app.Store.Stats())
		return nil
	},
}
