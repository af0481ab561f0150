package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/services"
)

var (
	recordDescription string
	recordAmount      string
	recordCategory    string
	recordDate        string

	lsSearch        string
	lsCaseSensitive bool
	lsSort          string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new transaction",
	Long: `Record a new transaction. The date defaults to today.

Example:
  fintrack add -d "Coffee beans" -a 12.99 -c Groceries --date 2026-10-14`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		date := recordDate
		if date == "" {
			date = core.FormatDate(core.Today(time.Now()))
		}
		tx, err := app.Store.Create(ctxOf(cmd), services.CreateInput{
			Description: recordDescription,
			Amount:      recordAmount,
			Category:    recordCategory,
			Date:        date,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", okStyle.Render("Added"), tx.ID, mutedStyle.Render(summarize(tx)))
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of an existing transaction",
	Long: `Change fields of an existing transaction. Only the flags given are
updated; the rest keep their current value.

Example:
  fintrack edit 0199f0c2-... -a 5.25`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var in services.UpdateInput
		if flags.Changed("description") {
			in.Description = &recordDescription
		}
		if flags.Changed("amount") {
			in.Amount = &recordAmount
		}
		if flags.Changed("category") {
			in.Category = &recordCategory
		}
		if flags.Changed("date") {
			in.Date = &recordDate
		}
		if in == (services.UpdateInput{}) {
			return errors.New("nothing to change: pass at least one of --description, --amount, --category, --date")
		}

		tx, err := app.Store.Update(ctxOf(cmd), args[0], in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", okStyle.Render("Updated"), tx.ID, mutedStyle.Render(summarize(tx)))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"remove"},
	Short:   "Remove transactions",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		missing := 0
		for _, id := range args {
			removed, err := app.Store.Remove(ctxOf(cmd), id)
			if err != nil {
				return err
			}
			if !removed {
				missing++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", mutedStyle.Render("Not found:"), id)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("Removed"), id)
		}
		if missing > 0 {
			return fmt.Errorf("%d of %d ids: %w", missing, len(args), core.ErrNotFound)
		}
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List transactions",
	Long: `List transactions, optionally filtered by a regular expression matched
against description, amount, category and date.

Sort keys: ` + sortKeyList() + `

Example:
  fintrack ls --search "coffee|tea" --sort amount-desc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		records, err := app.Query.Search(app.Store.List(), lsSearch, lsCaseSensitive)
		pattern := lsSearch
		if errors.Is(err, core.ErrInvalidPattern) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorStyle.Render("Ignoring search:"), err)
			pattern = ""
		} else if err != nil {
			return err
		}

		records = query.Sort(records, query.ParseSortKey(lsSort))
		renderTable(out, app.Query, records, pattern, lsCaseSensitive)
		if pattern != "" {
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d of %d transactions match", len(records), app.Store.Len())))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&recordDescription, "description", "d", "", "what the money was spent on")
		c.Flags().StringVarP(&recordAmount, "amount", "a", "", "amount, e.g. 12.50")
		c.Flags().StringVarP(&recordCategory, "category", "c", "", "category, e.g. Food")
		c.Flags().StringVar(&recordDate, "date", "", "date as YYYY-MM-DD")
	}
	addCmd.MarkFlagRequired("description")
	addCmd.MarkFlagRequired("amount")
	addCmd.MarkFlagRequired("category")

	lsCmd.Flags().StringVarP(&lsSearch, "search", "s", "", "regular expression to filter by")
	lsCmd.Flags().BoolVar(&lsCaseSensitive, "case-sensitive", false, "match the search pattern case-sensitively")
	lsCmd.Flags().StringVar(&lsSort, "sort", string(query.SortDateDesc), "sort key")
}

func summarize(tx core.Transaction) string {
	return fmt.Sprintf("%s · %s · %s · %s", tx.Date, tx.Description, tx.Category, formatMoney(tx.Amount))
}

func sortKeyList() string {
	keys := query.SortKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
