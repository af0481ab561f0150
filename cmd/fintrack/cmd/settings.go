package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/services"
)

var (
	settingsCap            string
	settingsCurrencies     []string
	settingsDropCurrencies []string
	clearYes               bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the budget cap and currency table",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		renderSettings(cmd.OutOrStdout(), app.Store.Settings())
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Long: `Change the budget cap and exchange rates. Currency flags are applied on
top of the current table; one currency must keep a rate of 1.

Example:
  fintrack settings set --cap 1500 --currency CHF=0.88 --drop-currency GBP`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var in services.SettingsInput
		if cmd.Flags().Changed("cap") {
			in.BudgetCap = &settingsCap
		}
		if len(settingsCurrencies) > 0 || len(settingsDropCurrencies) > 0 {
			rates, err := applyCurrencyFlags(app.Store.Settings().Currencies, settingsCurrencies, settingsDropCurrencies)
			if err != nil {
				return err
			}
			in.Currencies = rates
		}
		if in.BudgetCap == nil && in.Currencies == nil {
			return fmt.Errorf("nothing to change: pass --cap, --currency or --drop-currency")
		}

		s, err := app.Store.UpdateSettings(ctxOf(cmd), in)
		if err != nil {
			return err
		}
		renderSettings(cmd.OutOrStdout(), s)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every transaction",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to delete %d transactions without --yes", app.Store.Len())
		}
		if err := app.Store.Clear(ctxOf(cmd)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("All transactions deleted."))
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsCap, "cap", "", "monthly budget cap, e.g. 1000.00")
	settingsSetCmd.Flags().StringArrayVar(&settingsCurrencies, "currency", nil, "set an exchange rate as CODE=RATE (repeatable)")
	settingsSetCmd.Flags().StringArrayVar(&settingsDropCurrencies, "drop-currency", nil, "remove a currency CODE (repeatable)")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)

	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deletion")
}

// applyCurrencyFlags returns a copy of current with CODE=RATE assignments
// applied and dropped codes removed.
func applyCurrencyFlags(current map[string]float64, set, drop []string) (map[string]float64, error) {
	rates := maps.Clone(current)
	if rates == nil {
		rates = map[string]float64{}
	}
	for _, kv := range set {
		code, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --currency %q: want CODE=RATE", kv)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate in --currency %q: %w", kv, err)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	for _, code := range drop {
		delete(rates, strings.ToUpper(strings.TrimSpace(code)))
	}
	return rates, nil
}

func sortedCodes(rates map[string]float64) []string {
	return slices.Sorted(maps.Keys(rates))
}
