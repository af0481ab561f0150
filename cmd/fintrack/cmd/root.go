// Package cmd provides CLI commands for fintrack.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/validation"
)

var (
	debug bool

	// app is opened by the root command before any subcommand runs.
	app *cli.App
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fintrack",
	Short: "Track personal spending against a monthly budget",
	Long: `fintrack records transactions, searches and sorts them, and reports
spending against a budget cap.

Storage is selected with DATA_BACKEND (sqlite, bolt or memory). Settings
defaults may be provided in a YAML file named by SETTINGS_DEFAULTS_FILE.

Example:
  fintrack add -d "Coffee" -a 4.50 -c Food
  fintrack ls --search coffee --sort amount-desc
  fintrack stats`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openApp,
}

// Execute adds all child commands to the root command and runs it. Errors are
// printed once here so every command reports them the same way.
func Execute() error {
	err := rootCmd.Execute()
	if app != nil {
		if cerr := app.Close(); cerr != nil {
			applog.Default().Warn("Failed to close backend", "error", cerr)
		}
	}
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(addCmd, editCmd, rmCmd, lsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd, importCmd)
	rootCmd.AddCommand(settingsCmd, clearCmd)
	rootCmd.AddCommand(eventsCmd)
}

func openApp(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger := cli.SetupLogger(level)

	app, err = cli.Open(cmd.Context(), cfg, logger)
	return err
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// printError maps the error taxonomy to a user-facing message.
func printError(w io.Writer, err error) {
	var verr *validation.Error
	switch {
	case errors.Is(err, core.ErrMalformedImport):
		fmt.Fprintln(w, errorStyle.Render("Import rejected:"), err)
	case errors.As(err, &verr):
		fmt.Fprintln(w, errorStyle.Render("Invalid input:"))
		for _, field := range verr.FieldNames() {
			fmt.Fprintf(w, "  %s: %s\n", field, verr.Fields[field])
		}
	case errors.Is(err, core.ErrNotFound):
		fmt.Fprintln(w, errorStyle.Render("Error:"), "no such transaction")
	default:
		fmt.Fprintln(w, errorStyle.Render("Error:"), err)
	}
}
