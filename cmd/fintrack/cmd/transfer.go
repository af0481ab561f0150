package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/transfer"
)

var importReplace bool

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export transactions as JSON",
	Long: `Export every transaction as a pretty-printed JSON array, to file or to
standard output when no file is given.

Example:
  fintrack export backup.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records := app.Store.List()
		if len(args) == 0 {
			return transfer.Export(cmd.OutOrStdout(), records)
		}
		if err := transfer.ExportFile(args[0], records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d transactions to %s\n", okStyle.Render("Exported"), len(records), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import transactions from JSON exports",
	Long: `Import transactions from one or more JSON exports. Files are read in
parallel and merged in argument order. A record whose id already exists
replaces it; with --replace the whole list is swapped for the imported one.

Every record is validated first. One malformed or invalid record rejects the
whole import and leaves existing data untouched.

Example:
  fintrack import january.json february.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := ctxOf(cmd)
		records, err := transfer.ImportFiles(ctx, args...)
		if err != nil {
			return err
		}

		if importReplace {
			if err := app.Store.ReplaceAll(ctx, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s list with %d transactions\n", okStyle.Render("Replaced"), len(records))
			return nil
		}

		n, err := app.Store.ImportMany(ctx, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d transactions\n", okStyle.Render("Imported"), n)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "replace every existing transaction")
}
