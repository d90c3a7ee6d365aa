package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/labscrape/internal/app"
	"github.com/law-makers/labscrape/internal/creds"
	"github.com/law-makers/labscrape/internal/transfer"
)

var (
	remoteDSN         string
	remoteCred        string
	transferCollNames []string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Copy local collections to a remote store",
	Long: `Copies every document of the local store into the remote store, skipping
documents the remote already holds. Nothing is updated or removed on either
side.

The remote DSN comes from --remote, or from the credential saved with
"labscrape creds set".`,
	Example: `  # Use the saved "remote" credential
  labscrape transfer

  # Explicit DSN, summary collections only
  labscrape transfer --remote postgres://user:pass@db:5432/products --collections summary_tables_pct,summary_tables_mg`,
	Args: cobra.NoArgs,
	RunE: runTransfer,
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringVar(&remoteDSN, "remote", "", "Remote store DSN")
	transferCmd.Flags().StringVar(&remoteCred, "cred", creds.DefaultName, "Saved credential to use when --remote is empty")
	transferCmd.Flags().StringSliceVar(&transferCollNames, "collections", nil, "Collections to copy (default: all)")
}

func runTransfer(cmd *cobra.Command, args []string) error {
	a, err := requireApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	dsn := remoteDSN
	if dsn == "" {
		vault, err := creds.NewVault()
		if err != nil {
			return err
		}
		c, err := vault.Load(remoteCred)
		if err != nil {
			return fmt.Errorf("no --remote given and %w", err)
		}
		dsn = c.DSN
	}

	remote, err := app.OpenStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open remote store: %w", err)
	}
	defer remote.Close()

	opts := transfer.Options{Collections: transferCollNames}
	if showProgress(a.Config) {
		opts.Progress = os.Stderr
	}
	results, err := transfer.Copy(ctx, a.Store, remote, opts)
	printTransferResults(cmd.OutOrStdout(), results)
	return err
}
