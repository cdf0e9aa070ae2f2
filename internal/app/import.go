package app

import (
	"github.com/spf13/cobra"

	"github.com/cincanproject/cincan-registry/internal/feed"
	"github.com/cincanproject/cincan-registry/internal/output"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a YAML observation feed into the cache",
	Long: `Import tools, version records and upstream checker metadata from a YAML
feed. The whole feed is written in one transaction: either everything is
imported or nothing is.

A tool row is only overwritten when the feed carries a newer 'updated' time.
Version records are upserted on (tool, version, type, source).`,
	Example: `  cincan-registry import feed.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    runImport,
}

func init() {
	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := feed.Load(args[0])
	if err != nil {
		return err
	}

	st, err := openStore(true)
	if err != nil {
		return err
	}
	defer st.Close()

	spinner := output.NewSpinner("Importing " + args[0])
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()

	res, err := feed.Import(cmd.Context(), st, f)
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.Stop()

	printImport(cmd, res)
	return nil
}
