package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cincanproject/cincan-registry/internal/output"
	"github.com/cincanproject/cincan-registry/internal/store"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

var (
	versionsType     string
	versionsProvider string
	versionsLocation string

	versionsCmd = &cobra.Command{
		Use:   "versions NAME",
		Short: "List the cached version records of a tool",
		Example: `  # Everything known about a tool
  cincan-registry versions cincan/binwalk

  # Only upstream versions reported by GitHub
  cincan-registry versions cincan/binwalk --type upstream --provider github`,
		Args: cobra.ExactArgs(1),
		RunE: runVersions,
	}
)

func init() {
	versionsCmd.Flags().StringVar(&versionsType, "type", "", "version type: local, remote, upstream, undefined")
	versionsCmd.Flags().StringVar(&versionsProvider, "provider", "", "only records from this source")
	versionsCmd.Flags().StringVar(&versionsLocation, "location", "", "only records of the tool at this location")
	RootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	filter := store.VersionFilter{
		Provider: versionsProvider,
		Location: versionsLocation,
	}
	if versionsType != "" {
		vt, err := tool.ParseVersionType(versionsType)
		if err != nil {
			return err
		}
		filter.Type = vt
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	versions, err := st.GetVersionsByTool(ctx, args[0], filter)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderVersionTable(ctx, versions))
	return nil
}
