package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cincanproject/cincan-registry/internal/output"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

var (
	listLocation string
	listSince    time.Duration

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List cached tools and their version status",
		Long: `List every cached tool with its latest local, remote and upstream version
and whether they agree after normalization.`,
		Example: `  # All tools
  cincan-registry list

  # Only tools in one registry
  cincan-registry list --location dockerhub

  # Tools updated in the last day
  cincan-registry list --since 24h`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().StringVar(&listLocation, "location", "", "only tools at this location")
	listCmd.Flags().DurationVar(&listSince, "since", 0, "only tools updated within this duration")
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var tools []*tool.Tool
	if listSince > 0 {
		tools, err = st.GetToolsUpdatedSince(ctx, time.Now().Add(-listSince), listLocation)
	} else {
		tools, err = st.GetTools(ctx, listLocation)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderToolTable(ctx, tools))
	return nil
}
