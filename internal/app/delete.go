package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deleteLocation string

	deleteCmd = &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a tool, its versions and its checkers from the cache",
		Example: `  cincan-registry delete cincan/pdfid --location dockerhub`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDelete,
	}
)

func init() {
	deleteCmd.Flags().StringVar(&deleteLocation, "location", "", "tool location (required)")
	_ = deleteCmd.MarkFlagRequired("location")
	RootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	deleted, err := st.DeleteTool(cmd.Context(), name, deleteLocation)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("tool %s not found at %s", name, deleteLocation)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s (%s)\n", name, deleteLocation)
	return nil
}
