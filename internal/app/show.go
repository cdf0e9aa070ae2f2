package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cincanproject/cincan-registry/internal/output"
	"github.com/cincanproject/cincan-registry/internal/store"
)

var (
	showLocation string

	showCmd = &cobra.Command{
		Use:   "show NAME",
		Short: "Show one tool with its versions and upstream checkers",
		Example: `  cincan-registry show cincan/radare2
  cincan-registry show cincan/radare2 --location local`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
)

func init() {
	showCmd.Flags().StringVar(&showLocation, "location", "", "tool location (default: first match)")
	RootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	t, err := st.GetSingleTool(ctx, name, showLocation)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("tool %s not found", name)
	}

	a, err := t.Agreement(ctx)
	if err != nil {
		return fmt.Errorf("failed to compare versions of %s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderAgreement(t.Name, a))
	fmt.Fprintf(out, "Location: %s\n", t.Location)
	if t.Description != "" {
		fmt.Fprintf(out, "About:    %s\n", t.Description)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderVersionTable(ctx, t.Versions))

	return printCheckers(cmd, st, t.Name, t.Location)
}

func printCheckers(cmd *cobra.Command, st *store.Store, name, location string) error {
	meta, err := st.GetMetadata(cmd.Context(), name, location)
	if err != nil {
		return err
	}
	if len(meta) == 0 {
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Upstream checkers:")
	for _, m := range meta {
		var flags []string
		if m.Origin {
			flags = append(flags, "origin")
		}
		if m.DockerOrigin {
			flags = append(flags, "docker-origin")
		}
		line := fmt.Sprintf("  %-14s %s", m.Provider, m.URI)
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
