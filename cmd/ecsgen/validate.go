package main

import (
	"fmt"
	"os"

	"github.com/emergent-company/ecsgen/internal/diag"
	"github.com/spf13/cobra"
)

func newValidateCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec-file>",
		Short: "Run Load through Schedule and report diagnostics without writing output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading spec file: %w", err)
			}

			d, err := newDriver(state)
			if err != nil {
				return err
			}

			spec, err := d.Compile(data)
			if err != nil {
				diag.Render(os.Stderr, err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d component(s), %d state(s), %d archetype(s), %d phase(s), %d system(s), %d world(s)\n",
				len(spec.Components), len(spec.States), len(spec.Archetypes), len(spec.Phases), len(spec.Systems), len(spec.Worlds))
			return nil
		},
	}
}
