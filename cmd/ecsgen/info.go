package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the pipeline stages and the currently loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			printGeneralInfo(cmd, state)
			return nil
		},
	}
}

func printGeneralInfo(cmd *cobra.Command, state *rootState) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, `ecsgen %s — ECS specification compiler

PIPELINE STAGES

  1. Name Shaper                (internal/shape)
  2. Spec Loader                (internal/specfile)
  3. Validator/Normalizer       (internal/validate)
  4. Affinity Analyzer          (internal/affinity)
  5. Phase Scheduler            (internal/schedule)
  6. Emission Model Assembler   (internal/emission)
  7. Driver + Template Engine   (internal/driver, internal/template)

ENTITY KINDS

  components, states, archetypes, phases, systems, worlds

LOADED CONFIG

  output.dir         = %s
  output.allow_unsafe = %v
  log.level          = %s
  templates.dir      = %q (empty = built-in)

USAGE

  ecsgen generate <spec-file>   run the full pipeline and write output
  ecsgen validate <spec-file>   check a spec without writing output
  ecsgen version                print the build version
`, Version, state.cfg.Output.Dir, state.cfg.Output.AllowUnsafe, state.cfg.Log.Level, state.cfg.Templates.Dir)
}
