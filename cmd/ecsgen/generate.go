package main

import (
	"fmt"
	"os"
	"time"

	"github.com/emergent-company/ecsgen/internal/diag"
	"github.com/emergent-company/ecsgen/internal/driver"
	"github.com/emergent-company/ecsgen/internal/template"
	"github.com/emergent-company/ecsgen/internal/watch"
	"github.com/spf13/cobra"
)

func newGenerateCmd(state *rootState) *cobra.Command {
	var (
		outputDir string
		toStdout  bool
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "generate <spec-file>",
		Short: "Run the full pipeline and write the generated output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specPath := args[0]

			dir := state.cfg.Output.Dir
			if outputDir != "" {
				dir = outputDir
			}

			runOnce := func() error {
				data, err := os.ReadFile(specPath)
				if err != nil {
					return fmt.Errorf("reading spec file: %w", err)
				}

				d, err := newDriver(state)
				if err != nil {
					return err
				}

				streams, err := d.Generate(data)
				if err != nil {
					diag.Render(os.Stderr, err)
					return err
				}

				if toStdout {
					for _, s := range streams {
						fmt.Fprintf(cmd.OutOrStdout(), "--- %s ---\n", s.Name)
						cmd.OutOrStdout().Write(s.Data)
					}
					return nil
				}

				return driver.WriteToDir(dir, streams)
			}

			if !watchMode {
				return runOnce()
			}

			return watch.Poll(cmd.Context(), specPath, 500*time.Millisecond, state.logger, func() {
				if err := runOnce(); err != nil {
					state.logger.Error("generate failed", "error", err)
				}
			})
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "override output.dir from config")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write streams to stdout instead of files")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "re-run generate whenever the spec file changes")

	return cmd
}

func newDriver(state *rootState) (*driver.Driver, error) {
	var engine template.Engine
	var err error
	if state.cfg.Templates.Dir != "" {
		engine, err = template.NewStdEngineFromDir(state.cfg.Templates.Dir)
	} else {
		engine, err = template.NewStdEngine()
	}
	if err != nil {
		return nil, err
	}
	return driver.New(state.logger, engine), nil
}
