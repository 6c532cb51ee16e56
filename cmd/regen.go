package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/artk-cli/artk/internal/blocks"
	"github.com/artk-cli/artk/internal/compiler"
	"github.com/artk-cli/artk/internal/journey"
	"github.com/artk-cli/artk/internal/llkb"
	"github.com/artk-cli/artk/internal/render"
	"github.com/artk-cli/artk/internal/ui"
)

var regenCmd = &cobra.Command{
	Use:   "regen [file...]",
	Short: "Regenerate managed blocks in existing spec files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunRegen(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(regenCmd)
}

// RunRegen recompiles journeys and rewrites only the managed blocks of
// spec files that already exist. Journeys without a spec file are
// skipped with a warning; `artk compile` creates them.
func RunRegen(w io.Writer, paths []string) error {
	if _, err := os.Stat(journeysDir); os.IsNotExist(err) {
		return fmt.Errorf("run `artk init` first")
	}

	if len(paths) == 0 {
		var err error
		paths, err = filepath.Glob(filepath.Join(journeysDir, "*.journey.md"))
		if err != nil {
			return fmt.Errorf("scanning %s/: %w", journeysDir, err)
		}
		sort.Strings(paths)
	}

	comp := compiler.New(compiler.WithLLKB(llkb.Open(llkbPath)))
	opts := compiler.Options{IncludeBlocked: true}

	count := 0
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		parsed, err := journey.Parse(path, content)
		if err != nil {
			return err
		}

		res := comp.Normalize(parsed, opts)
		outPath := filepath.Join(specDir, render.FileName(res.Journey))

		existing, err := os.ReadFile(outPath)
		if os.IsNotExist(err) {
			ui.WarnLine(w, fmt.Sprintf("%s has no spec file; run `artk compile`", res.Journey.ID))
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", outPath, err)
		}

		updated, warnings := blocks.Inject(string(existing), render.Updates(res.Journey))
		for _, warning := range warnings {
			ui.WarnLine(w, warning)
		}
		if err := os.WriteFile(outPath, []byte(updated), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}

		ui.CompiledLine(w, res.Journey.ID, outPath)
		count++
	}

	ui.CompileSummaryLine(w, count)
	return nil
}
