package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/artk-cli/artk/internal/blocks"
	"github.com/artk-cli/artk/internal/compiler"
	"github.com/artk-cli/artk/internal/db"
	"github.com/artk-cli/artk/internal/ir"
	"github.com/artk-cli/artk/internal/journey"
	"github.com/artk-cli/artk/internal/llkb"
	"github.com/artk-cli/artk/internal/render"
	"github.com/artk-cli/artk/internal/ui"
)

var (
	strictFlag  bool
	jsonFlag    bool
	verboseFlag bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file...]",
	Short: "Compile journey documents into Playwright specs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCompile(cmd.OutOrStdout(), args, strictFlag, jsonFlag, verboseFlag)
	},
}

func init() {
	compileCmd.Flags().BoolVar(&strictFlag, "strict", false, "Drop criteria containing blocked steps")
	compileCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the compiled IR as JSON")
	compileCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Trace per-step matching")
	rootCmd.AddCommand(compileCmd)
}

func RunCompile(w io.Writer, paths []string, strict, asJSON, verbose bool) error {
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

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	log := newLogger(verbose)
	defer log.Sync()

	comp := compiler.New(
		compiler.WithLLKB(llkb.Open(llkbPath)),
		compiler.WithLogger(log),
	)
	opts := compiler.Options{IncludeBlocked: true, Strict: strict}

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
		for _, warning := range res.Warnings {
			ui.WarnLine(w, warning)
		}

		outPath, warnings, err := writeSpec(res.Journey)
		if err != nil {
			return err
		}
		for _, warning := range warnings {
			ui.WarnLine(w, warning)
		}

		if err := recordCompile(sqlDB, path, parsed, res); err != nil {
			return err
		}

		ui.CompiledLine(w, res.Journey.ID, outPath)
		if len(res.BlockedSteps) > 0 {
			ui.BlockedLine(w, res.Journey.ID, len(res.BlockedSteps))
		}

		if asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Journey); err != nil {
				return fmt.Errorf("encoding %s: %w", res.Journey.ID, err)
			}
		}
		count++
	}

	ui.CompileSummaryLine(w, count)
	return nil
}

// writeSpec renders the journey's spec file. An existing file keeps its
// hand-written code; only managed blocks are rewritten.
func writeSpec(j ir.Journey) (string, []string, error) {
	outPath := filepath.Join(specDir, render.FileName(j))

	existing, err := os.ReadFile(outPath)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(specDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("creating %s: %w", specDir, err)
		}
		if err := os.WriteFile(outPath, []byte(render.Render(j)), 0o644); err != nil {
			return "", nil, fmt.Errorf("writing %s: %w", outPath, err)
		}
		return outPath, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", outPath, err)
	}

	updated, warnings := blocks.Inject(string(existing), render.Updates(j))
	if err := os.WriteFile(outPath, []byte(updated), 0o644); err != nil {
		return "", nil, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return outPath, warnings, nil
}

func recordCompile(sqlDB *sql.DB, path string, parsed *journey.Parsed, res *compiler.Result) error {
	var rowID int64
	err := sqlDB.QueryRow(`SELECT id FROM journeys WHERE journey_id = ?`, parsed.Header.ID).Scan(&rowID)
	if err == sql.ErrNoRows {
		result, err := sqlDB.Exec(
			`INSERT INTO journeys (journey_id, title, tier, file_path, revision) VALUES (?, ?, ?, ?, ?)`,
			parsed.Header.ID, parsed.Header.Title, parsed.Header.Tier, path, parsed.Header.Revision)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", parsed.Header.ID, err)
		}
		rowID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("inserting %s: %w", parsed.Header.ID, err)
		}
	} else if err != nil {
		return fmt.Errorf("querying %s: %w", parsed.Header.ID, err)
	}

	_, err = sqlDB.Exec(
		`INSERT INTO compile_runs (journey_id, steps, matched, from_llkb, blocked, warnings) VALUES (?, ?, ?, ?, ?, ?)`,
		rowID, res.Stats.Steps, res.Stats.Matched, res.Stats.FromLLKB, res.Stats.Blocked, len(res.Warnings))
	if err != nil {
		return fmt.Errorf("recording compile run: %w", err)
	}
	return nil
}
