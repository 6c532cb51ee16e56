package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/artk-cli/artk/internal/db"
	"github.com/artk-cli/artk/internal/journey"
	"github.com/artk-cli/artk/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan journeys/ for journey documents and register new ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSync(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func RunSync(w io.Writer) error {
	if _, err := os.Stat(journeysDir); os.IsNotExist(err) {
		return fmt.Errorf("run `artk init` first")
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	matches, err := filepath.Glob(filepath.Join(journeysDir, "*.journey.md"))
	if err != nil {
		return fmt.Errorf("scanning %s/: %w", journeysDir, err)
	}
	sort.Strings(matches)

	count := 0
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		parsed, err := journey.Parse(path, content)
		if err != nil {
			ui.WarnLine(w, err.Error())
			continue
		}

		var id int64
		err = sqlDB.QueryRow(`SELECT id FROM journeys WHERE journey_id = ?`, parsed.Header.ID).Scan(&id)
		if err == sql.ErrNoRows {
			_, err = sqlDB.Exec(
				`INSERT INTO journeys (journey_id, title, tier, file_path, revision) VALUES (?, ?, ?, ?, ?)`,
				parsed.Header.ID, parsed.Header.Title, parsed.Header.Tier, path, parsed.Header.Revision)
			if err != nil {
				return fmt.Errorf("inserting %s: %w", path, err)
			}
			ui.NewLine(w, path)
		} else if err != nil {
			return fmt.Errorf("querying %s: %w", path, err)
		} else {
			_, err = sqlDB.Exec(
				`UPDATE journeys SET title = ?, tier = ?, file_path = ?, revision = ?, updated_at = datetime('now') WHERE id = ?`,
				parsed.Header.Title, parsed.Header.Tier, path, parsed.Header.Revision, id)
			if err != nil {
				return fmt.Errorf("updating %s: %w", path, err)
			}
			ui.TrkLine(w, path)
		}
		count++
	}

	ui.SyncSummaryLine(w, count)
	return nil
}
