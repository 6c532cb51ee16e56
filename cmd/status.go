package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artk-cli/artk/internal/db"
	"github.com/artk-cli/artk/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [<journey-id> <status>]",
	Short: "Show project status or update a journey's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return RunStatusReport(cmd.OutOrStdout())
		}
		if len(args) != 2 {
			return fmt.Errorf("usage: artk status <journey-id> <status>")
		}
		return RunStatusUpdate(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var validStatuses = map[string]bool{
	"draft": true, "ready": true, "active": true, "deprecated": true,
}

func RunStatusUpdate(w io.Writer, journeyID, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("unknown status %q (draft, ready, active, deprecated)", status)
	}

	if _, err := os.Stat(journeysDir); os.IsNotExist(err) {
		return fmt.Errorf("run `artk init` first")
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	var rowID int64
	err = sqlDB.QueryRow(`SELECT id FROM journeys WHERE journey_id = ?`, journeyID).Scan(&rowID)
	if err != nil {
		return fmt.Errorf("journey %s not found", journeyID)
	}

	// Previous status before inserting, for the confirmation line.
	var prevStatus string
	err = sqlDB.QueryRow(`SELECT status FROM statuses WHERE journey_id = ? ORDER BY changed_at DESC, id DESC LIMIT 1`, rowID).Scan(&prevStatus)
	if err != nil {
		prevStatus = ""
	}

	_, err = sqlDB.Exec(`INSERT INTO statuses (journey_id, status) VALUES (?, ?)`, rowID, status)
	if err != nil {
		return fmt.Errorf("inserting status: %w", err)
	}

	ui.StatusConfirm(w, journeyID, prevStatus, status)
	return nil
}

func RunStatusReport(w io.Writer) error {
	if _, err := os.Stat(journeysDir); os.IsNotExist(err) {
		return fmt.Errorf("run `artk init` first")
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	var count int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM journeys`).Scan(&count)
	if err != nil {
		return fmt.Errorf("counting journeys: %w", err)
	}

	fmt.Fprintf(w, "Journeys: %d\n", count)

	if count == 0 {
		return nil
	}

	rows, err := sqlDB.Query(`
		SELECT COALESCE(
			(SELECT status FROM statuses WHERE journey_id = j.id ORDER BY changed_at DESC, id DESC LIMIT 1),
			'no-activity'
		) AS current_status, COUNT(*) AS cnt
		FROM journeys j
		GROUP BY current_status
		ORDER BY CASE WHEN current_status = 'no-activity' THEN 1 ELSE 0 END, cnt DESC
	`)
	if err != nil {
		return fmt.Errorf("querying status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var cnt int
		if err := rows.Scan(&status, &cnt); err != nil {
			return fmt.Errorf("scanning status row: %w", err)
		}
		if cnt > 0 {
			fmt.Fprintf(w, "  %s: %d\n", status, cnt)
		}
	}

	return rows.Err()
}
