package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artk-cli/artk/internal/db"
)

var (
	listStatusFlag string
	listTierFlag   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tracked journeys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.OutOrStdout(), listStatusFlag, listTierFlag)
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatusFlag, "status", "", "Filter by status")
	listCmd.Flags().StringVar(&listTierFlag, "tier", "", "Filter by tier")
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	journeyID string
	tier      string
	title     string
	status    string
	blocked   int
}

func RunList(w io.Writer, statusFilter, tierFilter string) error {
	if _, err := os.Stat(journeysDir); os.IsNotExist(err) {
		return fmt.Errorf("run `artk init` first")
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	rows, err := sqlDB.Query(`
		SELECT j.journey_id, j.tier, j.title,
			COALESCE(
				(SELECT status FROM statuses WHERE journey_id = j.id ORDER BY changed_at DESC, id DESC LIMIT 1),
				'no-activity'
			) AS current_status,
			COALESCE(
				(SELECT blocked FROM compile_runs WHERE journey_id = j.id ORDER BY created_at DESC, id DESC LIMIT 1),
				0
			) AS blocked
		FROM journeys j
		ORDER BY j.journey_id
	`)
	if err != nil {
		return fmt.Errorf("querying journeys: %w", err)
	}
	defer rows.Close()

	var results []listRow
	for rows.Next() {
		var r listRow
		if err := rows.Scan(&r.journeyID, &r.tier, &r.title, &r.status, &r.blocked); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		if statusFilter != "" && r.status != statusFilter {
			continue
		}
		if tierFilter != "" && r.tier != tierFilter {
			continue
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	if len(results) == 0 {
		return nil
	}

	tierWidth, statusWidth := 0, 0
	for _, r := range results {
		if len(r.tier) > tierWidth {
			tierWidth = len(r.tier)
		}
		if len(r.status) > statusWidth {
			statusWidth = len(r.status)
		}
	}

	for _, r := range results {
		line := fmt.Sprintf("%s  %-*s  %-*s  %s", r.journeyID, tierWidth, r.tier, statusWidth, r.status, r.title)
		if r.blocked > 0 {
			line += fmt.Sprintf("  [%d blocked]", r.blocked)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
