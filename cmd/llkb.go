package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artk-cli/artk/internal/llkb"
	"github.com/artk-cli/artk/internal/ui"
)

var (
	pruneDaysFlag       int
	pruneConfidenceFlag float64
)

var llkbCmd = &cobra.Command{
	Use:   "llkb",
	Short: "Inspect and maintain the learned-pattern store",
}

var llkbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned patterns with confidence scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunLLKBList(cmd.OutOrStdout())
	},
}

var llkbPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Mark promotion-ready patterns and print their grammar candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunLLKBPromote(cmd.OutOrStdout())
	},
}

var llkbPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove stale low-confidence patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunLLKBPrune(cmd.OutOrStdout(), pruneDaysFlag, pruneConfidenceFlag)
	},
}

var llkbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the store as a shareable JSON artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunLLKBExport(cmd.OutOrStdout())
	},
}

func init() {
	defaults := llkb.DefaultPruneOptions()
	llkbPruneCmd.Flags().IntVar(&pruneDaysFlag, "days", defaults.MaxAgeDays, "Remove patterns unused for this many days")
	llkbPruneCmd.Flags().Float64Var(&pruneConfidenceFlag, "min-confidence", defaults.MinConfidence, "Remove patterns below this confidence")

	llkbCmd.AddCommand(llkbListCmd, llkbPromoteCmd, llkbPruneCmd, llkbExportCmd)
	rootCmd.AddCommand(llkbCmd)
}

func requireInit() error {
	if _, err := os.Stat(journeysDir); os.IsNotExist(err) {
		return fmt.Errorf("run `artk init` first")
	}
	return nil
}

func RunLLKBList(w io.Writer) error {
	if err := requireInit(); err != nil {
		return err
	}

	patterns, err := llkb.Open(llkbPath).All()
	if err != nil {
		return fmt.Errorf("reading store: %w", err)
	}
	if len(patterns) == 0 {
		fmt.Fprintln(w, "no learned patterns")
		return nil
	}

	for _, p := range patterns {
		marker := " "
		if p.PromotedToCore {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %.3f  %3d/%-3d  %s\n", marker, p.Confidence, p.SuccessCount, p.FailCount, p.NormalizedText)
	}
	return nil
}

func RunLLKBPromote(w io.Writer) error {
	if err := requireInit(); err != nil {
		return err
	}

	store := llkb.Open(llkbPath)
	candidates, err := store.Promotable()
	if err != nil {
		return fmt.Errorf("reading store: %w", err)
	}
	if len(candidates) == 0 {
		fmt.Fprintln(w, "no patterns ready for promotion")
		return nil
	}

	for _, c := range candidates {
		if err := store.MarkPromoted(c.Pattern.ID); err != nil {
			return fmt.Errorf("promoting %s: %w", c.Pattern.ID, err)
		}
		fmt.Fprintf(w, "promoted %q\n", c.Pattern.NormalizedText)
		fmt.Fprintf(w, "  grammar candidate: %s\n", c.Regex)
	}
	return nil
}

func RunLLKBPrune(w io.Writer, days int, minConfidence float64) error {
	if err := requireInit(); err != nil {
		return err
	}

	opts := llkb.DefaultPruneOptions()
	opts.MaxAgeDays = days
	opts.MinConfidence = minConfidence

	removed, err := llkb.Open(llkbPath).Prune(opts)
	if err != nil {
		return fmt.Errorf("pruning store: %w", err)
	}
	if removed == 0 {
		fmt.Fprintln(w, "nothing to prune")
		return nil
	}
	ui.WarnLine(w, fmt.Sprintf("removed %d pattern(s)", removed))
	return nil
}

func RunLLKBExport(w io.Writer) error {
	if err := requireInit(); err != nil {
		return err
	}

	doc, err := llkb.Open(llkbPath).Export()
	if err != nil {
		return fmt.Errorf("exporting store: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
