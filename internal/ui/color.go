package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	newStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	trkStyle  = lipgloss.NewStyle().Faint(true)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func NewLine(w io.Writer, path string) {
	fmt.Fprintln(w, newStyle.Render("new")+"  "+path)
}

func TrkLine(w io.Writer, path string) {
	fmt.Fprintln(w, trkStyle.Render("trk")+"  "+path)
}

func SyncSummaryLine(w io.Writer, count int) {
	fmt.Fprintf(w, "synced %d journeys\n", count)
}

func CompiledLine(w io.Writer, id, path string) {
	fmt.Fprintln(w, okStyle.Render("ok")+"   "+id+" -> "+path)
}

func BlockedLine(w io.Writer, id string, count int) {
	fmt.Fprintf(w, "%s  %s: %d blocked step(s)\n", warnStyle.Render("blk"), id, count)
}

func WarnLine(w io.Writer, msg string) {
	fmt.Fprintln(w, warnStyle.Render("warn")+" "+msg)
}

func CompileSummaryLine(w io.Writer, count int) {
	fmt.Fprintf(w, "compiled %d journeys\n", count)
}

func StatusConfirm(w io.Writer, id, prev, status string) {
	if prev == "" {
		fmt.Fprintf(w, "%s -> %s\n", id, status)
		return
	}
	fmt.Fprintf(w, "%s %s -> %s\n", id, trkStyle.Render(prev), status)
}
