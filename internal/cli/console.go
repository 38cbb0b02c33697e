package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"catclone/internal/clone"
)

const successBanner = "SUCCESS: Robust injection complete. Ready for /LoadConfigFromFiles."

// consoleReporter prints progress as "[*]" step and "[+]" success lines.
type consoleReporter struct {
	w io.Writer
}

var _ clone.Reporter = consoleReporter{}

func (c consoleReporter) Step(format string, args ...any) {
	fmt.Fprintf(c.w, "[*] "+format+"\n", args...)
}

func (c consoleReporter) Success(format string, args ...any) {
	fmt.Fprintf(c.w, "[+] "+format+"\n", args...)
}

// printBanner writes the final success line, in bold green when w is a
// colour-capable terminal.
func printBanner(w io.Writer) {
	style := lipgloss.NewRenderer(w).NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("10"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, style.Render(successBanner))
}
