package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// canPrompt reports whether stdin is an interactive terminal.
func canPrompt(cmd *cobra.Command) bool {
	return cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd()))
}

// prompter asks for values on the command's stdin. One prompter serves every
// prompt of a command so that input buffered for a later answer is kept.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) String(label, def string) (string, error) {
	out := p.cmd.ErrOrStderr() // prompts go to stderr
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}

	// ReadString returns the partial line with io.EOF when stdin ends without a newline.
	line, _ := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}
