package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// terminalPrompter asks on out and reads the answer from in. With yes set
// every confirmation is accepted without asking.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newPrompter(in io.Reader, out io.Writer, yes bool) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out, yes: yes}
}

func (p *terminalPrompter) Confirm(msg string) bool {
	if p.yes {
		return true
	}
	fmt.Fprintf(p.out, "%s [j/N] ", msg)
	answer, _ := p.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "j", "ja", "y", "yes":
		return true
	}
	return false
}

func (p *terminalPrompter) Alert(msg string) {
	fmt.Fprintln(p.out, msg)
}
