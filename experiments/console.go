package experiments

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/unixpickle/rip"
)

// SignalInterrupter turns SIGINT into pause requests.
//
// Each RIP only fires once, so a fresh one is installed
// whenever training resumes.
// A SIGINT received while the operator is being prompted
// kills the process.
type SignalInterrupter struct {
	r *rip.RIP
}

// NewSignalInterrupter starts listening for SIGINT.
func NewSignalInterrupter() *SignalInterrupter {
	return &SignalInterrupter{r: rip.NewRIP()}
}

// Interrupted returns a channel which is closed after a
// SIGINT.
func (s *SignalInterrupter) Interrupted() <-chan struct{} {
	return s.r.Chan()
}

// Rearm starts listening for the next SIGINT.
func (s *SignalInterrupter) Rearm() {
	s.r = rip.NewRIP()
}

// ConsoleOperator prompts on an output stream and reads
// one line of input per prompt.
type ConsoleOperator struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleOperator creates an operator on stdin and
// stdout.
func NewConsoleOperator() *ConsoleOperator {
	return NewStreamOperator(os.Stdin, os.Stdout)
}

// NewStreamOperator creates an operator on arbitrary
// streams.
func NewStreamOperator(in io.Reader, out io.Writer) *ConsoleOperator {
	return &ConsoleOperator{in: bufio.NewReader(in), out: out}
}

// Ask prints the prompt and waits for a line of input.
func (c *ConsoleOperator) Ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
