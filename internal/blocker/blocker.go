// Package blocker turns distracting-site blocking on and off. The timer only
// signals intent; what blocking means is up to the configured command.
package blocker

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

type Blocker interface {
	BlockSites(enable bool)
}

type Noop struct{}

func (Noop) BlockSites(bool) {}

type Func func(enable bool)

func (f Func) BlockSites(enable bool) {
	f(enable)
}

// Command runs "<command...> on" or "<command...> off". Failures are logged,
// never returned: the timer must keep going even if blocking is broken.
type Command struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommand splits commandLine on whitespace. An empty line yields nil.
func NewCommand(commandLine string, timeout time.Duration) *Command {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Command{name: fields[0], args: fields[1:], timeout: timeout}
}

// FromCommandLine returns a Command, or Noop when commandLine is blank.
func FromCommandLine(commandLine string) Blocker {
	if cmd := NewCommand(commandLine, defaultTimeout); cmd != nil {
		return cmd
	}
	return Noop{}
}

func (c *Command) BlockSites(enable bool) {
	if err := c.Run(context.Background(), enable); err != nil {
		slog.Error("Blocker BlockSites failed", "enable", enable, "error", err)
	}
}

func (c *Command) Run(ctx context.Context, enable bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	state := "off"
	if enable {
		state = "on"
	}
	args := append(append([]string{}, c.args...), state)
	output, err := exec.CommandContext(ctx, c.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s %s: %w (output: %s)", c.name, state, err, strings.TrimSpace(string(output)))
	}
	slog.Debug("Blocker BlockSites", "enable", enable)
	return nil
}
