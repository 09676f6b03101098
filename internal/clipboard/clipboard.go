// Package clipboard copies text to the system clipboard, falling back to an
// OSC 52 terminal escape when no system clipboard is reachable.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/rs/zerolog"
)

// ErrClipboardUnavailable means neither the system clipboard nor the fallback accepted the text.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// SinkFunc opens the surface the OSC 52 fallback writes to. The returned
// closer is called after every write.
type SinkFunc func() (io.WriteCloser, error)

// Copier is a two-tier clipboard writer.
type Copier struct {
	system    func(string) error
	hasSystem bool
	sink      SinkFunc
	osc52     bool
	tmux      bool
	logger    zerolog.Logger

	wg sync.WaitGroup
}

type Option func(*Copier)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Copier) {
		c.logger = l
	}
}

// WithSystem replaces the system clipboard writer.
func WithSystem(fn func(string) error) Option {
	return func(c *Copier) {
		c.system = fn
		c.hasSystem = fn != nil
	}
}

// WithSink replaces the terminal the OSC 52 sequence is written to.
func WithSink(fn SinkFunc) Option {
	return func(c *Copier) {
		c.sink = fn
	}
}

// WithOSC52 toggles the terminal fallback.
func WithOSC52(enabled bool) Option {
	return func(c *Copier) {
		c.osc52 = enabled
	}
}

func New(opts ...Option) *Copier {
	c := &Copier{
		system:    clipboard.WriteAll,
		hasSystem: !clipboard.Unsupported,
		sink:      openTTY,
		osc52:     true,
		tmux:      inTmux(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func openTTY() (io.WriteCloser, error) {
	return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
}

func inTmux() bool {
	return os.Getenv("TMUX") != "" ||
		strings.HasPrefix(os.Getenv("TERM"), "tmux") ||
		strings.HasPrefix(os.Getenv("TERM"), "screen")
}

// Copy writes text in the background. Failures are logged, never returned.
func (c *Copier) Copy(text string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.CopyWait(text); err != nil {
			c.logger.Error().Err(err).Msg("Error copying text to clipboard")
		}
	}()
}

// Wait blocks until every Copy started so far has finished.
func (c *Copier) Wait() {
	c.wg.Wait()
}

// CopyWait writes text and returns ErrClipboardUnavailable, wrapped with the
// causes, when both tiers fail.
func (c *Copier) CopyWait(text string) error {
	var systemErr error
	if c.hasSystem {
		if systemErr = c.system(text); systemErr == nil {
			c.logger.Debug().Int("bytes", len(text)).Msg("Text copied to system clipboard")
			return nil
		}
		c.logger.Debug().Err(systemErr).Msg("System clipboard failed, trying terminal fallback")
	} else {
		systemErr = errors.New("no system clipboard")
	}

	if !c.osc52 {
		return fmt.Errorf("%w: %w", ErrClipboardUnavailable, systemErr)
	}

	if err := c.writeOSC52(text); err != nil {
		return fmt.Errorf("%w: %w; osc52: %w", ErrClipboardUnavailable, systemErr, err)
	}
	c.logger.Debug().Int("bytes", len(text)).Msg("Text copied via OSC 52")
	return nil
}

func (c *Copier) writeOSC52(text string) error {
	w, err := c.sink()
	if err != nil {
		return err
	}
	defer w.Close()

	seq := osc52.New(text)
	if c.tmux {
		if _, err := seq.Tmux().WriteTo(w); err != nil {
			return err
		}
	}
	_, err = seq.WriteTo(w)
	return err
}
