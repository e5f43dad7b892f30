// Package tailcmder provides the tail command for following a growing
// capture file.
package tailcmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/spool/pkg/accumulator"
	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/decoder"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/llm/dialect"
	"github.com/papercomputeco/spool/pkg/logger"
	"github.com/papercomputeco/spool/pkg/utils"
)

const tailLongDesc string = `Follow a growing capture file.

Watches the given file for appended bytes and decodes them incrementally,
printing text deltas as they arrive. Useful for watching a stream that is
being captured by another process (e.g. "spool decode --capture").

Exits when the stream signals completion or on interrupt. On interrupt any
open messages are cancelled and reported.`

const tailShortDesc string = "Follow a growing capture file"

// tailFlags is the flag registry for the tail command.
var tailFlags = config.FlagSet{
	config.FlagDialect: {
		Name:        "dialect",
		Shorthand:   "D",
		ViperKey:    "decode.dialect",
		Description: "Wire dialect (openai, anthropic)",
	},
}

type tailCommander struct {
	dialectName string
	debug       bool

	logger *slog.Logger
}

func NewTailCmd() *cobra.Command {
	cmder := &tailCommander{}

	cmd := &cobra.Command{
		Use:   "tail <file>",
		Short: tailShortDesc,
		Long:  tailLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, tailFlags, []string{config.FlagDialect})
			cmder.dialectName = v.GetString("decode.dialect")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(args[0])
		},
	}

	config.AddStringFlag(cmd, tailFlags, config.FlagDialect, &cmder.dialectName)

	return cmd
}

func (c *tailCommander) run(path string) error {
	c.logger = logger.Auto(
		logger.WithWriter(os.Stderr),
		logger.WithDebug(c.debug),
	)

	// Tailing cannot sniff: the dialect must be named explicitly or set in
	// the config file.
	if c.dialectName == "" || c.dialectName == "auto" {
		return fmt.Errorf("tail requires an explicit dialect (--dialect openai|anthropic)")
	}

	d, err := dialect.New(c.dialectName)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening capture file: %w", err)
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file so rotations and recreations
	// still produce events.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	sink := accumulator.SinkFunc(func(d llm.Delta) {
		if d.Content != nil {
			fmt.Print(*d.Content)
		}
	})

	sess := decoder.NewSession(d, decoder.WithSink(sink), decoder.WithLogger(c.logger))

	// Drain whatever is already in the file before waiting on events.
	if done, err := c.drain(f, sess); err != nil || done {
		return c.finish(sess, err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	c.logger.Info("tailing capture file", "path", path, "dialect", c.dialectName)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return c.finish(sess, nil)
			}
			if ev.Name != path || !ev.Has(fsnotify.Write) {
				continue
			}
			if done, err := c.drain(f, sess); err != nil || done {
				return c.finish(sess, err)
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return c.finish(sess, nil)
			}
			c.logger.Warn("watcher error", "error", werr)

		case <-interrupt:
			fmt.Println()
			c.logger.Info("interrupted, cancelling open messages")
			sess.Cancel()
			return c.finish(sess, nil)
		}
	}
}

// drain reads all currently available bytes from f into the session.
// Returns true once the stream has signalled completion.
func (c *tailCommander) drain(f *os.File, sess *decoder.Session) (bool, error) {
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if _, ferr := sess.Feed(string(buf[:n])); ferr != nil {
				return false, ferr
			}
			if sess.Done() {
				return true, nil
			}
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("reading capture file: %w", err)
		}
	}
}

func (c *tailCommander) finish(sess *decoder.Session, err error) error {
	fmt.Println()

	for _, msg := range sess.Messages() {
		c.logger.Info("message finished",
			"index", msg.Index,
			"role", msg.Role,
			"status", msg.Status,
			"stop_reason", msg.StopReason,
			"content", utils.Truncate(msg.Content, 80),
		)
	}

	return err
}
