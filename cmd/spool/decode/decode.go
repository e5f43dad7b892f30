// Package decodecmder provides the decode command.
package decodecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/spool/pkg/accumulator"
	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/decoder"
	"github.com/papercomputeco/spool/pkg/dotdir"
	"github.com/papercomputeco/spool/pkg/eventstream/kafka"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/llm/dialect"
	"github.com/papercomputeco/spool/pkg/logger"
	"github.com/papercomputeco/spool/pkg/sse"
	"github.com/papercomputeco/spool/pkg/worker"
)

const decodeLongDesc string = `Decode a streaming LLM response.

Reads a server-sent event stream from the given file (or stdin when no file
is provided), splits it into frames, normalizes the wire dialect, and
accumulates deltas into finished messages. Text deltas are written to stdout
as they arrive, followed by a per-message summary.

Supported dialects: auto, openai, anthropic. With "auto" the dialect is
detected from the first frame that carries a data payload.

Optionally publish decoded messages to a Kafka topic with --kafka.`

const decodeShortDesc string = "Decode a captured stream or stdin"

// decodeFlags is the flag registry for the decode command.
var decodeFlags = config.FlagSet{
	config.FlagDialect: {
		Name:        "dialect",
		Shorthand:   "D",
		ViperKey:    "decode.dialect",
		Description: "Wire dialect (auto, openai, anthropic)",
	},
	config.FlagCapture: {
		Name:        "capture",
		ViperKey:    "decode.capture",
		Description: "Tee raw stream bytes into the .spool/captures/ directory",
	},
	config.FlagLogJSON: {
		Name:        "json",
		ViperKey:    "log.json",
		Description: "Emit logs as JSON",
	},
	config.FlagKafkaEnabled: {
		Name:        "kafka",
		ViperKey:    "kafka.enabled",
		Description: "Publish decoded messages to Kafka",
	},
	config.FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "kafka.brokers",
		Description: "Kafka broker addresses",
	},
	config.FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "kafka.topic",
		Description: "Kafka topic for decoded messages",
	},
	config.FlagNumWorkers: {
		Name:        "workers",
		ViperKey:    "worker.num_workers",
		Description: "Number of async publish workers",
	},
	config.FlagQueueSize: {
		Name:        "queue-size",
		ViperKey:    "worker.queue_size",
		Description: "Capacity of the publish job queue",
	},
}

// registryKeys lists the decode flags bound into the viper precedence chain.
var registryKeys = []string{
	config.FlagDialect,
	config.FlagCapture,
	config.FlagLogJSON,
	config.FlagKafkaEnabled,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagNumWorkers,
	config.FlagQueueSize,
}

type decodeCommander struct {
	dialectName  string
	capture      bool
	jsonLog      bool
	render       bool
	kafkaEnabled bool
	kafkaBrokers []string
	kafkaTopic   string
	numWorkers   uint
	queueSize    uint

	configDir string
	debug     bool

	logger *slog.Logger
}

func NewDecodeCmd() *cobra.Command {
	cmder := &decodeCommander{}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: decodeShortDesc,
		Long:  decodeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, decodeFlags, registryKeys)

			cmder.dialectName = v.GetString("decode.dialect")
			cmder.capture = v.GetBool("decode.capture")
			cmder.jsonLog = v.GetBool("log.json")
			cmder.kafkaEnabled = v.GetBool("kafka.enabled")
			cmder.kafkaBrokers = v.GetStringSlice("kafka.brokers")
			cmder.kafkaTopic = v.GetString("kafka.topic")
			cmder.numWorkers = v.GetUint("worker.num_workers")
			cmder.queueSize = v.GetUint("worker.queue_size")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			input := ""
			if len(args) == 1 {
				input = args[0]
			}

			return cmder.run(input)
		},
	}

	config.AddStringFlag(cmd, decodeFlags, config.FlagDialect, &cmder.dialectName)
	config.AddBoolFlag(cmd, decodeFlags, config.FlagCapture, &cmder.capture)
	config.AddBoolFlag(cmd, decodeFlags, config.FlagLogJSON, &cmder.jsonLog)
	config.AddBoolFlag(cmd, decodeFlags, config.FlagKafkaEnabled, &cmder.kafkaEnabled)
	config.AddStringSliceFlag(cmd, decodeFlags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, decodeFlags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddUintFlag(cmd, decodeFlags, config.FlagNumWorkers, &cmder.numWorkers)
	config.AddUintFlag(cmd, decodeFlags, config.FlagQueueSize, &cmder.queueSize)

	cmd.Flags().BoolVarP(&cmder.render, "render", "r", false, "Render final message content as markdown")

	return cmd
}

func (c *decodeCommander) run(input string) error {
	c.logger = c.newLogger()

	src, closeSrc, err := openInput(input)
	if err != nil {
		return err
	}
	defer closeSrc()

	if c.capture {
		capturePath, captureFile, err := c.openCapture()
		if err != nil {
			return err
		}
		defer captureFile.Close()

		src = io.TeeReader(src, captureFile)
		c.logger.Info("capturing raw stream", "path", capturePath)
	}

	sink := accumulator.SinkFunc(func(d llm.Delta) {
		if !c.render && d.Content != nil {
			fmt.Print(*d.Content)
		}
	})

	sess, err := c.decodeStream(src, sink)
	if err != nil {
		return err
	}
	if !c.render {
		fmt.Println()
	}

	if !sess.Done() {
		c.logger.Warn("stream ended before completion, cancelling open messages")
		sess.Cancel()
	}

	messages := sess.Messages()
	usage := sess.Usage()
	c.printSummary(messages, usage)

	if c.kafkaEnabled && len(messages) > 0 {
		if err := c.publish(messages, usage); err != nil {
			return err
		}
	}

	return nil
}

// decodeStream feeds the source into a decode session chunk by chunk. With
// dialect "auto" raw text is buffered until the first data-bearing frame
// identifies the dialect, then the buffered text is replayed.
func (c *decodeCommander) decodeStream(src io.Reader, sink accumulator.Sink) (*decoder.Session, error) {
	var sess *decoder.Session

	if c.dialectName != "auto" {
		d, err := dialect.New(c.dialectName)
		if err != nil {
			return nil, err
		}
		sess = decoder.NewSession(d, decoder.WithSink(sink), decoder.WithLogger(c.logger))
	}

	det := dialect.NewDetector()
	var pending strings.Builder

	buf := make([]byte, 4096)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])

			if sess == nil {
				pending.WriteString(chunk)
				if d, ok := sniffDialect(det, pending.String()); ok {
					c.logger.Info("detected dialect", "dialect", d.Name())
					c.dialectName = d.Name()
					sess = decoder.NewSession(d, decoder.WithSink(sink), decoder.WithLogger(c.logger))
					chunk = pending.String()
				} else {
					chunk = ""
				}
			}

			if sess != nil && chunk != "" {
				if _, err := sess.Feed(chunk); err != nil {
					return sess, err
				}
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return sess, fmt.Errorf("reading stream: %w", readErr)
		}
	}

	if sess == nil {
		return nil, fmt.Errorf("could not detect dialect from stream (tried: %s)",
			strings.Join(dialect.Supported(), ", "))
	}

	return sess, nil
}

// sniffDialect parses complete frames out of the accumulated text and runs
// the detector on the first frame carrying a data payload.
func sniffDialect(det *dialect.Detector, text string) (dialect.Dialect, bool) {
	frames, _ := sse.Split("", text)
	for _, f := range frames {
		ev, ok := sse.ParseFrame(f)
		if !ok || ev.Data == "" {
			continue
		}
		if d, found := det.Detect([]byte(ev.Data)); found {
			return d, true
		}
	}
	return nil, false
}

func (c *decodeCommander) printSummary(messages []llm.Message, usage llm.Usage) {
	fmt.Println()

	for _, msg := range messages {
		fmt.Printf("  %s %s  %s\n",
			cliui.StatusMark(string(msg.Status)),
			cliui.RoleStyle.Render(string(msg.Role)),
			cliui.DimStyle.Render(fmt.Sprintf("index=%d status=%s stop=%s", msg.Index, msg.Status, msg.StopReason)),
		)

		if msg.IsFunctionCall() {
			fmt.Printf("    %s %s\n",
				cliui.KeyStyle.Render("function:"),
				cliui.ValueStyle.Render(msg.FunctionName),
			)
			if msg.Arguments != "" {
				fmt.Printf("    %s %s\n",
					cliui.KeyStyle.Render("arguments:"),
					cliui.ValueStyle.Render(msg.Arguments),
				)
			}
		}

		if c.render && msg.Content != "" {
			rendered, err := cliui.RenderMarkdown(msg.Content)
			if err != nil {
				c.logger.Warn("markdown rendering failed, printing raw content", "error", err)
				rendered = msg.Content
			}
			fmt.Println(rendered)
		}
	}

	if !usage.Empty() {
		fmt.Printf("\n  %s %s\n",
			cliui.KeyStyle.Render("usage:"),
			cliui.DimStyle.Render(fmt.Sprintf("prompt=%d completion=%d total=%d",
				usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)),
		)
	}
}

func (c *decodeCommander) publish(messages []llm.Message, usage llm.Usage) error {
	publisher, err := kafka.NewPublisher(c.kafkaBrokers, c.kafkaTopic, c.logger)
	if err != nil {
		return fmt.Errorf("creating kafka publisher: %w", err)
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher:  publisher,
		NumWorkers: c.numWorkers,
		QueueSize:  c.queueSize,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}

	pool.Enqueue(worker.Job{
		Dialect:  c.dialectName,
		Messages: messages,
		Usage:    usage,
	})

	// Close drains the queue before returning.
	pool.Close()

	return nil
}

func (c *decodeCommander) newLogger() *slog.Logger {
	opts := []logger.Option{
		logger.WithWriter(os.Stderr),
		logger.WithDebug(c.debug),
	}
	if c.jsonLog {
		return logger.New(append(opts, logger.WithJSON(true))...)
	}
	return logger.Auto(opts...)
}

func (c *decodeCommander) openCapture() (string, *os.File, error) {
	ddm := dotdir.NewManager()
	path, err := ddm.NewCapturePath(c.configDir, c.dialectName)
	if err != nil {
		return "", nil, fmt.Errorf("resolving capture path: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("creating capture file: %w", err)
	}

	return path, f, nil
}

func openInput(input string) (io.Reader, func() error, error) {
	if input == "" || input == "-" {
		return os.Stdin, func() error { return nil }, nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input: %w", err)
	}

	return f, f.Close, nil
}
