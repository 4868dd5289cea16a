package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/logship/internal/cliconfig"
	"github.com/bft-labs/logship/pkg/log"
	"github.com/bft-labs/logship/pkg/logship"
	"github.com/bft-labs/logship/plugins/configwatcher"
)

const helpDescription = `
Ship log lines to a Logmatic-compatible HTTP intake.

Lines are read from stdin, or from the given files, batched and posted as
JSON arrays. Delivery never blocks the producer: failed batches are retried
with exponential back-off and, under overload, the oldest lines are dropped.

Configuration comes from flags, LOGSHIP_* environment variables and
~/.logship/config.toml, in that order of precedence.
`

var exampleUsage = strings.TrimSpace(`
  myapp 2>&1 | logship --api-key <key>
  logship --api-key <key> --follow --meta service=api /var/log/api.log
  logship --endpoint http://localhost:8080/v1/input --json events.jsonl
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cliEvents reports dropped records on the CLI log.
type cliEvents struct {
	logship.BaseEventHandler
	log zerolog.Logger
}

func (e cliEvents) OnRecordDropped(ev logship.RecordDroppedEvent) {
	e.log.Warn().Str("reason", ev.Reason).Int("count", ev.Count).Msg("records dropped")
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath     string
		meta        map[string]string
		watchConfig bool
		fromStart   bool
		poll        bool
	)

	logger := cliconfig.Logger()

	root := &cobra.Command{
		Use:          "logship [files...]",
		Short:        "Ship log lines to a Logmatic-compatible HTTP intake",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if changed["meta"] {
				cfg.Meta = make(map[string]any, len(meta))
				for k, v := range meta {
					cfg.Meta[k] = v
				}
			}
			flagCfg := cfg
			flagCfg.Meta = maps.Clone(cfg.Meta)

			resolved, err := cliconfig.Resolve(cfg, cfgFile, changed)
			if err != nil {
				return ewrap.Wrap(err, "load config")
			}
			cfg = resolved
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Follow && len(args) == 0 {
				return ewrap.New("--follow needs at least one file")
			}

			logger.Info().Interface("config", cfg.Masked()).Msg("configuration")

			opts := []logship.Option{
				logship.WithLogger(log.NewZerologAdapterWithLogger(logger)),
				logship.WithEventHandler(cliEvents{log: logger}),
			}
			if watchConfig && cliconfig.FileExists(cfgFile) {
				opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.Config{
					Path: cfgFile,
					Load: func(path string) (logship.BulkOptions, error) {
						c, err := cliconfig.Resolve(flagCfg, path, changed)
						if err != nil {
							return logship.BulkOptions{}, err
						}
						return c.BulkOptions(), nil
					},
				}))
			}

			s, err := logship.New(cfg.ToLogship(), opts...)
			if err != nil {
				return ewrap.Wrap(err, "create shipper")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := s.Start(context.Background()); err != nil {
				return ewrap.Wrap(err, "start shipper")
			}

			emit := func(line string) {
				if cfg.JSON {
					s.Enqueue(line)
					return
				}
				s.Log(cfg.Severity, line, nil)
			}

			var readErr error
			if len(args) == 0 {
				readErr = readLines(ctx, cmd.InOrStdin(), emit)
			} else {
				readErr = tailFiles(ctx, args, tailOptions{
					Follow:    cfg.Follow,
					FromStart: fromStart,
					Poll:      poll,
				}, emit, logger)
			}
			if ctx.Err() != nil {
				logger.Info().Msg("received signal, stopping...")
			}

			// Graceful shutdown drains what is still queued.
			if err := s.Stop(); err != nil {
				return ewrap.Wrap(err, "stop shipper").WithMetadata("pending", s.Pending())
			}
			return readErr
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.logship/config.toml)")
	f.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "full intake URL (overrides the URL derived from --api-key)")
	f.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "API key appended to "+logship.DefaultInputURL)

	f.DurationVar(&cfg.Linger, "linger", cfg.Linger, "how long records wait for company before a send")
	f.IntVar(&cfg.MaxPostCount, "max-post-count", cfg.MaxPostCount, "maximum records per request")
	f.IntVar(&cfg.MaxWaitingCount, "max-waiting-count", cfg.MaxWaitingCount, "maximum queued records, oldest dropped beyond it (-1 unbounded)")
	f.IntVar(&cfg.MaxContentSize, "max-content-size", cfg.MaxContentSize, "maximum bytes of records per request (negative disables)")
	f.DurationVar(&cfg.BackoffBase, "backoff-base", cfg.BackoffBase, "first retry delay after a failed send")
	f.DurationVar(&cfg.BackoffMax, "backoff-max", cfg.BackoffMax, "maximum retry delay")
	f.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "HTTP request timeout (0 disables)")

	f.StringVar(&cfg.LevelKey, "level-key", cfg.LevelKey, "record attribute holding the severity")
	f.StringVar(&cfg.ErrorKey, "error-key", cfg.ErrorKey, "record attribute holding error details")
	f.StringVar(&cfg.Severity, "severity", cfg.Severity, "severity of plain input lines")
	f.StringVar(&cfg.IPTracking, "ip-tracking", cfg.IPTracking, "attribute the intake stores the client IP under")
	f.StringVar(&cfg.UserAgentTracking, "user-agent-tracking", cfg.UserAgentTracking, "attribute the intake stores the user agent under")
	f.BoolVar(&cfg.Compress, "compress", cfg.Compress, "gzip request bodies")
	f.StringToStringVar(&meta, "meta", nil, "attributes added to every record (key=value,...)")

	f.BoolVar(&cfg.JSON, "json", cfg.JSON, "input lines are JSON objects, shipped as-is")
	f.BoolVar(&cfg.Follow, "follow", cfg.Follow, "keep reading files as they grow, across rotations")
	f.BoolVar(&fromStart, "from-start", false, "with --follow, read files from the beginning")
	f.BoolVar(&poll, "poll", false, "poll files instead of using inotify")
	f.BoolVar(&watchConfig, "watch-config", false, "reload batching options when the config file changes")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("logship")
		os.Exit(1)
	}
}
