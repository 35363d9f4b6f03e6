package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xavl/xlog"
)

var version = "v0.1.0"

type banner string

func (b banner) JSON() string      { return fmt.Sprintf("%q", string(b)) }
func (b banner) PlainText() string { return string(b) }

const asciiLogo = `
 ┌─┐┬  ┬┬  ┌─┐┌┬┐┬
 ├─┤└┐┌┘│  │   │ │
 ┴ ┴ └┘ ┴─┘└─┘ ┴ ┴─┘
AVL index replay and bench tool [Version: %s]
`

type globalFlags struct {
	level   string
	plain   bool
	logFile string
}

func (f *globalFlags) logger() xlog.XLogger {
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerStdErrWriter(),
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(f.level)),
		xlog.WithXLoggerContextFieldExtract(ScenarioContextKey),
	}
	if f.plain {
		opts = append(opts,
			xlog.WithXLoggerEncoder(xlog.PlainText),
			xlog.WithXLoggerLevelEncoder(zapcore.CapitalColorLevelEncoder),
			xlog.WithXLoggerTimeEncoder(zapcore.TimeEncoderOfLayout(time.DateTime)),
		)
	}
	if f.logFile != "" {
		opts = append(opts, xlog.WithXLoggerFileWriter(filepath.Dir(f.logFile), filepath.Base(f.logFile)))
	}
	return xlog.NewXLogger(opts...)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	logo := fmt.Sprintf(asciiLogo, version)

	var cmdRun = &cobra.Command{
		Use:   "run",
		Short: "Replay a YAML scenario against an AVL tree",
		Long:  fmt.Sprintf("%s\n%s", logo, "Run replays every op of the scenario file and checks the tree after each one"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.logger()
			defer func() {
				_ = logger.Close()
			}()
			path, _ := cmd.Flags().GetString("file")
			checkEvery, _ := cmd.Flags().GetInt("check-every")
			sc, err := LoadScenarioFile(path)
			if err != nil {
				logger.ErrorStack(err, "load scenario failed")
				return err
			}
			report, err := NewRunner(logger, cmd.OutOrStdout(), checkEvery).Run(cmd.Context(), sc)
			if report != nil {
				if werr := writeReport(cmd.OutOrStdout(), report); werr != nil {
					return werr
				}
			}
			if err != nil {
				logger.ErrorStack(err, "scenario failed")
			}
			return err
		},
	}
	cmdRun.Flags().StringP("file", "f", "", "scenario file in YAML")
	cmdRun.Flags().Int("check-every", 1, "validate the tree after every n-th op, 0 disables it")
	_ = cmdRun.MarkFlagRequired("file")

	benchCfg := BenchConfig{}
	var cmdBench = &cobra.Command{
		Use:   "bench",
		Short: "Insert, find and remove generated keys",
		Long:  fmt.Sprintf("%s\n%s", logo, "Bench fills a tree with generated keys, probes and removes them"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.logger()
			defer func() {
				_ = logger.Close()
			}()
			report, err := RunBench(cmd.Context(), logger, benchCfg)
			if report != nil {
				if werr := writeReport(cmd.OutOrStdout(), report); werr != nil {
					return werr
				}
			}
			if err != nil {
				logger.ErrorStack(err, "bench failed")
			}
			return err
		},
	}
	cmdBench.Flags().IntVarP(&benchCfg.N, "count", "n", 100000, "number of generated keys")
	cmdBench.Flags().Uint64Var(&benchCfg.Seed, "seed", 1, "seed of the key generator")
	cmdBench.Flags().IntVar(&benchCfg.CheckEvery, "check-every", 0, "validate the tree after every n-th op, 0 disables it")
	cmdBench.Flags().BoolVar(&benchCfg.Sequential, "seq", false, "generate ascending keys instead of random ones")
	cmdBench.Flags().Float64Var(&benchCfg.RemoveRatio, "remove-ratio", 0.5, "share of the keys removed after the inserts")

	var cmdVersion = &cobra.Command{
		Use:   "version",
		Short: "Print avlctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := flags.logger()
			defer func() {
				_ = logger.Close()
			}()
			logger.Banner(banner(logo))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	var rootCmd = &cobra.Command{
		Use:           "avlctl",
		Version:       version,
		Long:          logo,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.level, "log-level", envOr("XLOG_LVL", "info"), "DEBUG, INFO, WARN or ERROR")
	rootCmd.PersistentFlags().BoolVar(&flags.plain, "plain", false, "plain text logs instead of JSON")
	rootCmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "also append the logs to this file")
	rootCmd.AddCommand(cmdRun, cmdBench, cmdVersion)
	return rootCmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		stop()
		os.Exit(1)
	}
}
