package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/keagan/reelsense/internal/config"
	"github.com/keagan/reelsense/internal/export"
	"github.com/keagan/reelsense/internal/ffmpeg"
	"github.com/keagan/reelsense/internal/logging"
	"github.com/keagan/reelsense/internal/metrics"
	"github.com/keagan/reelsense/internal/pipeline"
	"github.com/keagan/reelsense/internal/watch"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile     string
	verbose     bool
	logJSON     bool
	metricsAddr string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "reelsense",
	Short:         "reelsense - short-video content fusion and reasoning readiness",
	Long:          "Segments short videos into scenes, fuses speech and on-screen text per scene, and decides whether the content is ready for reasoning.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		logging.Init(verbose, logJSON)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if metricsAddr != "" {
			cfg.Metrics.Addr = metricsAddr
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reelsense.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log JSON lines instead of console output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	analyzeCmd.Flags().String("out", "", "output directory (default from config)")
	analyzeCmd.Flags().Bool("no-audio", false, "treat the videos as having no audio track")
	analyzeCmd.Flags().Bool("print", false, "print the result JSON to stdout instead of writing files")

	watchCmd.Flags().String("out", "", "output directory (default from config)")
	watchCmd.Flags().Duration("settle", 3*time.Second, "how long a file must stay unchanged before it is processed")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

// newPipeline builds the pipeline and starts the metrics endpoint when configured.
// The returned shutdown must be called when the command is done.
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	logger := logging.WithComponent("cli")

	var rec *metrics.Recorder
	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		rec = metrics.New()
		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server failed")
			}
		}()
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
	}

	pipe, err := pipeline.NewFromConfig(ctx, logging.NewLogger(), cfg, rec)
	if err != nil {
		if srv != nil {
			_ = srv.Close()
		}
		return nil, nil, err
	}

	shutdown := func() {
		if err := pipe.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing pipeline")
		}
		if srv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}
	}
	return pipe, shutdown, nil
}

func outputDir(cmd *cobra.Command, cfg *config.Config) string {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return out
	}
	return cfg.Output.Dir
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [video...]",
	Short: "Analyze videos and write fused content and readiness verdicts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		out := outputDir(cmd, cfg)
		printJSON, _ := cmd.Flags().GetBool("print")

		var opts pipeline.AnalyzeOptions
		if noAudio, _ := cmd.Flags().GetBool("no-audio"); noAudio {
			hasAudio := false
			opts.HasAudio = &hasAudio
		}

		pipe, shutdown, err := newPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		logger := logging.WithComponent("cli")
		var printer *export.Printer
		if printJSON {
			printer = export.NewPrinter(os.Stdout)
		}

		var bar *progressbar.ProgressBar
		if len(args) > 1 && !printJSON {
			bar = progressbar.NewOptions(len(args),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("analyzing"),
				progressbar.OptionShowCount(),
			)
		}

		var g errgroup.Group
		g.SetLimit(max(cfg.Pipeline.Concurrency, 1))

		failed := make([]error, len(args))
		for i, video := range args {
			g.Go(func() error {
				failed[i] = analyzeOne(ctx, logger, pipe, video, opts, out, printer)
				if bar != nil {
					_ = bar.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}

		var n int
		for i, err := range failed {
			if err != nil {
				n++
				logger.Error().Err(err).Str("video", args[i]).Msg("analysis failed")
			}
		}
		if n > 0 {
			return fmt.Errorf("%d of %d videos failed", n, len(args))
		}
		return nil
	},
}

// analyzeOne analyzes a video and either prints the result through printer or,
// when printer is nil, writes it under out.
func analyzeOne(ctx context.Context, logger zerolog.Logger, pipe *pipeline.Pipeline, video string, opts pipeline.AnalyzeOptions, out string, printer *export.Printer) error {
	res, err := pipe.Analyze(ctx, video, opts)
	if err != nil {
		return err
	}

	if printer != nil {
		return printer.Print(res)
	}

	dir, err := export.WriteResult(out, res)
	if err != nil {
		return err
	}

	logger.Info().
		Str("video", video).
		Str("output", dir).
		Bool("reasoning_ready", res.Readiness.ReasoningReady).
		Str("content_quality", string(res.Readiness.ContentQuality)).
		Str("reason", res.Readiness.Reason).
		Msg("analysis complete")
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch an inbox directory and analyze every new video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		out := outputDir(cmd, cfg)
		settle, _ := cmd.Flags().GetDuration("settle")

		pipe, shutdown, err := newPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		logger := logging.WithComponent("cli")
		w := watch.New(logging.NewLogger(), args[0], settle, nil, func(ctx context.Context, path string) {
			if err := analyzeOne(ctx, logger, pipe, path, pipeline.AnalyzeOptions{}, out, nil); err != nil {
				logger.Error().Err(err).Str("video", path).Msg("analysis failed")
			}
		})
		return w.Run(ctx)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [video]",
	Short: "Print video metadata and ingest validation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		exec, err := ffmpeg.NewWithPaths(logging.NewLogger(), cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(ctx, args[0])
		if err != nil {
			return err
		}

		summary := pipeline.Summarize(info, pipeline.AnalyzeOptions{})
		report := struct {
			Video      pipeline.VideoSummary `json:"video"`
			Validation pipeline.Validation   `json:"validation"`
		}{summary, pipeline.Validate(summary, false, cfg.Validation)}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *config.FromContext(cmd.Context())
		if cfg.STT.APIKey != "" {
			cfg.STT.APIKey = "********"
		}
		if cfg.Cache.Password != "" {
			cfg.Cache.Password = "********"
		}
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}
