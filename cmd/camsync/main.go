// Package main provides the CLI entry point for camsync.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/camsync/pkg/adapters/catalogsink"
	"github.com/user/camsync/pkg/adapters/ffmpegsource"
	"github.com/user/camsync/pkg/adapters/framesink"
	"github.com/user/camsync/pkg/adapters/ggrenderer"
	"github.com/user/camsync/pkg/adapters/imageseq"
	"github.com/user/camsync/pkg/adapters/logger"
	"github.com/user/camsync/pkg/adapters/mosaicsink"
	"github.com/user/camsync/pkg/adapters/nullsink"
	"github.com/user/camsync/pkg/adapters/osfilesystem"
	"github.com/user/camsync/pkg/config"
	"github.com/user/camsync/pkg/metrics"
	"github.com/user/camsync/pkg/orchestrator"
	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
	"github.com/user/camsync/pkg/stages/discover"
	"github.com/user/camsync/pkg/stages/open"
	"github.com/user/camsync/pkg/stages/persist"
	"github.com/user/camsync/pkg/summarizer"
	"github.com/user/camsync/pkg/taskpool"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Extract ExtractCmd `cmd:"" help:"Synchronize camera streams into frame batches."`
	Copy    CopyCmd    `cmd:"" help:"Mirror video files into an output directory."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// ExtractCmd defines the extract subcommand.
type ExtractCmd struct {
	// Required arguments
	Input string `arg:"" help:"Directory holding the camera streams."`

	// Output
	Output  *string `short:"o" help:"Output directory (default: output)."`
	Config  string  `short:"C" type:"existingfile" help:"YAML configuration file."`
	Summary *string `short:"s" help:"Output execution summary to file (Markdown format)."`

	// Discovery
	Extensions     []string `help:"Video file extensions (default: .mp4,.avi,.mov)."`
	ImageSequences bool     `help:"Also treat cam_<n> image directories as streams."`
	SequenceFPS    *float64 `help:"Frame rate of image sequences (0 = unknown)."`

	// Frames
	ImageFormat *string `short:"f" help:"Frame image format (png, jpeg)."`
	Quality     *int    `short:"q" help:"JPEG quality (1-100)."`
	Scale       *int    `help:"Maximum frame width in pixels (0 = original)."`
	NoImages    bool    `help:"Do not write frame images."`

	// Extra outputs
	Mosaic        bool    `help:"Write one tiled overview image per batch."`
	MosaicColumns *int    `help:"Columns of the overview image (0 = automatic)."`
	Catalog       *string `help:"SQLite catalog of batches and frames."`

	// Synchronization
	Sequential bool `help:"Read the streams in lock step from a single goroutine."`
	Realtime   bool `help:"Pace every stream at its frame rate."`

	// Decoding
	FFmpegPath *string `help:"Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)."`
	Workers    *int    `short:"w" help:"Streams opened in parallel."`

	// Observability
	MetricsAddr *string `help:"Serve Prometheus metrics on this address (e.g. :9090)."`
	LogLevel    *string `short:"l" help:"Log level (debug, info, warn, error)."`
	LogFile     *string `help:"Also write logs to this file, rotated."`
	Quiet       bool    `short:"Q" help:"Suppress all log output."`
}

// CopyCmd defines the copy subcommand.
type CopyCmd struct {
	Input      string   `arg:"" help:"Directory holding the camera streams."`
	Output     string   `short:"o" required:"" help:"Output directory."`
	Extensions []string `default:".mp4,.avi,.mov" help:"Video file extensions."`
	Workers    int      `short:"w" default:"4" help:"Parallel copy workers."`
	LogLevel   string   `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	Quiet      bool     `short:"Q" help:"Suppress all log output."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("camsync"),
		kong.Description(l10n.T("Synchronize frames from multiple cameras.")),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the extract command.
func (cmd *ExtractCmd) Run() error {
	cfg, err := cmd.buildConfig()
	if err != nil {
		return err
	}
	runID := orchestrator.NewRunID()

	log, closeLog, err := newLogger(cfg, cmd.Quiet, runID)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	ctx, cancel := signalContext(log)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Warn("Metrics listener stopped: %v", err)
			}
		}()
	}

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	if err := fs.MkdirAll(cfg.Output); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	started := time.Now()
	sinks, err := cmd.buildSinks(cfg, runID, started, fs, renderer)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			s.Close()
		}
	}()

	openers := map[pipeline.SourceKind]ports.SourceOpener{
		pipeline.KindVideo:         ffmpegsource.NewOpener(cfg.FFmpegPath, log),
		pipeline.KindImageSequence: imageseq.NewOpener(fs, cfg.SequenceFPS),
	}

	// Create orchestrator
	orch := orchestrator.New(
		discover.NewStage(log),
		open.NewStage(openers, log, cfg.Workers),
		persist.NewStage(sinks, log),
		metrics.NewObserver(),
		log,
	)

	orchConfig := cfg.ToOrchestratorConfig()
	orchConfig.RunID = runID

	result, err := orch.Run(ctx, orchConfig)
	if err != nil {
		return err
	}

	if cfg.Summary != "" {
		summary := buildSummary(cfg, result)
		writer := summarizer.NewWriter(
			summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T), summarizer.WithVersion(version)),
			fs,
		)
		if err := writer.Write(cfg.Summary, summary); err != nil {
			log.Warn("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", cfg.Summary)
		}
	}

	log.Info("Output saved to %s", cfg.Output)
	return nil
}

// buildConfig layers the config file and CLI overrides over the defaults.
func (cmd *ExtractCmd) buildConfig() (config.Config, error) {
	cfg := config.Defaults()
	if cmd.Config != "" {
		loaded, err := config.LoadFromFile(cmd.Config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	cfg.Input = cmd.Input
	if cmd.Output != nil {
		cfg.Output = *cmd.Output
	}
	if cmd.Summary != nil {
		cfg.Summary = *cmd.Summary
	}
	if len(cmd.Extensions) > 0 {
		cfg.Extensions = cmd.Extensions
	}
	if cmd.ImageSequences {
		cfg.ImageSequences = true
	}
	if cmd.SequenceFPS != nil {
		cfg.SequenceFPS = *cmd.SequenceFPS
	}
	if cmd.ImageFormat != nil {
		cfg.ImageFormat = *cmd.ImageFormat
	}
	if cmd.Quality != nil {
		cfg.JPEGQuality = *cmd.Quality
	}
	if cmd.Scale != nil {
		cfg.Scale = *cmd.Scale
	}
	if cmd.Mosaic {
		cfg.Mosaic.Enabled = true
	}
	if cmd.MosaicColumns != nil {
		cfg.Mosaic.Columns = *cmd.MosaicColumns
	}
	if cmd.Catalog != nil {
		cfg.Catalog = *cmd.Catalog
	}
	if cmd.Sequential {
		cfg.Sequential = true
	}
	if cmd.Realtime {
		cfg.Realtime = true
	}
	if cmd.FFmpegPath != nil {
		cfg.FFmpegPath = *cmd.FFmpegPath
	}
	if cmd.Workers != nil {
		cfg.Workers = *cmd.Workers
	}
	if cmd.MetricsAddr != nil {
		cfg.MetricsAddr = *cmd.MetricsAddr
	}
	if cmd.LogLevel != nil {
		cfg.Log.Level = *cmd.LogLevel
	}
	if cmd.LogFile != nil {
		cfg.Log.File = *cmd.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cmd *ExtractCmd) buildSinks(cfg config.Config, runID string, started time.Time, fs ports.FileSystem, renderer ports.Renderer) ([]ports.BatchSink, error) {
	var sinks []ports.BatchSink

	var framePath func(index, id int) string
	if !cmd.NoImages {
		sinks = append(sinks, framesink.New(cfg.Output, fs, renderer, framesink.Options{
			Format:   cfg.Format(),
			Quality:  cfg.JPEGQuality,
			MaxWidth: cfg.Scale,
		}))
		framePath = func(index, id int) string {
			return framesink.FramePath(cfg.Output, index, id, cfg.Format())
		}
	}

	if cfg.Mosaic.Enabled {
		opts := mosaicsink.DefaultOptions()
		opts.Columns = cfg.Mosaic.Columns
		opts.TileWidth = cfg.Mosaic.TileWidth
		opts.Quality = cfg.JPEGQuality
		sinks = append(sinks, mosaicsink.New(cfg.Output, fs, renderer, opts))
	}

	if cfg.Catalog != "" {
		catalog, err := catalogsink.Open(cfg.Catalog, catalogsink.Run{
			ID:        runID,
			Input:     cfg.Input,
			StartedAt: started,
			FramePath: framePath,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, catalog)
	}

	if len(sinks) == 0 {
		sinks = append(sinks, nullsink.New())
	}
	return sinks, nil
}

func buildSummary(cfg config.Config, result orchestrator.RunResult) *summarizer.Summary {
	b := summarizer.NewBuilder().WithRun(summarizer.RunInfo{
		ID:       result.RunID,
		Input:    cfg.Input,
		Output:   cfg.Output,
		Mode:     string(result.Mode),
		Duration: result.Duration,
	})
	for _, s := range result.Streams {
		b.AddStream(s.ID, s.Locator, string(s.Kind), s.Frames)
	}
	for _, s := range result.Excluded {
		reason := ""
		if s.Err != nil {
			reason = s.Err.Error()
		}
		b.AddExcluded(s.ID, s.Locator, string(s.Kind), reason)
	}
	return b.WithSync(summarizer.SyncInfo{
		Batches:      result.Batches,
		Cutoff:       result.Cutoff,
		Received:     result.Received,
		Discarded:    result.Discarded,
		ReferenceFPS: result.ReferenceFPS,
	}).WithOutput(summarizer.OutputInfo{
		Images:  result.Images,
		Mosaic:  cfg.Mosaic.Enabled,
		Catalog: cfg.Catalog,
	}).Build()
}

// Run executes the copy command.
func (cmd *CopyCmd) Run() error {
	var log ports.Logger
	if cmd.Quiet {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cmd.LogLevel))
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	tasks, err := taskpool.CollectTasks(cmd.Input, cmd.Output, cmd.Extensions)
	if err != nil {
		return err
	}
	log.Info("Copying %d videos with %d workers", len(tasks), cmd.Workers)

	result, err := taskpool.NewPool(osfilesystem.New(), cmd.Workers, log).Run(ctx, tasks)
	log.Info("Copied %d videos, %d failed", result.Completed, result.Failed)
	return err
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("camsync version %s", version))
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the console logger and, when configured, a rotated file
// logger tagged with the run id.
func newLogger(cfg config.Config, quiet bool, runID string) (ports.Logger, io.Closer, error) {
	var console ports.Logger
	if quiet {
		console = logger.NewNoop()
	} else {
		console = logger.NewConsole(cfg.LogLevel())
	}

	if cfg.Log.File == "" {
		return console, nopCloser{}, nil
	}

	file, closer, err := logger.NewFile(logger.FileOptions{
		Path:       filepath.Clean(cfg.Log.File),
		Level:      cfg.LogLevel(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, map[string]interface{}{"run_id": runID})
	if err != nil {
		return nil, nil, err
	}
	return logger.Tee(console, file), closer, nil
}
