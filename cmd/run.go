package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xnbconv/internal/config"
	"xnbconv/internal/convert"
	"xnbconv/internal/extract"
	"xnbconv/internal/logging"
	"xnbconv/internal/processor"
	"xnbconv/internal/tui"
	"xnbconv/internal/xnb"
)

var modeCommands = []struct {
	use   string
	short string
	mode  processor.Mode
}{
	{"run", "Extract, convert or run scripts depending on each input's extension", processor.ModeAny},
	{"extract", "Extract XNB and XWB files", processor.ModeExtract},
	{"convert", "Convert images and audio to XNB", processor.ModeConvert},
	{"backup", "Copy every file of the inputs to the outputs", processor.ModeBackup},
	{"restore", "Copy changed or missing files from the inputs back to the outputs", processor.ModeRestore},
	{"script", "Run TConvertScript batch scripts", processor.ModeScript},
}

func init() {
	for _, mc := range modeCommands {
		mode := mc.mode
		rootCmd.AddCommand(&cobra.Command{
			Use:   mc.use + " [flags] <input>...",
			Short: mc.short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMode(cmd, mode, args)
			},
		})
	}
}

func runMode(cmd *cobra.Command, mode processor.Mode, inputs []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}

	rf, errs := resolveFlags(cfg)
	pairs, pairErrs := processor.ResolvePairs(mode, inputs, outputPaths)
	errs = append(errs, pairErrs...)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	stdout := cmd.OutOrStdout()
	interactive := !silent && !consoleOnly && isTerminal(stdout)

	logPath := logging.FileName(cfg.LogDir, time.Now())
	var console io.Writer = cmd.ErrOrStderr()
	if silent || interactive {
		console = io.Discard
	}
	logger, flush, err := logging.New(logging.Options{Level: cfg.LogLevel, Console: console, LogPath: logPath})
	if err != nil {
		return err
	}
	defer func() { _ = flush() }()

	opts, err := buildOptions(cfg, mode, rf, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan processor.Progress, 64)
	uiDone := make(chan struct{})
	switch {
	case silent:
		go func() {
			tui.Drain(updates)
			close(uiDone)
		}()
	case interactive:
		program := tea.NewProgram(tui.NewModel(updates, cancel, !rf.autoClose), tea.WithOutput(stdout))
		go func() {
			runProgram(program.Run, updates, logger)
			close(uiDone)
		}()
	default:
		go func() {
			tui.RunConsole(stdout, updates)
			close(uiDone)
		}()
	}

	started := time.Now()
	summary, runErr := processor.Run(ctx, pairs, opts, updates)
	close(updates)
	<-uiDone
	if runErr != nil {
		return runErr
	}

	if !silent {
		report(stdout, summary, time.Since(started), logPath)
		if cfg.CompletionSound {
			chime(stdout, summary.Errors() > 0)
		}
	}
	return nil
}

func loadConfig() (*config.Config, string, bool, error) {
	path := configPath
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return nil, "", false, err
		}
		path = defaultPath
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, resolved, exists, err
	}
	if logDir != "" {
		abs, err := filepath.Abs(logDir)
		if err != nil {
			return nil, resolved, exists, fmt.Errorf("log directory: %w", err)
		}
		cfg.LogDir = abs
	}
	return cfg, resolved, exists, nil
}

func buildOptions(cfg *config.Config, mode processor.Mode, rf runFlags, logger *zap.Logger) (processor.Options, error) {
	compressor, err := xnb.NewCompressor(cfg.Compressor.Backend, cfg.Compressor.Command, cfg.Compressor.Args)
	if err != nil {
		return processor.Options{}, err
	}
	if rf.compress && compressor != nil && !compressor.Available() {
		logger.Debug("compressor unavailable; writing uncompressed", zap.String("backend", cfg.Compressor.Backend))
	}

	return processor.Options{
		Mode:             mode,
		Compress:         rf.compress,
		Premultiply:      rf.premultiply,
		HiDef:            cfg.HighProfile,
		HonorOrientation: cfg.HonorExifOrientation,
		Include:          rf.include,
		Compressor:       compressor,
		Transcoder:       convert.FFmpeg{Path: cfg.Transcoder.FFmpegPath},
		Scratch:          convert.NewScratch(cfg.TranscodeDir()),
		Extractor: extract.NewCommand(
			cfg.Extractor.Command,
			cfg.Extractor.Args,
			cfg.Extractor.WaveBankArgs,
			extract.WithLogger(logger),
		),
		Logger: logger,
	}, nil
}

// runProgram runs the progress view. If the view fails, the remaining
// updates are drained so the run never blocks on a full channel.
func runProgram(run func() (tea.Model, error), updates <-chan processor.Progress, logger *zap.Logger) {
	if _, err := run(); err != nil {
		logger.Error("progress view failed", zap.Error(err))
		tui.Drain(updates)
	}
}

func report(w io.Writer, summary processor.Summary, elapsed time.Duration, logPath string) {
	fmt.Fprintln(w, tui.RenderSummary(tui.SummaryRows(summary, elapsed)))
	if table := tui.RenderErrorLog(summary.Log); table != "" {
		fmt.Fprintln(w, table)
	}
	fmt.Fprintln(w, tui.CompletionLine(summary, logPath))
}

// chime rings the terminal bell once on success and twice after errors.
func chime(w io.Writer, failed bool) {
	if failed {
		fmt.Fprint(w, "\a\a")
		return
	}
	fmt.Fprint(w, "\a")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
