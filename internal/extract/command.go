package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Placeholders substituted into configured argument templates.
const (
	PlaceholderInput  = "{input}"
	PlaceholderOutput = "{output}"
	PlaceholderDir    = "{outdir}"
)

// ErrNotConfigured is returned when no extraction tool is set up.
var ErrNotConfigured = errors.New("no extractor command configured")

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Option configures a Command.
type Option func(*Command)

// WithRunner overrides how the tool is executed.
func WithRunner(r Runner) Option {
	return func(c *Command) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Command) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Command drives an external extraction tool configured by argument templates.
type Command struct {
	binary       string
	args         []string
	waveBankArgs []string
	runner       Runner
	logger       *zap.Logger
}

// NewCommand builds a Command. Empty templates default to the input and
// output paths (or output directory for wave banks) as positional arguments.
func NewCommand(binary string, args, waveBankArgs []string, opts ...Option) *Command {
	c := &Command{
		binary:       strings.TrimSpace(binary),
		args:         args,
		waveBankArgs: waveBankArgs,
		runner:       execRunner{},
		logger:       zap.NewNop(),
	}
	if len(c.args) == 0 {
		c.args = []string{PlaceholderInput, PlaceholderOutput}
	}
	if len(c.waveBankArgs) == 0 {
		c.waveBankArgs = []string{PlaceholderInput, PlaceholderDir}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Command) Extract(ctx context.Context, inputPath, outputPath string, include Include) (bool, error) {
	if !include.Assets() {
		return false, nil
	}
	kind, err := Inspect(inputPath)
	if err != nil {
		return false, err
	}
	if !include.allows(kind) {
		c.logger.Debug("skipping excluded asset", zap.String("path", inputPath), zap.Stringer("kind", kind))
		return false, nil
	}

	outputPath = OutputPath(outputPath, kind)
	if err := c.run(ctx, c.args, inputPath, outputPath, filepath.Dir(outputPath)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Command) ExtractWaveBank(ctx context.Context, inputPath, outputDir string) (bool, error) {
	if err := VerifyWaveBank(inputPath); err != nil {
		return false, err
	}
	if err := c.run(ctx, c.waveBankArgs, inputPath, outputDir, outputDir); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Command) run(ctx context.Context, template []string, input, output, dir string) error {
	if c.binary == "" {
		return ErrNotConfigured
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	replacer := strings.NewReplacer(
		PlaceholderInput, input,
		PlaceholderOutput, output,
		PlaceholderDir, dir,
	)
	args := make([]string, len(template))
	for i, a := range template {
		args[i] = replacer.Replace(a)
	}

	c.logger.Debug("running extractor", zap.String("binary", c.binary), zap.Strings("args", args))
	out, err := c.runner.Run(ctx, c.binary, args)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", filepath.Base(c.binary), err, msg)
		}
		return fmt.Errorf("%s: %w", filepath.Base(c.binary), err)
	}
	return nil
}
