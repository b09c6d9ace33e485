package xnb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// Compressor is a bulk compression backend for container bodies.
type Compressor interface {
	Compress(ctx context.Context, data []byte) ([]byte, error)
	// Available reports whether the backend can run on this machine.
	Available() bool
	// Flag is the header bit that marks a body compressed by this backend.
	Flag() byte
}

// ErrIncompressible is returned when compressing would not shrink the body.
var ErrIncompressible = errors.New("data is incompressible")

// Compressor backends selectable from configuration.
const (
	BackendXCompress = "xcompress"
	BackendLZ4       = "lz4"
	BackendNone      = "none"
)

// NewCompressor returns the backend named by name. An empty or "none" name
// yields nil, which disables compression. command and args only apply to the
// external backend.
func NewCompressor(name, command string, args []string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendNone:
		return nil, nil
	case BackendLZ4:
		return LZ4Compressor{}, nil
	case BackendXCompress:
		return &CommandCompressor{Command: command, Args: args}, nil
	default:
		return nil, fmt.Errorf("compressor backend: unsupported value %q", name)
	}
}

// LZ4Compressor emits a raw LZ4 block, the layout read by MonoGame-style
// runtimes when the 0x40 flag is set.
type LZ4Compressor struct{}

func (LZ4Compressor) Available() bool { return true }

func (LZ4Compressor) Flag() byte { return FlagCompressedLZ4 }

func (LZ4Compressor) Compress(_ context.Context, data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n == 0 {
		return nil, ErrIncompressible
	}
	return dst[:n], nil
}

// CommandCompressor pipes the body through an external LZX compressor that
// reads raw bytes on stdin and writes the compressed stream on stdout.
type CommandCompressor struct {
	Command string
	Args    []string

	once     sync.Once
	resolved string
}

func (c *CommandCompressor) Flag() byte { return FlagCompressedLZX }

func (c *CommandCompressor) Available() bool {
	c.once.Do(func() {
		cmd := strings.TrimSpace(c.Command)
		if cmd == "" {
			return
		}
		if path, err := exec.LookPath(cmd); err == nil {
			c.resolved = path
		}
	})
	return c.resolved != ""
}

func (c *CommandCompressor) Compress(ctx context.Context, data []byte) ([]byte, error) {
	if !c.Available() {
		return nil, fmt.Errorf("compressor %q not found", c.Command)
	}
	cmd := exec.CommandContext(ctx, c.resolved, c.Args...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("run %s: %w", c.Command, err)
		}
		return nil, fmt.Errorf("run %s: %w: %s", c.Command, err, msg)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("run %s: empty output", c.Command)
	}
	return stdout.Bytes(), nil
}
