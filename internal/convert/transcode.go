package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Transcoder turns an arbitrary audio file into a PCM WAV file.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// FFmpeg transcodes through an ffmpeg binary.
type FFmpeg struct {
	Path string
}

// Available reports whether the configured binary resolves on PATH.
func (f FFmpeg) Available() bool {
	_, err := exec.LookPath(f.binary())
	return err == nil
}

func (f FFmpeg) binary() string {
	if p := strings.TrimSpace(f.Path); p != "" {
		return p
	}
	return "ffmpeg"
}

func (f FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", inputPath,
		"-vn", "-acodec", "pcm_s16le",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, f.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Scratch is a private working directory for intermediate files. The
// directory is created on first use and shared by every caller holding the
// same Scratch.
type Scratch struct {
	root string

	once sync.Once
	err  error
}

// NewScratch returns a scratch area rooted at root.
func NewScratch(root string) *Scratch {
	return &Scratch{root: root}
}

var (
	defaultScratchOnce sync.Once
	defaultScratch     *Scratch
)

// DefaultScratch is the process-wide scratch area under the OS temp directory.
func DefaultScratch() *Scratch {
	defaultScratchOnce.Do(func() {
		defaultScratch = NewScratch(filepath.Join(os.TempDir(), "xnbconv", "transcode"))
	})
	return defaultScratch
}

// Dir returns the scratch directory, creating it if needed.
func (s *Scratch) Dir() (string, error) {
	s.once.Do(func() {
		if strings.TrimSpace(s.root) == "" {
			s.err = errors.New("scratch directory not configured")
			return
		}
		s.err = os.MkdirAll(s.root, 0o755)
	})
	return s.root, s.err
}

// Path returns a fresh, collision-resistant file path with the given extension.
func (s *Scratch) Path(ext string) (string, error) {
	dir, err := s.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, uuid.NewString()+ext), nil
}
