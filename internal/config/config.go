// Package config loads, normalizes, and validates persisted xnbconv settings.
//
// Settings live in a TOML file under the user configuration directory. A
// missing file is not an error; Load returns defaults. Command-line flags
// override these values per run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Transcoder configures the external audio transcoder.
type Transcoder struct {
	FFmpegPath string `toml:"ffmpeg_path"`
}

// Compressor configures the container compression backend.
type Compressor struct {
	Backend string   `toml:"backend"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Extractor configures the external decode-direction tool.
type Extractor struct {
	Command      string   `toml:"command"`
	Args         []string `toml:"args"`
	WaveBankArgs []string `toml:"wavebank_args"`
}

// Config holds every persisted setting.
type Config struct {
	CompressImages       bool   `toml:"compress_images"`
	PremultiplyAlpha     bool   `toml:"premultiply_alpha"`
	HighProfile          bool   `toml:"high_profile"`
	CompletionSound      bool   `toml:"completion_sound"`
	AutoCloseProgress    bool   `toml:"auto_close_progress"`
	HonorExifOrientation bool   `toml:"honor_exif_orientation"`
	LogDir               string `toml:"log_dir"`
	LogLevel             string `toml:"log_level"`
	ScratchDir           string `toml:"scratch_dir"`

	Transcoder Transcoder `toml:"transcoder"`
	Compressor Compressor `toml:"compressor"`
	Extractor  Extractor  `toml:"extractor"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CompressImages:       true,
		PremultiplyAlpha:     true,
		HonorExifOrientation: true,
		LogDir:               defaultLogDir(),
		LogLevel:             "warn",
		ScratchDir:           filepath.Join(os.TempDir(), "xnbconv"),
		Transcoder:           Transcoder{FFmpegPath: "ffmpeg"},
		Compressor:           Compressor{Backend: "xcompress"},
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, "xnbconv", "config.toml"), nil
}

// Load reads the file at path, or the default location when path is empty.
// It returns the config, the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// TranscodeDir is the scratch subdirectory for transcoded audio.
func (c *Config) TranscodeDir() string {
	return filepath.Join(c.ScratchDir, "transcode")
}

func resolvePath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		def, err := DefaultPath()
		if err != nil {
			return "", false, err
		}
		path = def
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = defaultLogDir()
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	if strings.TrimSpace(c.ScratchDir) == "" {
		c.ScratchDir = Default().ScratchDir
	}
	if c.ScratchDir, err = expandPath(c.ScratchDir); err != nil {
		return fmt.Errorf("scratch_dir: %w", err)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	c.Compressor.Backend = strings.ToLower(strings.TrimSpace(c.Compressor.Backend))
	c.Transcoder.FFmpegPath = strings.TrimSpace(c.Transcoder.FFmpegPath)
	if c.Transcoder.FFmpegPath == "" {
		c.Transcoder.FFmpegPath = "ffmpeg"
	}
	c.Extractor.Command = strings.TrimSpace(c.Extractor.Command)
	return nil
}

func defaultLogDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "xnbconv", "logs")
	}
	return filepath.Join(os.TempDir(), "xnbconv", "logs")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
