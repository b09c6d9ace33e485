package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"xnbconv/internal/config"
	"xnbconv/internal/extract"
)

var (
	outputPaths     []string
	compress        bool
	dontCompress    bool
	premultiply     bool
	dontPremultiply bool
	silent          bool
	consoleOnly     bool
	autoClose       bool
	keepOpen        bool
	configPath      string
	logDir          string
	noImages        bool
	noSounds        bool
	noFonts         bool
	noWaveBanks     bool
)

func registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringArrayVarP(&outputPaths, "output", "o", nil, "output path for the input at the same position (repeatable)")
	flags.BoolVar(&compress, "compress", false, "compress converted images")
	flags.BoolVar(&dontCompress, "dont-compress", false, "never compress converted images")
	flags.BoolVar(&premultiply, "premultiply", false, "premultiply image alpha")
	flags.BoolVar(&dontPremultiply, "dont-premultiply", false, "keep image alpha straight")
	flags.BoolVarP(&silent, "silent", "s", false, "print nothing; errors still go to the log file")
	flags.BoolVarP(&consoleOnly, "console", "C", false, "print plain progress lines instead of the interactive view")
	flags.BoolVarP(&autoClose, "auto-close", "a", false, "close the progress view when the run finishes")
	flags.BoolVarP(&keepOpen, "keep-open", "k", false, "keep the progress view open when the run finishes")
	flags.StringVar(&configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/xnbconv/config.toml)")
	flags.StringVar(&logDir, "log", "", "directory for the error log (overrides log_dir)")
	flags.BoolVar(&noImages, "no-images", false, "skip image assets when extracting and converting")
	flags.BoolVar(&noSounds, "no-sounds", false, "skip sound assets when extracting and converting")
	flags.BoolVar(&noFonts, "no-fonts", false, "skip font assets when extracting")
	flags.BoolVar(&noWaveBanks, "no-wavebanks", false, "skip wave banks when extracting")
}

// runFlags are the per-run settings after config and flags are merged.
type runFlags struct {
	compress    bool
	premultiply bool
	autoClose   bool
	include     extract.Include
}

// resolveFlags merges the command line over cfg. Contradictory pairs are
// returned as errors.
func resolveFlags(cfg *config.Config) (runFlags, []error) {
	var errs []error
	conflicts := []struct {
		a, b   string
		va, vb bool
	}{
		{"--compress", "--dont-compress", compress, dontCompress},
		{"--premultiply", "--dont-premultiply", premultiply, dontPremultiply},
		{"--auto-close", "--keep-open", autoClose, keepOpen},
		{"--silent", "--console", silent, consoleOnly},
	}
	for _, c := range conflicts {
		if c.va && c.vb {
			errs = append(errs, fmt.Errorf("%s cannot be used with %s", c.a, c.b))
		}
	}

	rf := runFlags{
		compress:    override(cfg.CompressImages, compress, dontCompress),
		premultiply: override(cfg.PremultiplyAlpha, premultiply, dontPremultiply),
		autoClose:   override(cfg.AutoCloseProgress, autoClose, keepOpen),
		include: extract.Include{
			Images:    !noImages,
			Sounds:    !noSounds,
			Fonts:     !noFonts,
			WaveBanks: !noWaveBanks,
		},
	}
	if rf.include == (extract.Include{}) {
		errs = append(errs, fmt.Errorf("every content kind is excluded"))
	}
	return rf, errs
}

func override(value, on, off bool) bool {
	switch {
	case on:
		return true
	case off:
		return false
	default:
		return value
	}
}
