package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xnbconv/internal/processor"
)

var rootCmd = &cobra.Command{
	Use:   "xnbconv [flags] <input>...",
	Short: "xnbconv - convert game assets to and from XNB containers",
	Long: "xnbconv converts PNG, BMP and JPEG images and WAV (or ffmpeg-readable) audio into XNB\n" +
		"containers, extracts XNB and XWB files through an external tool, runs TConvertScript\n" +
		"batch scripts, and backs up or restores content directories.",
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runMode(cmd, processor.ModeAny, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	registerFlags(rootCmd)
}
