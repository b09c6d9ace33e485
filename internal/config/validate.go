package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"xnbconv/internal/extract"
	"xnbconv/internal/xnb"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := xnb.NewCompressor(c.Compressor.Backend, c.Compressor.Command, c.Compressor.Args); err != nil {
		return err
	}
	if err := validateTemplate("extractor.args", c.Extractor.Args); err != nil {
		return err
	}
	if err := validateTemplate("extractor.wavebank_args", c.Extractor.WaveBankArgs); err != nil {
		return err
	}
	return nil
}

// validateTemplate requires a non-empty argument template to reference the input.
func validateTemplate(key string, args []string) error {
	if len(args) == 0 {
		return nil
	}
	for _, a := range args {
		if strings.Contains(a, extract.PlaceholderInput) {
			return nil
		}
	}
	return errors.New(key + " must reference " + extract.PlaceholderInput)
}
