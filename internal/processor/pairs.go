package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Pair is a validated input with the output it maps to.
type Pair struct {
	Input  string
	Output string
}

// ResolvePairs matches inputs to outputs for mode and validates them before
// anything is touched. Every problem found is returned; pairs is nil when any
// error is.
func ResolvePairs(mode Mode, inputs, outputs []string) ([]Pair, []error) {
	if len(inputs) == 0 {
		return nil, []error{errors.New("no input files given")}
	}
	if len(outputs) == 0 {
		if mode.IsCopy() {
			return nil, []error{fmt.Errorf("%s requires an output path for every input", mode)}
		}
		outputs = inputs
	}
	if len(inputs) != len(outputs) {
		return nil, []error{fmt.Errorf("got %d inputs but %d outputs", len(inputs), len(outputs))}
	}

	var errs []error
	pairs := make([]Pair, 0, len(inputs))
	for i := range inputs {
		pair, err := resolvePair(mode, inputs[i], outputs[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pairs = append(pairs, pair)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return pairs, nil
}

func resolvePair(mode Mode, input, output string) (Pair, error) {
	in, err := filepath.Abs(input)
	if err != nil {
		return Pair{}, fmt.Errorf("input %q: %w", input, err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return Pair{}, fmt.Errorf("output %q: %w", output, err)
	}

	inInfo, err := os.Stat(in)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Pair{}, fmt.Errorf("input not found: %s", in)
		}
		return Pair{}, fmt.Errorf("input %s: %w", in, err)
	}
	if mode.IsCopy() && filepath.Clean(in) == filepath.Clean(out) {
		return Pair{}, fmt.Errorf("input and output are the same path: %s", in)
	}

	if outInfo, err := os.Stat(out); err == nil && in != out {
		switch {
		case inInfo.IsDir() && !outInfo.IsDir():
			return Pair{}, fmt.Errorf("input %s is a directory but output %s is a file", in, out)
		case !inInfo.IsDir() && outInfo.IsDir():
			return Pair{}, fmt.Errorf("input %s is a file but output %s is a directory", in, out)
		}
	}
	return Pair{Input: in, Output: out}, nil
}
