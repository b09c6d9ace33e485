package convert

import (
	"context"
	"errors"
	"io"
	"os"

	"xnbconv/internal/xnb"
	"xnbconv/pkg/imgutil"
)

// SoundEffectReader is the reader declared for sound assets.
const SoundEffectReader = "Microsoft.Xna.Framework.Content.SoundEffectReader"

const waveFormatBlockSize = 18

// AudioOptions controls sound encoding.
type AudioOptions struct {
	// Transcoder converts non-WAV inputs. Nil rejects them.
	Transcoder Transcoder
	// Scratch holds transcoded intermediates; DefaultScratch when nil.
	Scratch *Scratch
}

// ConvertAudio validates the audio at inputPath, transcoding it to WAV first
// when needed, and writes a sound-effect container. It returns the written path.
func ConvertAudio(ctx context.Context, inputPath, outputPath string, opts AudioOptions) (string, error) {
	outputPath = OutputPath(outputPath)
	if err := checkInput(inputPath); err != nil {
		return "", err
	}

	wavPath := inputPath
	if imgutil.Ext(inputPath) != ".wav" {
		tmp, err := transcodeToScratch(ctx, inputPath, opts)
		if tmp != "" {
			defer os.Remove(tmp)
		}
		if err != nil {
			return "", err
		}
		wavPath = tmp
	}

	wave, err := readWave(wavPath)
	if err != nil {
		return "", err
	}

	asset := SoundAsset(wave)
	err = writeOutput(outputPath, func(w io.Writer) error {
		_, err := xnb.Encode(ctx, w, asset, xnb.Options{})
		return err
	})
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

func transcodeToScratch(ctx context.Context, inputPath string, opts AudioOptions) (string, error) {
	if opts.Transcoder == nil {
		return "", &TranscodeError{Path: inputPath, Err: errors.New("no transcoder configured")}
	}
	scratch := opts.Scratch
	if scratch == nil {
		scratch = DefaultScratch()
	}
	tmp, err := scratch.Path(".wav")
	if err != nil {
		return "", &TranscodeError{Path: inputPath, Err: err}
	}
	if err := opts.Transcoder.Transcode(ctx, inputPath, tmp); err != nil {
		if ctx.Err() != nil {
			return tmp, ctx.Err()
		}
		return tmp, &TranscodeError{Path: inputPath, Err: err}
	}
	return tmp, nil
}

func readWave(path string) (*Wave, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseWave(f)
}

// SoundAsset builds the sound-effect asset for a validated wave.
func SoundAsset(w *Wave) xnb.Asset {
	p := xnb.NewPayloadWriter(4 + waveFormatBlockSize + 4 + len(w.Data) + 12)
	p.Int32(waveFormatBlockSize)
	p.Uint16(w.FormatTag)
	p.Uint16(w.Channels)
	p.Uint32(w.SampleRate)
	p.Uint32(w.AvgBytesRate)
	p.Uint16(w.BlockAlign)
	p.Uint16(w.BitsPerSample)
	p.Uint16(0) // cbSize
	p.Uint32(uint32(len(w.Data)))
	p.Raw(w.Data)
	p.Int32(0) // loop start
	p.Uint32(w.LoopLength())
	p.Uint32(w.DurationMillis())

	return xnb.Asset{
		Readers: []xnb.TypeReader{{Name: SoundEffectReader}},
		Payload: p.Bytes(),
	}
}
