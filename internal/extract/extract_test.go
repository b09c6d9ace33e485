package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xnbconv/internal/xnb"
)

type fakeRunner struct {
	calls [][]string
	out   []byte
	err   error
}

func (f *fakeRunner) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	return f.out, f.err
}

func writeContainer(t *testing.T, path, reader string) {
	t.Helper()
	var buf bytes.Buffer
	asset := xnb.Asset{Readers: []xnb.TypeReader{{Name: reader}}, Payload: []byte{0, 1, 2, 3}}
	if _, err := xnb.Encode(context.Background(), &buf, asset, xnb.Options{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		reader string
		want   AssetKind
	}{
		{"Microsoft.Xna.Framework.Content.Texture2DReader, Microsoft.Xna.Framework.Graphics, Version=4.0.0.0", AssetImage},
		{"Microsoft.Xna.Framework.Content.SoundEffectReader", AssetSound},
		{"Microsoft.Xna.Framework.Content.SpriteFontReader", AssetFont},
		{"Microsoft.Xna.Framework.Content.DictionaryReader`2", AssetOther},
	}
	for _, tc := range cases {
		if got := Classify([]xnb.TypeReader{{Name: tc.reader}}); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.reader, got, tc.want)
		}
	}
	if Classify(nil) != AssetUnknown {
		t.Error("empty reader table should be unknown")
	}
}

func TestExtractRunsTool(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hero.xnb")
	writeContainer(t, in, "Microsoft.Xna.Framework.Content.Texture2DReader")
	runner := &fakeRunner{}
	c := NewCommand("xnbcli", []string{"unpack", "{input}", "-o", "{output}"}, nil, WithRunner(runner))

	out := filepath.Join(dir, "out", "hero.xnb")
	ok, err := c.Extract(context.Background(), in, out, All())
	if err != nil || !ok {
		t.Fatalf("extract = %v, %v", ok, err)
	}
	want := []string{"xnbcli", "unpack", in, "-o", filepath.Join(dir, "out", "hero.png")}
	if len(runner.calls) != 1 || !equal(runner.calls[0], want) {
		t.Fatalf("calls = %q, want %q", runner.calls, want)
	}
	if info, err := os.Stat(filepath.Join(dir, "out")); err != nil || !info.IsDir() {
		t.Fatal("output directory was not created")
	}
}

func TestExtractHonorsInclude(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hit.xnb")
	writeContainer(t, in, "Microsoft.Xna.Framework.Content.SoundEffectReader")
	runner := &fakeRunner{}
	c := NewCommand("xnbcli", nil, nil, WithRunner(runner))

	ok, err := c.Extract(context.Background(), in, in, Include{Images: true})
	if err != nil || ok {
		t.Fatalf("extract = %v, %v; want skipped", ok, err)
	}
	ok, err = c.Extract(context.Background(), in, in, Include{})
	if err != nil || ok {
		t.Fatalf("extract with nothing included = %v, %v", ok, err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("tool ran for excluded content: %q", runner.calls)
	}
}

func TestExtractRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.xnb")
	if err := os.WriteFile(in, []byte("not a container file"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCommand("xnbcli", nil, nil, WithRunner(&fakeRunner{}))
	_, err := c.Extract(context.Background(), in, in, All())
	var fe *FormatError
	if !errors.As(err, &fe) || !errors.Is(err, xnb.ErrBadMagic) {
		t.Fatalf("got %v, want FormatError wrapping ErrBadMagic", err)
	}
}

func TestExtractToolFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hero.xnb")
	writeContainer(t, in, "Microsoft.Xna.Framework.Content.Texture2DReader")
	c := NewCommand("xnbcli", nil, nil, WithRunner(&fakeRunner{out: []byte("boom\n"), err: errors.New("exit status 2")}))
	if _, err := c.Extract(context.Background(), in, in, All()); err == nil {
		t.Fatal("expected tool failure")
	}
}

func TestExtractNotConfigured(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hero.xnb")
	writeContainer(t, in, "Microsoft.Xna.Framework.Content.Texture2DReader")
	_, err := NewCommand("", nil, nil).Extract(context.Background(), in, in, All())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v", err)
	}
}

func TestExtractWaveBank(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Wave Bank.xwb")
	if err := os.WriteFile(in, append([]byte("WBND"), make([]byte, 32)...), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{}
	c := NewCommand("unxwb", nil, []string{"-d", "{outdir}", "{input}"}, WithRunner(runner))
	outDir := filepath.Join(dir, "tracks")

	ok, err := c.ExtractWaveBank(context.Background(), in, outDir)
	if err != nil || !ok {
		t.Fatalf("extract wave bank = %v, %v", ok, err)
	}
	want := []string{"unxwb", "-d", outDir, in}
	if !equal(runner.calls[0], want) {
		t.Fatalf("call = %q, want %q", runner.calls[0], want)
	}

	bad := filepath.Join(dir, "bad.xwb")
	if err := os.WriteFile(bad, make([]byte, 32), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = c.ExtractWaveBank(context.Background(), bad, outDir)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want FormatError", err)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
