package script

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parse(t *testing.T, doc string, defaults Defaults) *Script {
	t.Helper()
	s, err := Parse(strings.NewReader(doc), "", defaults)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func p(parts ...string) string { return filepath.Join(parts...) }

func TestFolderCompressInheritance(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<Folder Path="a">
			<Compress Value="true"/>
			<File Path="b.png" OutPath="x"/>
			<File Path="c.png" OutPath="y" Compress="false"/>
		</Folder>
		<File Path="d.png" OutPath="z"/>
	</TConvertScript>`, Defaults{Premultiply: true})

	want := []Item{
		{Input: p("a", "b.png"), Output: "x", Compress: true, Premultiply: true},
		{Input: p("a", "c.png"), Output: "y", Compress: false, Premultiply: true},
		{Input: "d.png", Output: "z", Compress: false, Premultiply: true},
	}
	if len(s.Converts) != len(want) {
		t.Fatalf("got %d converts: %+v", len(s.Converts), s.Converts)
	}
	for i := range want {
		if s.Converts[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, s.Converts[i], want[i])
		}
	}
	if len(s.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", s.Warnings)
	}
}

func TestOutputComposition(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<Output Path="out"/>
		<Folder Path="src">
			<Output Path="img"/>
			<File Path="a.png">
				<Out Path="a1.png"/>
				<Premultiply Value="false"/>
				<Out Path="a2.png" Compress="TRUE"/>
				<Output Path="alt"/>
				<Out Path="a3.png" Premultiply="true"/>
			</File>
		</Folder>
	</TConvertScript>`, Defaults{Premultiply: true})

	want := []Item{
		{Input: p("src", "a.png"), Output: p("out", "img", "a1.png"), Premultiply: true},
		{Input: p("src", "a.png"), Output: p("out", "img", "a2.png"), Compress: true},
		{Input: p("src", "a.png"), Output: p("out", "img", "alt", "a3.png"), Premultiply: true},
	}
	if len(s.Converts) != len(want) {
		t.Fatalf("got %+v", s.Converts)
	}
	for i := range want {
		if s.Converts[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, s.Converts[i], want[i])
		}
	}
}

func TestOverridesStayInSubtree(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<Folder Path="f">
			<Compress Value="true"/>
			<Premultiply Value="false"/>
			<Output Path="deep"/>
		</Folder>
		<File Path="c.png" OutPath="c"/>
	</TConvertScript>`, Defaults{Compress: false, Premultiply: true})

	if len(s.Converts) != 1 {
		t.Fatalf("got %+v", s.Converts)
	}
	got := s.Converts[0]
	if got.Compress || !got.Premultiply || got.Output != "c" {
		t.Fatalf("folder settings leaked: %+v", got)
	}
}

func TestOutputDoesNotAccumulateAcrossSiblings(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<Output Path="one"/>
		<Output Path="two"/>
		<File Path="a.png" OutPath="a"/>
	</TConvertScript>`, Defaults{})
	if got := s.Converts[0].Output; got != p("two", "a") {
		t.Fatalf("output = %q", got)
	}
}

func TestBackupAndRestore(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<Output Path="backup"/>
		<Folder Path="Content">
			<Backup Path="Images"/>
			<Restore Path="Sounds"/>
		</Folder>
	</TConvertScript>`, Defaults{})

	if len(s.Backups) != 1 || s.Backups[0].Input != p("Content", "Images") || s.Backups[0].Output != "backup" {
		t.Fatalf("backups = %+v", s.Backups)
	}
	if len(s.Restores) != 1 || s.Restores[0].Input != p("Content", "Sounds") {
		t.Fatalf("restores = %+v", s.Restores)
	}
}

func TestPartitionByExtension(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<File Path="a.xnb" OutPath="a.png"/>
		<File Path="b.XWB" OutPath="b"/>
		<File Path="c.png" OutPath="c"/>
		<File Path="d.ogg" OutPath="d"/>
		<File Path="e.txt" OutPath="e"/>
	</TConvertScript>`, Defaults{})

	if len(s.Extracts) != 2 || s.Extracts[0].Input != "a.xnb" || s.Extracts[1].Input != "b.XWB" {
		t.Fatalf("extracts = %+v", s.Extracts)
	}
	if len(s.Converts) != 2 || s.Converts[0].Input != "c.png" || s.Converts[1].Input != "d.ogg" {
		t.Fatalf("converts = %+v", s.Converts)
	}
	if s.Len() != 4 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestWarnings(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown at root", `<TConvertScript><Bogus/></TConvertScript>`, "invalid element in TConvertScript: 'Bogus'"},
		{"unknown in folder", `<TConvertScript><Folder Path="a"><Nope/></Folder></TConvertScript>`, "invalid element in Folder: 'Nope'"},
		{"unknown in file", `<TConvertScript><File Path="a.png"><Folder Path="x"/></File></TConvertScript>`, "invalid element in File: 'Folder'"},
		{"bad compress", `<TConvertScript><Compress Value="yes"/></TConvertScript>`, "could not parse Value attribute in Compress element: 'yes'"},
		{"missing value", `<TConvertScript><Premultiply/></TConvertScript>`, "no Value attribute in Premultiply element"},
		{"missing backup path", `<TConvertScript><Backup/></TConvertScript>`, "no Path attribute in Backup element"},
		{"invalid path", `<TConvertScript><Folder Path="a|b"/></TConvertScript>`, "invalid Path attribute in Folder element: 'a|b'"},
		{"invalid outpath", `<TConvertScript><File Path="a.png" OutPath="&lt;x&gt;"/></TConvertScript>`, "invalid OutPath attribute in File element: '<x>'"},
		{"bad out override", `<TConvertScript><File Path="a.png"><Out Path="o" Premultiply="maybe"/></File></TConvertScript>`, "could not parse Premultiply attribute in Out element: 'maybe'"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := parse(t, tc.doc, Defaults{})
			if len(s.Warnings) != 1 || s.Warnings[0] != tc.want {
				t.Fatalf("warnings = %q, want [%q]", s.Warnings, tc.want)
			}
		})
	}
}

func TestBadValueKeepsPriorDefault(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<Compress Value="true"/>
		<Compress Value="nah"/>
		<File Path="a.png" OutPath="a"/>
	</TConvertScript>`, Defaults{})
	if !s.Converts[0].Compress {
		t.Fatal("unparsable value replaced the prior default")
	}
	if len(s.Warnings) != 1 {
		t.Fatalf("warnings = %v", s.Warnings)
	}
}

func TestInvalidOutIsSkipped(t *testing.T) {
	s := parse(t, `<TConvertScript>
		<File Path="a.png">
			<Out/>
			<Out Path="ok"/>
		</File>
	</TConvertScript>`, Defaults{})
	if len(s.Converts) != 1 || s.Converts[0].Output != "ok" {
		t.Fatalf("converts = %+v", s.Converts)
	}
}

func TestRejectsDocument(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		noRot bool
	}{
		{"wrong root", `<ConvertScript/>`, true},
		{"empty", ``, true},
		{"malformed", `<TConvertScript><File></TConvertScript>`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.doc), "", Defaults{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.noRot != errors.Is(err, ErrNoRoot) {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestLoadResolvesAgainstScriptDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.xml")
	doc := `<TConvertScript><Output Path="out"/><Folder Path="art"><File Path="a.png" OutPath="a"/></Folder></TConvertScript>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, Defaults{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Path != path {
		t.Fatalf("path = %q", s.Path)
	}
	got := s.Converts[0]
	if got.Input != filepath.Join(dir, "art", "a.png") || got.Output != filepath.Join(dir, "out", "a") {
		t.Fatalf("item = %+v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xml"), Defaults{})
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("got %v, want LoadError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("load error should unwrap to fs.ErrNotExist: %v", err)
	}
}

func TestScopeDefaultsAreValues(t *testing.T) {
	parent := ScopeDefaults{Output: "o", Input: "i", Compress: true}
	child := parent.WithOutput("x").WithCompress(false).WithInput("y").WithPremultiply(true)
	if parent.Output != "o" || parent.Input != "i" || !parent.Compress || parent.Premultiply {
		t.Fatalf("parent mutated: %+v", parent)
	}
	if child.Output != "x" || child.Input != "y" || child.Compress || !child.Premultiply {
		t.Fatalf("child = %+v", child)
	}
}

func TestDeclaredEncoding(t *testing.T) {
	latin1 := "<?xml version=\"1.0\" encoding=\"windows-1252\"?>\n" +
		"<TConvertScript><File Path=\"caf\xe9.png\" OutPath=\"out.png\"/></TConvertScript>"
	s := parse(t, latin1, Defaults{})
	if len(s.Converts) != 1 || s.Converts[0].Input != "café.png" {
		t.Fatalf("converts = %+v", s.Converts)
	}
}
