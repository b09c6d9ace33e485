package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"xnbconv/internal/processor"
)

func TestModelFollowsProgress(t *testing.T) {
	updates := make(chan processor.Progress)
	m := NewModel(updates, nil, false)

	next, cmd := m.Update(progressMsg{Status: "Converting: a.png", Total: 4, Completed: 1, Percent: 25, Errors: 1})
	if cmd == nil {
		t.Fatal("model should keep listening")
	}
	view := next.View()
	if !strings.Contains(view, "Converting: a.png") || !strings.Contains(view, "Files: 1/4") || !strings.Contains(view, "errors:1") {
		t.Fatalf("view = %q", view)
	}
}

func TestModelQuitsWhenChannelCloses(t *testing.T) {
	updates := make(chan processor.Progress)
	close(updates)
	m := NewModel(updates, nil, false)

	msg := m.Init()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("msg = %T, want doneMsg", msg)
	}
	next, cmd := m.Update(msg)
	if cmd == nil || next.View() != "" {
		t.Fatal("model should quit after the run ends")
	}
}

func TestModelKeepOpen(t *testing.T) {
	m := NewModel(nil, nil, true)
	next, cmd := m.Update(doneMsg{})
	if cmd != nil {
		t.Fatal("keep-open model should wait for the user")
	}
	if !strings.Contains(next.View(), "close") {
		t.Fatalf("view = %q", next.View())
	}
	if _, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd == nil {
		t.Fatal("q should close the finished view")
	}
}

func TestModelCancel(t *testing.T) {
	cancelled := 0
	m := NewModel(nil, func() { cancelled++ }, false)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Fatal("cancel should not quit before the run reports done")
	}
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cancelled != 1 {
		t.Fatalf("cancel called %d times", cancelled)
	}
	if !strings.Contains(next.View(), "Cancelling") {
		t.Fatalf("view = %q", next.View())
	}
}

func TestRunConsole(t *testing.T) {
	updates := make(chan processor.Progress, 4)
	updates <- processor.Progress{Status: "Planning..."}
	updates <- processor.Progress{Status: "Converting: a.png", Percent: 50}
	updates <- processor.Progress{Status: "Converting: a.png", Percent: 50}
	updates <- processor.Progress{Status: "Finished converting 2 files", Percent: 100, Done: true}
	close(updates)

	var out bytes.Buffer
	RunConsole(&out, updates)
	want := "[  0%] Planning...\n[ 50%] Converting: a.png\n[100%] Finished converting 2 files\n"
	if out.String() != want {
		t.Fatalf("output = %q", out.String())
	}
}

func TestSummaryRows(t *testing.T) {
	s := processor.Summary{
		Total:     3,
		Completed: 3,
		Converted: 2,
		Log:       []processor.LogEntry{{Message: "Converting: bad.png"}, {Warning: true}},
	}
	rows := SummaryRows(s, 1500*time.Millisecond)
	var labels []string
	for _, row := range rows {
		labels = append(labels, row.Label)
	}
	if got := strings.Join(labels, ","); got != "Files,Converted,Errors,Warnings,Elapsed" {
		t.Fatalf("labels = %s", got)
	}
	if rows[0].Value != "3/3" || rows[len(rows)-1].Value != "1.5s" {
		t.Fatalf("rows = %+v", rows)
	}
	if !strings.Contains(RenderSummary(rows), "Converted") {
		t.Fatal("rendered summary missing row")
	}
}

func TestRenderErrorLog(t *testing.T) {
	if RenderErrorLog(nil) != "" {
		t.Fatal("empty log should render nothing")
	}
	out := RenderErrorLog([]processor.LogEntry{
		{Message: "Converting: bad.png", Reason: "image error (unrecognized image data)"},
		{Warning: true, Message: "Reading script: a.xml", Reason: "invalid element in TConvertScript: 'Bogus'"},
	})
	for _, want := range []string{"Level", "error", "warning", "bad.png", "Bogus"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestCompletionLine(t *testing.T) {
	clean := CompletionLine(processor.Summary{Message: "Finished converting 1 files"}, "/logs/xnbconv-2024-01-01.log")
	if !strings.Contains(clean, "Finished converting") {
		t.Fatalf("line = %q", clean)
	}
	failed := CompletionLine(processor.Summary{Log: []processor.LogEntry{{}}}, "/logs/xnbconv-2024-01-01.log")
	if !strings.Contains(failed, "'xnbconv-2024-01-01.log'") {
		t.Fatalf("line = %q", failed)
	}
}
