// Package tui renders run progress and results: an interactive bubbletea
// view for terminals, a line reporter for plain consoles, and the tables
// printed once a run ends.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"xnbconv/internal/processor"
)

// Model follows a run's progress snapshots. Cancel is requested through the
// cancel func; the view keeps listening until the run reports it is done.
type Model struct {
	updates  <-chan processor.Progress
	cancel   context.CancelFunc
	keepOpen bool

	bar     progress.Model
	started time.Time
	latest  processor.Progress

	finished   bool
	cancelling bool
	quitting   bool
}

type doneMsg struct{}

type progressMsg processor.Progress

type keyMap struct {
	Cancel key.Binding
	Close  key.Binding
}

var keys = keyMap{
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
	Close: key.NewBinding(
		key.WithKeys("q", "enter", "esc", "ctrl+c"),
		key.WithHelp("q", "close"),
	),
}

// NewModel builds a view over updates. With keepOpen the view stays up after
// the run finishes until the user closes it.
func NewModel(updates <-chan processor.Progress, cancel context.CancelFunc, keepOpen bool) Model {
	return Model{
		updates:  updates,
		cancel:   cancel,
		keepOpen: keepOpen,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		started:  time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.latest = processor.Progress(msg)
		if m.latest.Done {
			m.finished = true
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.finished = true
		if !m.keepOpen {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		if m.finished {
			if key.Matches(msg, keys.Close) {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
		if key.Matches(msg, keys.Cancel) && !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		width := msg.Width - 10
		if width > 60 {
			width = 60
		}
		if width < 20 {
			width = 20
		}
		m.bar.Width = width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	status := m.latest.Status
	if m.cancelling && !m.finished {
		status = "Cancelling..."
	}
	counts := labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.latest.Completed, m.latest.Total))
	if m.latest.Errors > 0 {
		counts += errorStyle.Render(fmt.Sprintf("  errors:%d", m.latest.Errors))
	}
	if m.latest.Warnings > 0 {
		counts += warnStyle.Render(fmt.Sprintf("  warnings:%d", m.latest.Warnings))
	}

	help := keys.Cancel.Help()
	if m.finished {
		help = keys.Close.Help()
	}

	lines := []string{
		titleStyle.Render("xnbconv"),
		labelStyle.Render(truncate(status, m.bar.Width+10)),
		counts,
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", time.Since(m.started).Round(time.Second))),
		m.bar.ViewAs(m.latest.Percent / 100),
		dimStyle.Render(help.Key + " " + help.Desc),
	}
	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.Progress) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return progressMsg(update)
	}
}

// truncate shortens s to width runes, keeping the tail where file names are.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return "..." + string(r[len(r)-width+3:])
}
