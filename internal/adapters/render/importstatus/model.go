package importstatus

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 32

// Snapshot is one progress reading of a running import.
type Snapshot struct {
	Saved    int
	Skipped  int
	Total    int
	Finished bool
}

// Result is the terminal outcome of a followed import.
type Result struct {
	Saved   int
	Skipped int
}

type snapshotMsg struct {
	snapshot Snapshot
	ok       bool
}

type model struct {
	progress progress.Model
	updates  <-chan Snapshot
	styles   styles
	current  Snapshot
	closed   bool
	done     bool
}

func newModel(updates <-chan Snapshot) model {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	return model{
		progress: bar,
		updates:  updates,
		styles:   newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-m.updates
		return snapshotMsg{snapshot: snapshot, ok: ok}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if !msg.ok {
			m.closed = true
			return m, tea.Quit
		}
		m.current = msg.snapshot
		if m.current.Finished {
			m.done = true
			return m, tea.Quit
		}
		return m, m.waitForSnapshot()
	default:
		return m, nil
	}
}

func (m model) View() string {
	if m.done || m.closed {
		return ""
	}

	processed := m.current.Saved + m.current.Skipped
	ratio := 0.0
	if m.current.Total > 0 {
		ratio = float64(processed) / float64(m.current.Total)
		if ratio > 1 {
			ratio = 1
		}
	}

	counts := m.styles.counts.Render(fmt.Sprintf("%d/%d", processed, m.current.Total))
	detail := m.styles.detail.Render(fmt.Sprintf("saved %d, skipped %d", m.current.Saved, m.current.Skipped))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.styles.label.Render("Importing"),
		" ",
		m.progress.ViewAs(ratio),
		" ",
		counts,
		" ",
		detail,
	)
}

// Follow renders a live progress bar from the update channel and blocks until
// a finished snapshot arrives or the channel closes.
func Follow(ctx context.Context, output io.Writer, updates <-chan Snapshot) (Result, error) {
	p := tea.NewProgram(
		newModel(updates),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return Result{}, err
	}

	final, ok := finalModel.(model)
	if !ok {
		return Result{}, fmt.Errorf("unexpected final import progress model type %T", finalModel)
	}
	if !final.done {
		return Result{}, fmt.Errorf("import status stream ended before the job finished")
	}

	return Result{Saved: final.current.Saved, Skipped: final.current.Skipped}, nil
}
