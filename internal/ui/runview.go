package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/pipeline"
	"quill/internal/runner"
)

// stateMsg carries one run state snapshot into the model.
type stateMsg pipeline.RunState

// runDoneMsg signals the updates channel closed.
type runDoneMsg struct{}

// RunView renders one live run: a line per step plus the final verdict.
type RunView struct {
	title   string
	steps   []pipeline.Step
	state   pipeline.RunState
	run     *runner.Run
	updates <-chan pipeline.RunState

	spin      spinner.Model
	styles    *Styles
	startedAt time.Time
	stopping  bool
}

// NewRunView creates a view for the given run.
func NewRunView(p *pipeline.Pipeline, run *runner.Run) RunView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return RunView{
		title:     p.Name,
		steps:     p.Steps,
		state:     pipeline.NewRunState(p.Steps),
		run:       run,
		updates:   run.Updates(),
		spin:      s,
		styles:    DefaultStyles(),
		startedAt: time.Now(),
	}
}

func waitForUpdate(ch <-chan pipeline.RunState) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return runDoneMsg{}
		}
		return stateMsg(state)
	}
}

func (m RunView) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForUpdate(m.updates))
}

func (m RunView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// Request cancellation; the view quits when the run
			// reports its end.
			m.stopping = true
			m.run.Cancel()
			return m, nil
		}

	case stateMsg:
		m.state = pipeline.RunState(msg)
		return m, waitForUpdate(m.updates)

	case runDoneMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m RunView) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Running: "+m.title) + "\n\n")

	for _, step := range m.steps {
		status := m.state.Statuses[step.ID]
		var glyph, suffix string
		switch status {
		case pipeline.StatusRunning:
			glyph = m.styles.Running.Render(m.spin.View())
		case pipeline.StatusComplete:
			glyph = m.styles.Complete.Render("✓")
		case pipeline.StatusError:
			glyph = m.styles.Failed.Render("✗")
		default:
			glyph = m.styles.Pending.Render("○")
		}
		if result, ok := m.state.Results[step.ID]; ok {
			suffix = m.styles.Dim.Render(fmt.Sprintf("  %s", formatDuration(result.DurationMs)))
		}
		fmt.Fprintf(&b, "  %s %s%s\n", glyph, m.styles.StepName.Render(step.Name), suffix)

		if result, ok := m.state.Results[step.ID]; ok && result.Error != "" {
			fmt.Fprintf(&b, "      %s\n", m.styles.Failed.Render(result.Error))
		}
	}

	b.WriteString("\n")
	switch {
	case m.state.RunErr != "":
		b.WriteString(m.styles.ErrBox.Render("run failed: "+m.state.RunErr) + "\n")
	case m.state.Cancelled:
		b.WriteString(m.styles.Dim.Render("stopped") + "\n")
	case m.state.Completed:
		b.WriteString(m.styles.Complete.Render("done") + m.styles.Dim.Render(fmt.Sprintf(" (%s)", time.Since(m.startedAt).Round(time.Millisecond))) + "\n")
	case m.stopping:
		b.WriteString(m.styles.Dim.Render("stopping...") + "\n")
	default:
		b.WriteString(m.styles.Dim.Render("press q to stop") + "\n")
	}

	return b.String()
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}
