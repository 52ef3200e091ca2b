package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marang/brewkit/pkg/brewkit"
)

type phaseDoneMsg struct {
	err error
}

// phaseModel draws a spinner next to a phase title until the phase reports
// completion, then leaves a check or cross line behind.
type phaseModel struct {
	spinner spinner.Model
	keys    KeyMap
	title   string
	start   time.Time
	cancel  context.CancelFunc
	done    bool
	err     error
	elapsed time.Duration
}

func newPhaseModel(title string, cancel context.CancelFunc) phaseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return phaseModel{
		spinner: s,
		keys:    DefaultKeyMap(),
		title:   title,
		start:   time.Now(),
		cancel:  cancel,
	}
}

// Init implements tea.Model.
func (m phaseModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m phaseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case phaseDoneMsg:
		m.done = true
		m.err = msg.err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m phaseModel) View() string {
	if !m.done {
		return m.spinner.View() + " " + m.title + "  " + MutedStyle.Render(m.keys.HelpText()) + "\n"
	}
	elapsed := MutedStyle.Render(fmt.Sprintf("(%s)", m.elapsed.Round(100*time.Millisecond)))
	if m.err != nil {
		return ErrorStyle.Render(SymbolCross) + " " + m.title + " " + elapsed + "\n"
	}
	return SuccessStyle.Render(SymbolCheck) + " " + m.title + " " + elapsed + "\n"
}

// PhaseRunner reports install phases. On a terminal each phase gets a
// spinner; otherwise it is announced through the logger.
type PhaseRunner struct {
	out         io.Writer
	interactive bool
	logger      brewkit.Logger
}

// NewPhaseRunner creates a phase runner drawing to out. Panics if logger is nil.
func NewPhaseRunner(out io.Writer, interactive bool, logger brewkit.Logger) *PhaseRunner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &PhaseRunner{out: out, interactive: interactive, logger: logger}
}

// RunPhase runs fn while showing title. fn always runs to completion and
// its error is returned unchanged; cancelling from the keyboard cancels
// the context passed to fn.
func (r *PhaseRunner) RunPhase(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	if !r.interactive {
		r.logger.Info("%s", title)
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newPhaseModel(title, cancel), tea.WithOutput(r.out))
	result := make(chan error, 1)
	go func() {
		err := fn(ctx)
		result <- err
		p.Send(phaseDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		r.logger.Verbose("progress display unavailable: %v", err)
	}
	return <-result
}

var _ brewkit.PhaseRunner = (*PhaseRunner)(nil)
