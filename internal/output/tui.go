package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/torosent/wordstress/internal/metrics"
)

const tuiTickInterval = 200 * time.Millisecond

var (
	tuiTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	tuiStatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	tuiErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	tuiSubtle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tickMsg time.Time

// DoneMsg tells the progress model that the run has finished.
type DoneMsg struct{}

// ProgressModel is a bubbletea model showing a progress bar and live totals.
type ProgressModel struct {
	Source LiveSource
	Goal   Goal
	Title  string
	Bar    progress.Model

	snap     metrics.LiveSnapshot
	finished bool
}

// NewProgressModel creates a model for a run described by goal.
func NewProgressModel(source LiveSource, goal Goal, title string) ProgressModel {
	return ProgressModel{
		Source: source,
		Goal:   goal,
		Title:  title,
		Bar:    progress.New(progress.WithDefaultGradient()),
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tuiTick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Bar.Width = msg.Width - 4
		return m, nil

	case tickMsg:
		m.snap = m.Source.Live()
		return m, tea.Batch(m.Bar.SetPercent(m.Goal.Percent(m.snap)), tuiTick())

	case DoneMsg:
		m.snap = m.Source.Live()
		m.finished = true
		return m, tea.Quit

	case progress.FrameMsg:
		bar, cmd := m.Bar.Update(msg)
		m.Bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var s strings.Builder
	s.WriteString(tuiTitleStyle.Render(m.Title))
	s.WriteString("\n")

	if m.Goal.Duration > 0 {
		s.WriteString(tuiSubtle.Render(fmt.Sprintf("Elapsed: %s / %s", m.snap.Elapsed.Round(time.Second), m.Goal.Duration)))
	} else {
		s.WriteString(tuiSubtle.Render(fmt.Sprintf("Completed: %d / %d", m.snap.Total, m.Goal.Requests)))
	}
	s.WriteString("\n")

	stats := tuiStatStyle.Render(fmt.Sprintf("Requests: %d  RPS: %.1f  P50: %s  P99: %s",
		m.snap.Total, m.snap.RequestsPerSec, m.snap.P50.Round(time.Microsecond), m.snap.P99.Round(time.Microsecond)))
	s.WriteString(stats)
	if m.snap.Failures > 0 {
		s.WriteString("  ")
		s.WriteString(tuiErrStyle.Render(fmt.Sprintf("Errors: %d", m.snap.Failures)))
	}
	s.WriteString("\n")

	if m.finished {
		s.WriteString(m.Bar.ViewAs(1))
	} else {
		s.WriteString(m.Bar.View())
	}
	s.WriteString("\n")
	return s.String()
}

func tuiTick() tea.Cmd {
	return tea.Tick(tuiTickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// TUIProgress runs a ProgressModel in a bubbletea program without taking
// keyboard input.
type TUIProgress struct {
	program *tea.Program
	started atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewTUIProgress prepares a program rendering model to w.
func NewTUIProgress(model ProgressModel, w io.Writer) *TUIProgress {
	return &TUIProgress{
		program: tea.NewProgram(model,
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
}

// Start runs the program in the background.
func (t *TUIProgress) Start() {
	if !t.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(t.done)
		_, _ = t.program.Run()
	}()
}

// Stop tells the model the run finished and waits for the final frame.
func (t *TUIProgress) Stop() {
	if !t.started.Load() {
		return
	}
	t.once.Do(func() {
		t.program.Send(DoneMsg{})
		<-t.done
	})
}
