package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/updatecheck/pkg/deps"
)

// =============================================================================
// BatchModel - Progress of a batch check
// =============================================================================

type (
	outcomeMsg   deps.Outcome
	batchDoneMsg struct{}
	tickMsg      time.Time
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// BatchModel is the bubbletea model showing batch progress.
type BatchModel struct {
	Ecosystem string
	Total     int
	Done      int
	Updates   int
	Failed    int
	Last      string
	Finished  bool

	frame int
}

// NewBatchModel creates a progress model for total dependencies.
func NewBatchModel(ecosystem string, total int) BatchModel {
	return BatchModel{Ecosystem: ecosystem, Total: total}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m BatchModel) Init() tea.Cmd {
	return tick()
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.frame++
		return m, tick()
	case outcomeMsg:
		m.Done++
		m.Last = msg.Dependency.Name
		switch {
		case msg.Diagnostic != nil:
			m.Failed++
		case msg.Update != nil && msg.Update.CanUpdate:
			m.Updates++
		}
	case batchDoneMsg:
		m.Finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m BatchModel) View() string {
	if m.Finished {
		return ""
	}
	var b strings.Builder
	b.WriteString(styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)]))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("Checking %s dependencies", m.Ecosystem)))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%d/%d", m.Done, m.Total)))
	if m.Updates > 0 {
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(StyleSuccess.Render(fmt.Sprintf("%d updates", m.Updates)))
	}
	if m.Failed > 0 {
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(styleIconError.Render(fmt.Sprintf("%d failed", m.Failed)))
	}
	if m.Last != "" {
		b.WriteString(StyleDim.Render("  " + m.Last))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Batch Runner
// =============================================================================

// runBatch checks b, showing progress on stderr when interactive: a spinner
// for a single dependency, a live counter otherwise.
func (c *CLI) runBatch(ctx context.Context, b batch, opts deps.Options, interactive bool) []deps.Outcome {
	if !interactive {
		return deps.Batch(ctx, b.eco, b.deps, opts)
	}
	if len(b.deps) == 1 {
		s := newSpinnerWithContext(ctx, fmt.Sprintf("Checking %s %s", b.eco.Name, b.deps[0].Name))
		s.Start()
		defer s.Stop()
		return deps.Batch(ctx, b.eco, b.deps, opts)
	}

	p := tea.NewProgram(NewBatchModel(b.eco.Name, len(b.deps)),
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(os.Stderr),
	)
	opts.OnOutcome = func(o deps.Outcome) { p.Send(outcomeMsg(o)) }

	results := make(chan []deps.Outcome, 1)
	go func() {
		results <- deps.Batch(ctx, b.eco, b.deps, opts)
		p.Send(batchDoneMsg{})
	}()
	if _, err := p.Run(); err != nil {
		c.Logger.Debug("progress display stopped", "err", err)
	}
	return <-results
}
