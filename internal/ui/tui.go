package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TUIRenderer provides rich terminal UI using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *ingestModel
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if the output is not a TTY.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newIngestModel()
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	_, r.cancel = context.WithCancel(ctx)

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	if r.program != nil {
		r.program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			// TUI did not respond to quit, proceed anyway.
		}
	}

	return nil
}

type progressUpdateMsg ProgressEvent

type completeMsg CompletionStats

// pipelineStages is the display order of ingest stages.
var pipelineStages = []Stage{
	StageNormalizing,
	StageSegmenting,
	StageEmbedding,
	StageIndexing,
	StagePersisting,
}

type ingestModel struct {
	styles  Styles
	spinner spinner.Model
	bar     progress.Model

	stage    Stage
	current  int
	total    int
	message  string
	complete bool
	stats    CompletionStats
}

func newIngestModel() *ingestModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	return &ingestModel{
		styles:  DefaultStyles(),
		spinner: sp,
		bar:     bar,
	}
}

func (m *ingestModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case progressUpdateMsg:
		m.stage = msg.Stage
		m.current = msg.Current
		m.total = msg.Total
		m.message = msg.Message
		return m, nil
	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ingestModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("polisearch ingest"))
	b.WriteString("\n\n")

	for _, st := range pipelineStages {
		switch {
		case m.complete || st < m.stage:
			b.WriteString("  " + m.styles.Done.Render("✓ "+st.String()))
		case st == m.stage:
			b.WriteString("  " + m.styles.Active.Render(m.spinner.View()+st.String()))
			if m.total > 0 {
				b.WriteString("  " + m.bar.ViewAs(float64(m.current)/float64(m.total)))
			}
			if m.message != "" {
				b.WriteString("\n    " + m.styles.Detail.Render(m.message))
			}
		default:
			b.WriteString("  " + m.styles.Pending.Render("· "+st.String()))
		}
		b.WriteString("\n")
	}

	if m.complete {
		b.WriteString("\n")
		b.WriteString(m.styles.Summary.Render(fmt.Sprintf(
			"Done: %d clauses from %d pages (%s) in %s",
			m.stats.Clauses, m.stats.Pages, m.stats.Backend,
			m.stats.Duration.Round(timeRounding))))
		b.WriteString("\n")
	}

	return b.String()
}
