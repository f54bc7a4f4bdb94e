// Package repl implements the interactive fluxion session.
//
// Each input line is evaluated against one persistent language session,
// so variables and function definitions accumulate across lines. Input
// starting with ':' is a control command handled by the REPL itself.
package repl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fluxion-lang/fluxion/lang"
	"github.com/fluxion-lang/fluxion/log"
)

const prompt = "fx> "

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func helpMessage() string {
	return `
: Commands:

  :help     Print this cruft
  :vars     List session variables and functions
  :reset    Discard all session state
  :clear    Clear screen
  :quit     Exit

Usage:
  Type a statement or expression to evaluate it
  Completions appear as you type; Tab / Shift-Tab cycle candidates
  Up/Down arrows navigate history
  Ctrl+C on an empty line or Ctrl+D exits
`
}

// Preload evaluates a script file into the session before the prompt
// starts.
func Preload(ctx context.Context, session *lang.Session, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return lang.ErrReadInput.Wrap(err)
	}

	_, err = session.Eval(ctx, string(source))

	return err
}

// Run starts the interactive loop.
func Run(
	ctx context.Context,
	session *lang.Session,
	hostNames []string,
	cacheDir string,
	logger log.Logger,
) error {
	history := newHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		fmt.Printf("Warning: could not load history: %v\n", err)
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("history_entries", history.Len()),
	)

	m := newModel(ctx, session, hostNames, history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()

	return err
}

const defaultWidth = 80

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	session    *lang.Session
	hostNames  []string
	logger     log.Logger
	history    *history
	historyIdx int
	matches    fuzzy.Matches // current fuzzy match results
	wordStart  int           // byte offset of current word start
	wordEnd    int           // byte offset of current word end
	suggIdx    int           // selected candidate index
	tabActive  bool          // whether user is tab-cycling
	preTabText string        // input text before tab-cycling began
	width      int
	quitting   bool
}

func newModel(
	ctx context.Context,
	session *lang.Session,
	hostNames []string,
	history *history,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		hostNames:  hostNames,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(prompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.historyIdx < m.history.Len():
		b.WriteString(hintStyle.Render(
			fmt.Sprintf("%d/%d", m.historyIdx+1, m.history.Len()),
		))
		b.WriteString("\n")

	case strings.TrimSpace(m.input.Value()) == "":
		b.WriteString(hintStyle.Render(
			"Type a statement, or :help for commands",
		))
		b.WriteString("\n")

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
		b.WriteString("\n")

	default:
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches()

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			// Lock in the current tab candidate without executing.
			m.tabActive = false
			m.refreshMatches()

			return m, nil
		}

		return m.executeInput()

	case tea.KeyTab:
		return m.cycleCandidate(1)

	case tea.KeyShiftTab:
		return m.cycleCandidate(-1)

	case tea.KeyUp:
		return m.historyMove(-1)

	case tea.KeyDown:
		return m.historyMove(1)

	case tea.KeyEsc:
		m.tabActive = false
		m.input.SetValue(m.preTabText)
		m.refreshMatches()

		return m, nil
	}

	m.tabActive = false

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	m.historyIdx = m.history.Len()
	m.refreshMatches()

	return m, cmd
}

func (m model) executeInput() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.tabActive = false

	if _, err := m.history.Append(line); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "history write failed",
			slog.String("error", err.Error()),
		)
	}

	m.historyIdx = m.history.Len()

	echo := promptStyle.Render(prompt) + line

	if cmd, ok := strings.CutPrefix(line, ":"); ok {
		return m.executeCtrl(echo, strings.TrimSpace(cmd))
	}

	res, err := m.session.Eval(m.ctxFunc(), line)
	m.refreshMatches()

	if err != nil {
		return m, tea.Println(echo + "\n" + errorStyle.Render(err.Error()))
	}

	if res.Return == nil {
		return m, tea.Println(echo)
	}

	return m, tea.Println(echo + "\n" + resultStyle.Render(lang.Format(res.Return)))
}

func (m model) executeCtrl(echo, cmd string) (model, tea.Cmd) {
	switch cmd {
	case "help":
		return m, tea.Println(echo + "\n" + hintStyle.Render(helpMessage()))

	case "vars":
		names := m.session.Names()
		if len(names) == 0 {
			return m, tea.Println(echo + "\n" + hintStyle.Render("(empty session)"))
		}

		var b strings.Builder
		for _, name := range names {
			b.WriteString("  ")
			b.WriteString(name)
			if v, ok := m.session.Vars()[name]; ok {
				b.WriteString(" = ")
				b.WriteString(lang.Format(v))
			}
			b.WriteString("\n")
		}

		return m, tea.Println(echo + "\n" + b.String())

	case "reset":
		m.session.Reset()
		m.refreshMatches()

		return m, tea.Println(echo + "\n" + resultStyle.Render("session cleared"))

	case "clear":
		return m, tea.ClearScreen

	case "quit", "exit":
		m.quitting = true

		return m, tea.Quit

	default:
		return m, tea.Println(
			echo + "\n" + errorStyle.Render("unknown command :"+cmd),
		)
	}
}

func (m model) historyMove(delta int) (model, tea.Cmd) {
	idx := m.historyIdx + delta
	if idx < 0 || idx > m.history.Len() {
		return m, nil
	}

	m.historyIdx = idx
	m.tabActive = false

	if idx == m.history.Len() {
		m.input.SetValue("")
	} else if line, err := m.history.Get(idx); err == nil {
		m.input.SetValue(line)
		m.input.CursorEnd()
	}

	m.refreshMatches()

	return m, nil
}
