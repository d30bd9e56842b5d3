// Package tui is the terminal front end: one session, driven from the
// keyboard, with the same steps as the web API.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonarrative/internal/export"
	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/prompt"
	"github.com/hyperifyio/gonarrative/internal/session"
)

type view int

const (
	viewMain view = iota
	viewProfiles
	viewPrompt
	viewHelp
)

type inputMode int

const (
	inputNone inputMode = iota
	inputIndustry
	inputFile
)

// Options configures the terminal UI.
type Options struct {
	Session  *session.Session
	Narrator session.Narrator
	// OutputDir receives downloaded files. Defaults to the working directory.
	OutputDir string
	// InitialFile, when set, is loaded on start.
	InitialFile string
}

type App struct {
	width    int
	height   int
	view     view
	quitting bool

	sess      *session.Session
	narrator  session.Narrator
	outputDir string

	mode      inputMode
	input     textinput.Model
	presetIdx int

	profiles      []profile.Profile
	profileCursor int

	spinner  spinner.Model
	preview  btable.Model
	viewport viewport.Model

	status string
	err    error
}

type generatedMsg struct {
	text string
	err  error
}

type savedMsg struct {
	path string
	err  error
}

// New builds the model. It does not start a program.
func New(opts Options) *App {
	in := textinput.New()
	in.CharLimit = 256
	in.Width = 60

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styleSelected

	sess := opts.Session
	if sess == nil {
		sess = session.New("")
	}
	a := &App{
		sess:      sess,
		narrator:  opts.Narrator,
		outputDir: opts.OutputDir,
		input:     in,
		profiles:  profile.All(),
		spinner:   sp,
		viewport:  viewport.New(80, 20),
		width:     80,
		height:    24,
	}
	if opts.InitialFile != "" {
		a.loadFile(opts.InitialFile)
	}
	return a
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.WindowSize()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = max(20, msg.Width-4)
		a.viewport.Height = max(5, msg.Height-6)
		return a, nil

	case spinner.TickMsg:
		if !a.sess.Generating() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case generatedMsg:
		if msg.err != nil {
			a.setError(msg.err)
			log.Warn().Err(msg.err).Msg("generation failed")
			return a, nil
		}
		a.err = nil
		a.status = "Narrative ready."
		return a, nil

	case savedMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.err = nil
		a.status = "Saved " + msg.path
		return a, nil

	case tea.KeyMsg:
		if a.mode != inputNone {
			return a, a.handleInputKey(msg)
		}
		return a, a.handleKey(msg)
	}

	if a.view == viewPrompt {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		if a.view != viewMain {
			a.view = viewMain
			return nil
		}
		return nil
	case key.Matches(msg, keys.Quit):
		a.quitting = true
		return tea.Quit
	}

	switch a.view {
	case viewProfiles:
		return a.handleProfileKey(msg)
	case viewPrompt:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	case viewHelp:
		return nil
	}

	switch {
	case key.Matches(msg, keys.Help):
		a.view = viewHelp
	case key.Matches(msg, keys.Industry):
		a.startInput(inputIndustry, a.sess.Industry(), "Industria Porcina")
		return textinput.Blink
	case key.Matches(msg, keys.File):
		a.startInput(inputFile, "", "path/to/metrics.csv")
		return textinput.Blink
	case key.Matches(msg, keys.Remove):
		a.sess.RemoveFile()
		a.status, a.err = "File removed.", nil
	case key.Matches(msg, keys.Profile):
		if a.sess.Step() == session.Empty {
			a.setError(session.ErrNoTable)
			return nil
		}
		a.view = viewProfiles
	case key.Matches(msg, keys.Generate):
		return a.startGeneration()
	case key.Matches(msg, keys.Prompt):
		text, err := a.sess.Prompt()
		if err != nil {
			a.setError(err)
			return nil
		}
		a.viewport.SetContent(text)
		a.viewport.GotoTop()
		a.view = viewPrompt
	case key.Matches(msg, keys.SaveText):
		return a.save(export.FormatText)
	case key.Matches(msg, keys.SavePDF):
		return a.save(export.FormatPDF)
	case key.Matches(msg, keys.Reset):
		a.sess.Reset()
		a.preview = btable.Model{}
		a.status, a.err = "Session reset.", nil
	}
	return nil
}

func (a *App) handleProfileKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up):
		if a.profileCursor > 0 {
			a.profileCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.profileCursor < len(a.profiles)-1 {
			a.profileCursor++
		}
	case key.Matches(msg, keys.Enter):
		p := a.profiles[a.profileCursor]
		if err := a.sess.SelectProfile(string(p.ID)); err != nil {
			a.setError(err)
		} else {
			a.status, a.err = "Profile: "+p.DisplayName, nil
		}
		a.view = viewMain
	}
	return nil
}

func (a *App) startInput(mode inputMode, value, placeholder string) {
	a.mode = mode
	a.input.Reset()
	a.input.SetValue(value)
	a.input.Placeholder = placeholder
	a.input.CursorEnd()
	a.input.Focus()
	a.presetIdx = -1
}

func (a *App) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		a.mode = inputNone
		a.input.Blur()
		return nil
	case key.Matches(msg, keys.Enter):
		value := a.input.Value()
		mode := a.mode
		a.mode = inputNone
		a.input.Blur()
		switch mode {
		case inputIndustry:
			a.sess.SetIndustry(value)
			a.status, a.err = "Industry: "+a.sess.Industry(), nil
		case inputFile:
			a.loadFile(value)
		}
		return nil
	case a.mode == inputIndustry && key.Matches(msg, keys.Tab):
		a.presetIdx = (a.presetIdx + 1) % len(prompt.IndustryPresets)
		a.input.SetValue(prompt.IndustryPresets[a.presetIdx])
		a.input.CursorEnd()
		return nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return cmd
}

func (a *App) loadFile(path string) {
	path = strings.TrimSpace(strings.Trim(strings.TrimSpace(path), `"'`))
	f, err := os.Open(path)
	if err != nil {
		a.setError(fmt.Errorf("open file: %w", err))
		return
	}
	defer f.Close()
	if err := a.sess.Upload(filepath.Base(path), f); err != nil {
		a.preview = btable.Model{}
		a.setError(err)
		return
	}
	a.refreshPreview()
	a.status, a.err = "Loaded "+filepath.Base(path), nil
}

func (a *App) refreshPreview() {
	snap := a.sess.Snapshot()
	rows := make([]btable.Row, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		rows = append(rows, btable.Row{r.Metric, r.Value})
	}
	a.preview = btable.New(
		btable.WithColumns([]btable.Column{{Title: "Metric", Width: 42}, {Title: "Value", Width: 16}}),
		btable.WithRows(rows),
		btable.WithHeight(min(len(rows)+1, 8)),
	)
}

func (a *App) startGeneration() tea.Cmd {
	if a.sess.Generating() {
		a.setError(session.ErrGenerationInProgress)
		return nil
	}
	if _, err := a.sess.Prompt(); err != nil {
		a.setError(err)
		return nil
	}
	if a.narrator == nil {
		a.setError(errors.New("no text-generation client configured"))
		return nil
	}
	a.status, a.err = "Generating narrative...", nil
	sess, n := a.sess, a.narrator
	gen := func() tea.Msg {
		text, err := sess.Generate(context.Background(), n)
		return generatedMsg{text: text, err: err}
	}
	return tea.Batch(a.spinner.Tick, gen)
}

func (a *App) save(format string) tea.Cmd {
	doc, err := a.sess.Export()
	if err != nil {
		a.setError(err)
		return nil
	}
	dir := a.outputDir
	return func() tea.Msg {
		path := filepath.Join(dir, doc.FileName(format))
		f, err := os.Create(path)
		if err != nil {
			return savedMsg{err: err}
		}
		if err := doc.Write(f, format); err != nil {
			f.Close()
			return savedMsg{err: err}
		}
		return savedMsg{path: path, err: f.Close()}
	}
}

func (a *App) setError(err error) {
	a.err = err
	a.status = ""
}
