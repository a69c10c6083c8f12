// Package ui implements the interactive grammar workbench: a split
// view with an editable snippet on one side and a live preview on the
// other, switchable between the syntax tree and isolated rule probes.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/diagfmt"
	"github.com/Ranrar/Marco-sub004/internal/inline"
	"github.com/Ranrar/Marco-sub004/internal/observ"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/validate"
)

type previewMode int

const (
	previewTree previewMode = iota
	previewRules
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	focusStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("6"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// Model is the Bubble Tea model for the workbench.
type Model struct {
	parser     *parser.Parser
	variants   []string
	variantIdx int
	breaks     inline.BreakMode

	editor  textarea.Model
	preview viewport.Model
	mode    previewMode

	editing bool
	width   int
	height  int

	diagSummary string
	timing      string
	parseErr    error
}

// NewModel builds a workbench over the given parser. The initial
// variant must be one of the store's variants; an unknown name falls
// back to the first.
func NewModel(p *parser.Parser, variant string, breaks inline.BreakMode, seed string) *Model {
	ed := textarea.New()
	ed.Placeholder = "type markdown here"
	ed.SetValue(seed)
	ed.Focus()

	variants := p.Store().Variants()
	idx := 0
	for i, v := range variants {
		if v == variant {
			idx = i
		}
	}

	m := &Model{
		parser:     p,
		variants:   variants,
		variantIdx: idx,
		breaks:     breaks,
		editor:     ed,
		preview:    viewport.New(40, 10),
		editing:    true,
		width:      100,
		height:     30,
	}
	m.recompute()
	return m
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.editing = !m.editing
			if m.editing {
				m.editor.Focus()
			} else {
				m.editor.Blur()
			}
			return m, nil
		case "ctrl+t":
			if m.mode == previewTree {
				m.mode = previewRules
			} else {
				m.mode = previewTree
			}
			m.recompute()
			return m, nil
		case "ctrl+v":
			if len(m.variants) > 0 {
				m.variantIdx = (m.variantIdx + 1) % len(m.variants)
				m.recompute()
			}
			return m, nil
		}

		if m.editing {
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			m.recompute()
			return m, cmd
		}
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	title := titleStyle.Render(fmt.Sprintf("marco workbench  [%s]", m.variant()))

	editorPane := paneStyle
	previewPane := focusStyle
	if m.editing {
		editorPane, previewPane = focusStyle, paneStyle
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		editorPane.Render(m.editor.View()),
		previewPane.Render(m.preview.View()),
	)

	status := m.diagSummary
	if m.parseErr != nil {
		status = errStyle.Render(m.parseErr.Error())
	}
	help := statusStyle.Render("tab focus · ctrl+t tree/rules · ctrl+v variant · esc quit  " + m.timing)

	return strings.Join([]string{title, body, status, help}, "\n")
}

func (m *Model) variant() string {
	if len(m.variants) == 0 {
		return parser.DefaultVariant
	}
	return m.variants[m.variantIdx]
}

func (m *Model) layout() {
	paneWidth := (m.width - 6) / 2
	if paneWidth < 20 {
		paneWidth = 20
	}
	paneHeight := m.height - 6
	if paneHeight < 5 {
		paneHeight = 5
	}
	m.editor.SetWidth(paneWidth)
	m.editor.SetHeight(paneHeight)
	m.preview.Width = paneWidth
	m.preview.Height = paneHeight
}

// recompute reparses the buffer and refreshes the preview pane.
func (m *Model) recompute() {
	text := m.editor.Value()

	timer := observ.NewTimer()
	ph := timer.Begin("parse")
	res, err := m.parser.ParseText("workbench.md", []byte(text), parser.Options{
		Variant: m.variant(),
		Breaks:  m.breaks,
	})
	timer.End(ph, "")
	if err != nil {
		m.parseErr = err
		return
	}
	m.parseErr = nil

	ph = timer.Begin("validate")
	bag := diag.NewBag(res.Opts.MaxDiagnostics)
	bag.Merge(res.Bag)
	validate.New(res.Schema).Run(res.Tree, res.File(), diag.BagReporter{Bag: bag})
	bag.Sort()
	bag.Dedup()
	timer.End(ph, "")

	switch m.mode {
	case previewTree:
		var b strings.Builder
		diagfmt.Tree(&b, res.Tree, res.File())
		m.preview.SetContent(b.String())
	case previewRules:
		m.preview.SetContent(ruleTable(text))
	}

	m.diagSummary = summarize(bag)
	report := timer.Report()
	m.timing = fmt.Sprintf("%.2f ms", report.TotalMS)
}

func summarize(bag *diag.Bag) string {
	if bag.Len() == 0 {
		return okStyle.Render("no diagnostics")
	}
	var parts []string
	for _, d := range bag.Items() {
		style := warnStyle
		if d.Severity == diag.SevError {
			style = errStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %s", d.Code.ID(), d.Message)))
	}
	const maxShown = 3
	if len(parts) > maxShown {
		parts = append(parts[:maxShown], statusStyle.Render(fmt.Sprintf("… %d more", len(parts)-maxShown)))
	}
	return strings.Join(parts, "  ")
}

// ruleTable probes every inline rule against the buffer and renders an
// aligned table of the outcomes.
func ruleTable(text string) string {
	in := []byte(text)
	rules := inline.Rules()

	nameWidth := 0
	for _, r := range rules {
		if w := runewidth.StringWidth(r.Name); w > nameWidth {
			nameWidth = w
		}
	}

	var b strings.Builder
	for _, r := range rules {
		res := r.Fn(in)
		mark := errStyle.Render("miss")
		if res.Matched {
			mark = okStyle.Render(fmt.Sprintf("%4d", res.Length))
		}
		fmt.Fprintf(&b, "%s %s", runewidth.FillRight(r.Name, nameWidth), mark)
		if res.Detail != "" {
			fmt.Fprintf(&b, "  %s", truncate(res.Detail, 40))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
