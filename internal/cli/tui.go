package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spellchain/pkg/chain"
	errs "github.com/matzehuels/spellchain/pkg/errors"
	"github.com/matzehuels/spellchain/pkg/stage"
)

// tickInterval is how often the virtual clock catches up with wall time
// while deletions are pending.
const tickInterval = 50 * time.Millisecond

// Block styles
var (
	blockStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			Width(26)
	blockFocusStyle    = blockStyle.BorderForeground(colorCyan)
	blockDeletingStyle = blockStyle.BorderForeground(colorYellow).Foreground(colorDim)

	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(colorDim).
			MarginTop(1)
)

// tickMsg carries the wall time of a clock tick.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// =============================================================================
// BuilderModel - Interactive chain builder
// =============================================================================

// BuilderModel is the bubbletea model for assembling a spell. Every builder
// mutation, including deferred deletions advanced from ticks, happens inside
// Update.
type BuilderModel struct {
	Builder *chain.Builder
	Clock   *chain.Timeline

	// Cursor indexes the focused block in stage order.
	Cursor int
	// OptCursor indexes the highlighted option of the focused block.
	OptCursor int
	// Changing is set while an already chosen block shows its options again.
	Changing bool

	Status    string
	StatusErr bool

	ticking  bool
	lastTick time.Time
}

// NewBuilderModel creates a model over b, whose deferred work runs on clock.
func NewBuilderModel(b *chain.Builder, clock *chain.Timeline) BuilderModel {
	return BuilderModel{Builder: b, Clock: clock}
}

func (m BuilderModel) Init() tea.Cmd {
	return nil
}

func (m BuilderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m.advance(time.Time(msg))
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m BuilderModel) handleKey(key string) (tea.Model, tea.Cmd) {
	views := m.Builder.Project()
	m.Cursor = min(m.Cursor, len(views)-1)
	cur := views[m.Cursor]

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.Cursor > 0 {
			m.focus(views, m.Cursor-1)
		}
	case "right", "l", "tab":
		if m.Cursor < len(views)-1 {
			m.focus(views, m.Cursor+1)
		}
	case "up", "k":
		if m.OptCursor > 0 {
			m.OptCursor--
		}
	case "down", "j":
		if m.OptCursor < len(cur.Stage.Options())-1 {
			m.OptCursor++
		}
	case "c":
		if cur.Selected != nil && cur.Select != nil {
			m.Changing = true
			m.setStatus("Changing "+cur.Stage.Title(), nil)
		}
	case "esc":
		m.Changing = false
	case "enter", " ":
		if cur.Select == nil {
			m.setStatus("", errs.New(errs.ErrCodeInvalidOperation, "%s is being deleted", cur.Stage.Title()))
			break
		}
		if cur.Selected != nil && !m.Changing {
			m.Changing = true
			break
		}
		opt := cur.Stage.Options()[m.OptCursor]
		if err := cur.Select(opt.ID); err != nil {
			m.setStatus("", err)
			break
		}
		m.Changing = false
		m.setStatus(fmt.Sprintf("%s: %s", cur.Stage.Title(), opt), nil)
		if next := m.Builder.Project(); m.Cursor < len(next)-1 && next[m.Cursor+1].Selected == nil {
			m.focus(next, m.Cursor+1)
		}
	case "d":
		return m.startDelete(cur, cur.DeleteSingle, "Deleting "+cur.Stage.Title())
	case "x":
		return m.startDelete(cur, cur.DeleteCascade, "Deleting "+cur.Stage.Title()+" and everything after it")
	}
	return m, nil
}

func (m BuilderModel) startDelete(v chain.View, del func() error, msg string) (tea.Model, tea.Cmd) {
	if del == nil {
		reason := "is being deleted"
		if v.First {
			reason = "is permanent"
		}
		m.setStatus("", errs.New(errs.ErrCodeInvalidOperation, "%s %s", v.Stage.Title(), reason))
		return m, nil
	}
	if err := del(); err != nil {
		m.setStatus("", err)
		return m, nil
	}
	m.Changing = false
	m.setStatus(msg, nil)
	if m.ticking {
		return m, nil
	}
	m.ticking = true
	m.lastTick = time.Time{}
	return m, tick()
}

// advance moves the virtual clock by the wall time since the previous tick
// and keeps ticking while callbacks are pending.
func (m BuilderModel) advance(now time.Time) (tea.Model, tea.Cmd) {
	elapsed := tickInterval
	if !m.lastTick.IsZero() {
		elapsed = now.Sub(m.lastTick)
	}
	m.lastTick = now
	m.Clock.Advance(elapsed)

	views := m.Builder.Project()
	if m.Cursor > len(views)-1 {
		m.focus(views, len(views)-1)
	}
	if m.Clock.Pending() == 0 {
		m.ticking = false
		return m, nil
	}
	return m, tick()
}

func (m *BuilderModel) focus(views []chain.View, i int) {
	m.Cursor = i
	m.Changing = false
	m.OptCursor = 0
	if sel := views[i].Selected; sel != nil {
		m.OptCursor = max(0, slices.IndexFunc(views[i].Stage.Options(), func(o stage.Option) bool { return o.ID == sel.ID }))
	}
}

func (m *BuilderModel) setStatus(msg string, err error) {
	m.StatusErr = err != nil
	if err != nil {
		msg = errs.UserMessage(err)
	}
	m.Status = msg
}

// =============================================================================
// View
// =============================================================================

func (m BuilderModel) View() string {
	views := m.Builder.Project()
	cursor := min(m.Cursor, len(views)-1)

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Spell Builder"))
	b.WriteString("\n\n")

	parts := make([]string, 0, 2*len(views))
	for i, v := range views {
		if i > 0 {
			parts = append(parts, m.connector(views[i-1].ID, v.ID))
		}
		parts = append(parts, m.renderBlock(v, i == cursor))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
	b.WriteString("\n")

	if m.Status != "" {
		style := StyleSuccess
		if m.StatusErr {
			style = StyleError
		}
		b.WriteString("\n" + style.Render(m.Status) + "\n")
	}

	b.WriteString(panelStyle.Render(m.renderSummary()))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(renderInstructions()))
	b.WriteString("\n")
	return b.String()
}

func (m BuilderModel) connector(from, to string) string {
	if slices.ContainsFunc(m.Builder.Edges(), func(e chain.Edge) bool { return e.From == from && e.To == to }) {
		return StyleHighlight.Render(" ──▶ ")
	}
	return "     "
}

func (m BuilderModel) renderBlock(v chain.View, focused bool) string {
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(v.Stage.Icon()+" "+v.Stage.Title()))

	showOptions := v.Select != nil && (v.Selected == nil || (focused && m.Changing))
	switch {
	case v.Deleting:
		if v.Selected != nil {
			lines = append(lines, v.Selected.String())
		}
		lines = append(lines, StyleWarning.Render("deleting…"))
	case showOptions:
		for i, o := range v.Stage.Options() {
			line := "  " + o.String()
			switch {
			case focused && i == m.OptCursor:
				line = listSelectedStyle.Render("▸ " + o.String())
			case v.Selected != nil && o.ID == v.Selected.ID:
				line = listNormalStyle.Render("• " + o.String())
			default:
				line = listDimStyle.Render(line)
			}
			lines = append(lines, line)
		}
	default:
		lines = append(lines, StyleValue.Render(v.Selected.String()))
		if focused {
			lines = append(lines, listDimStyle.Render("c change"))
		}
	}

	style := blockStyle
	switch {
	case v.Deleting:
		style = blockDeletingStyle
	case focused:
		style = blockFocusStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m BuilderModel) renderSummary() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Spell Configuration"))
	b.WriteString("\n")

	summary := m.Builder.Summary()
	if len(summary) == 0 {
		b.WriteString(listDimStyle.Render("  Nothing chosen yet"))
		return b.String()
	}
	for _, e := range summary {
		fmt.Fprintf(&b, "  %s %s\n", listDimStyle.Render(e.Stage.Title()+":"), e.Option)
	}
	if sp, ok := m.Builder.Spell(); ok {
		b.WriteString(StyleSuccess.Render("  ✨ " + sp.Name() + " is ready"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderInstructions() string {
	return listDimStyle.Render(strings.Join([]string{
		"←/→ move between blocks   ↑/↓ highlight option   ⏎ choose",
		"c change a choice   esc cancel   d delete block   x delete block and after   q quit",
	}, "\n"))
}
