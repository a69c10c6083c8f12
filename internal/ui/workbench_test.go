package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ranrar/Marco-sub004/internal/inline"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
)

func newTestModel(t *testing.T, variant, seed string) *Model {
	t.Helper()
	return NewModel(parser.New(schema.NewStore("")), variant, inline.BreakNormal, seed)
}

func TestTreePreviewFollowsBuffer(t *testing.T) {
	m := newTestModel(t, "gfm", "# hello\n")
	view := m.View()
	if !strings.Contains(view, "heading") {
		t.Fatalf("view must show the tree:\n%s", view)
	}
	if !strings.Contains(view, "[gfm]") {
		t.Fatalf("view must name the variant:\n%s", view)
	}
}

func TestDiagnosticsSummary(t *testing.T) {
	m := newTestModel(t, "commonmark", "see _em_ here\n")
	if !strings.Contains(m.diagSummary, "MD") {
		t.Fatalf("summary = %q", m.diagSummary)
	}

	clean := newTestModel(t, "gfm", "plain\n")
	if !strings.Contains(clean.diagSummary, "no diagnostics") {
		t.Fatalf("summary = %q", clean.diagSummary)
	}
}

func TestVariantCycling(t *testing.T) {
	m := newTestModel(t, "gfm", "x\n")
	before := m.variant()
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	m = model.(*Model)
	if m.variant() == before && len(m.variants) > 1 {
		t.Fatalf("variant did not cycle from %q", before)
	}
}

func TestRuleTable(t *testing.T) {
	out := ruleTable("<https://a.io> rest")
	if !strings.Contains(out, "autolink-uri") {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(out, "https://a.io") {
		t.Fatalf("matched rule must show its detail:\n%s", out)
	}
}

func TestRulePreviewMode(t *testing.T) {
	m := newTestModel(t, "gfm", "`code`\n")
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = model.(*Model)
	if m.mode != previewRules {
		t.Fatal("ctrl+t must switch to rule probes")
	}
	if !strings.Contains(m.View(), "code-span") {
		t.Fatalf("view = %q", m.View())
	}
}
