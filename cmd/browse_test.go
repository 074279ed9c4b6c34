package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"baro-mod-manager/contentpkg"
	"baro-mod-manager/workshop"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestBrowseModel(t *testing.T, f *stubFetcher) browseModel {
	t.Helper()
	a, _ := newTestApp(t)
	if f != nil {
		a.fetch = f
	}
	return newBrowseModel(context.Background(), a.mgr, a.fetcher, 10)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m browseModel, msg tea.Msg) (browseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(browseModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return bm, cmd
}

func TestBrowseModelInitialization(t *testing.T) {
	m := newTestBrowseModel(t, nil)
	if len(m.mods) != 3 || len(m.visible) != 3 {
		t.Fatalf("expected 3 mods, got %d/%d", len(m.mods), len(m.visible))
	}
	if m.selectedIndex != 0 || m.busy || m.filtering {
		t.Fatal("model not initialized correctly")
	}
	if m.width != 80 || m.height != 24 {
		t.Fatal("width or height not initialized correctly")
	}
}

func TestBrowseModelNavigation(t *testing.T) {
	m := newTestBrowseModel(t, nil)

	m, _ = update(t, m, keys("j"))
	if m.selectedIndex != 1 {
		t.Fatal("Navigation down failed")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selectedIndex != 2 {
		t.Fatal("Navigation should stop at last item")
	}
	m, _ = update(t, m, keys("k"))
	if m.selectedIndex != 1 {
		t.Fatal("Navigation up failed")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selectedIndex != 0 {
		t.Fatal("Navigation should stop at first item")
	}
}

func TestBrowseModelFilter(t *testing.T) {
	m := newTestBrowseModel(t, nil)

	m, _ = update(t, m, keys("/"))
	if !m.filtering {
		t.Fatal("'/' should start filtering")
	}
	for _, r := range "dock" {
		m, _ = update(t, m, keys(string(r)))
	}
	if len(m.visible) != 1 || m.visible[0].Name != "EK Dockyard" {
		t.Fatalf("filter kept %+v", m.visible)
	}

	// q is text while filtering.
	m, _ = update(t, m, keys("q"))
	if len(m.visible) != 0 {
		t.Fatalf("expected no match for 'dockq', got %d", len(m.visible))
	}
	if !strings.Contains(m.View(), "No mods match the filter") {
		t.Error("view should say nothing matches")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.filtering || len(m.visible) != 3 {
		t.Fatal("esc should clear the filter")
	}
}

func TestBrowseModelFilterByTag(t *testing.T) {
	m := newTestBrowseModel(t, nil)
	mods := m.mgr.Mods()
	mods[0].Tags = []string{"Shuttle"}
	m, _ = update(t, m, modsLoadedMsg{mods: mods})

	m.filter.SetValue("SHUTTLE")
	m.applyFilter()
	if len(m.visible) != 1 || m.visible[0].Name != "My Local Mod" {
		t.Fatalf("tag filter kept %+v", m.visible)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering {
		t.Fatal("enter should leave filter mode")
	}
}

func TestBrowseModelSelectionClampsAfterReload(t *testing.T) {
	m := newTestBrowseModel(t, nil)
	m.selectedIndex = 2
	m, _ = update(t, m, modsLoadedMsg{mods: m.mods[:1], message: "Rescanned mods"})
	if m.selectedIndex != 0 {
		t.Fatalf("selectedIndex = %d, want 0", m.selectedIndex)
	}
	if m.message != "Rescanned mods" {
		t.Errorf("message = %q", m.message)
	}
	m, _ = update(t, m, clearMessageMsg{})
	if m.message != "" {
		t.Error("message should be cleared")
	}
}

func TestBrowseModelEnrich(t *testing.T) {
	m := newTestBrowseModel(t, &stubFetcher{items: []workshop.Item{dockyardItem()}})

	m, cmd := update(t, m, keys("e"))
	if !m.busy || cmd == nil {
		t.Fatal("'e' should start an enrich")
	}
	if !strings.Contains(m.View(), "Fetching workshop metadata") {
		t.Error("view should show the busy label")
	}

	// A second request while busy is ignored.
	if _, again := update(t, m, keys("e")); again != nil {
		t.Error("enrich should not start twice")
	}

	loaded, ok := cmd().(modsLoadedMsg)
	if !ok {
		t.Fatal("enrich command should return modsLoadedMsg")
	}
	m, _ = update(t, m, loaded)
	if m.busy {
		t.Fatal("model should be idle after loading")
	}
	var dock contentpkg.Descriptor
	for _, mod := range m.mods {
		if mod.WorkshopID == 3012187347 {
			dock = mod
		}
	}
	if dock.Subscribers != 4242 {
		t.Errorf("enrich did not merge metadata: %+v", dock)
	}
}

func TestBrowseModelEnrichError(t *testing.T) {
	m := newTestBrowseModel(t, &stubFetcher{err: errors.New("offline")})
	m, cmd := update(t, m, keys("e"))
	msg := cmd()
	if _, ok := msg.(errorMsg); !ok {
		t.Fatalf("expected errorMsg, got %T", msg)
	}
	m, _ = update(t, m, msg)
	if m.busy || !strings.Contains(m.View(), "offline") {
		t.Error("view should show the error")
	}
}

func TestBrowseModelRefresh(t *testing.T) {
	m := newTestBrowseModel(t, nil)
	writeTestMod(t, m.mgr.Home(), "77", "Arrived Late", "77")

	m, cmd := update(t, m, keys("r"))
	if !m.busy {
		t.Fatal("'r' should start a rescan")
	}
	m, _ = update(t, m, cmd())
	if len(m.mods) != 4 {
		t.Fatalf("expected 4 mods after rescan, got %d", len(m.mods))
	}
}

func TestBrowseModelQuit(t *testing.T) {
	m := newTestBrowseModel(t, nil)
	_, cmd := update(t, m, keys("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
}

func TestBrowseViewEmpty(t *testing.T) {
	m := newTestBrowseModel(t, nil)
	m, _ = update(t, m, modsLoadedMsg{mods: []contentpkg.Descriptor{}})
	if !strings.Contains(m.View(), "No mods found") {
		t.Fatal("View should return a message for an empty mod list")
	}
}

func TestBrowseViewDetails(t *testing.T) {
	m := newTestBrowseModel(t, nil)
	m, _ = update(t, m, keys("j"))
	view := m.View()
	for _, want := range []string{"BaroTraumatic", "1.9.8.0", "Item"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q", want)
		}
	}
}

func TestModMatches(t *testing.T) {
	mod := contentpkg.Descriptor{Name: "EK Dockyard", Tags: []string{"Submarine"}}
	tests := []struct {
		q    string
		want bool
	}{
		{"dock", true},
		{"ek d", true},
		{"submarine", true},
		{"items", false},
	}
	for _, tt := range tests {
		if got := modMatches(mod, tt.q); got != tt.want {
			t.Errorf("modMatches(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}
