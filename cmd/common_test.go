package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"baro-mod-manager/config"
	"baro-mod-manager/workshop"
)

// writeTestMod creates LocalMods/<dir>/filelist.xml under home.
func writeTestMod(t *testing.T, home, dir, name, workshopID string) {
	t.Helper()
	modDir := filepath.Join(home, "LocalMods", dir)
	if err := os.MkdirAll(modDir, 0755); err != nil {
		t.Fatalf("Failed to create mod directory: %v", err)
	}
	doc := fmt.Sprintf(`<contentpackage name=%q modversion="1.0" corepackage="false" steamworkshopid=%q gameversion="1.9.8.0" expectedhash="">
  <Item file="%%ModDir%%/items.xml" />
</contentpackage>`, name, workshopID)
	if err := os.WriteFile(filepath.Join(modDir, "filelist.xml"), []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write filelist: %v", err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "items.xml"), []byte("<Items/>"), 0644); err != nil {
		t.Fatalf("Failed to write items: %v", err)
	}
}

// newTestApp bootstraps an app over a game home holding three mods.
func newTestApp(t *testing.T) (*app, string) {
	t.Helper()
	home := t.TempDir()
	writeTestMod(t, home, "2518816103", "BaroTraumatic", "2518816103")
	writeTestMod(t, home, "3012187347", "EK Dockyard", "3012187347")
	writeTestMod(t, home, "mine", "My Local Mod", "")

	cfg := config.Defaults()
	cfg.GameHome = home
	cfg.DatabasePath = filepath.Join(t.TempDir(), "db", "hashes.db")

	a, err := bootstrap(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	t.Cleanup(a.Close)
	return a, home
}

// stubFetcher serves fixed workshop items.
type stubFetcher struct {
	items []workshop.Item
	err   error
	calls int
}

func (s *stubFetcher) GetItemsBatched(_ context.Context, _ []uint64, _ int) ([]workshop.Item, error) {
	s.calls++
	return s.items, s.err
}

func (s *stubFetcher) GetItem(_ context.Context, id uint64) (*workshop.Item, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.items {
		if s.items[i].ID() == id {
			return &s.items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", workshop.ErrItemNotFound, id)
}

func dockyardItem() workshop.Item {
	return workshop.Item{
		PublishedFileID: 3012187347,
		Result:          workshop.ResultOK,
		Title:           "EK Dockyard",
		Description:     "Submarines built by EK",
		FileSize:        3 * 1024 * 1024,
		TimeUpdated:     1700000000,
		Subscriptions:   4242,
		Tags:            []workshop.Tag{{Tag: "Submarine"}, {Tag: "Shuttle"}},
	}
}

func TestBootstrapRequiresGameHome(t *testing.T) {
	cfg := config.Defaults()
	_, err := bootstrap(context.Background(), cfg)
	if !errors.Is(err, config.ErrGameHomeNotSet) {
		t.Fatalf("bootstrap() error = %v, want ErrGameHomeNotSet", err)
	}
}

func TestBootstrapScansMods(t *testing.T) {
	a, _ := newTestApp(t)
	if got := len(a.mgr.Mods()); got != 3 {
		t.Fatalf("expected 3 mods, got %d", got)
	}
}

func TestSelectMods(t *testing.T) {
	a, _ := newTestApp(t)

	all, err := selectMods(a.mgr, nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("selectMods(nil) = %d mods, %v", len(all), err)
	}

	some, err := selectMods(a.mgr, []string{"EK Dockyard"})
	if err != nil || len(some) != 1 || some[0].WorkshopID != 3012187347 {
		t.Fatalf("selectMods(EK Dockyard) = %+v, %v", some, err)
	}

	if _, err := selectMods(a.mgr, []string{"Missing"}); err == nil {
		t.Fatal("expected an error for an unknown mod")
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"Hello World", 5, "He..."},
		{"Hi", 5, "Hi"},
		{"Test", 4, "Test"},
		{"LongString", 7, "Long..."},
		{"", 5, ""},
		{"木萌BaldFix", 5, "木萌..."},
		{"abcdef", 2, "ab"},
	}

	for _, test := range tests {
		result := truncate(test.input, test.maxLen)
		if result != test.expected {
			t.Fatalf("truncate(%q, %d) = %q, expected %q", test.input, test.maxLen, result, test.expected)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("木萌", 4); got != "木萌  " {
		t.Errorf("padRight() = %q", got)
	}
	if got := padRight("long", 2); got != "long" {
		t.Errorf("padRight() = %q", got)
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatID(0), "-"},
		{formatID(2518816103), "2518816103"},
		{formatSize(0), "-"},
		{formatSize(512), "512 B"},
		{formatSize(1536), "1.5 KiB"},
		{formatSize(3 * 1024 * 1024), "3.0 MiB"},
		{formatTime(0), "-"},
		{formatTime(1700000000), "2023-11-14"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
