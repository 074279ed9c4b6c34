package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"baro-mod-manager/contentpkg"
	"baro-mod-manager/logger"
	"baro-mod-manager/modmgr"
	"baro-mod-manager/ui"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse installed mods interactively",
	Long:  `Launch an interactive TUI to view, filter and enrich your installed mods.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		m := newBrowseModel(cmd.Context(), a.mgr, a.fetcher, a.cfg.BatchSize)
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			logger.Log.Errorw("Failed to run TUI", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

const maxChips = 3

// browseModel represents the state of the TUI
type browseModel struct {
	ctx       context.Context
	mgr       *modmgr.Manager
	fetcher   func() (modmgr.Fetcher, error)
	batchSize int

	mods          []contentpkg.Descriptor
	visible       []contentpkg.Descriptor
	selectedIndex int

	busy      bool
	busyLabel string
	spinner   spinner.Model
	filter    textinput.Model
	filtering bool

	error   string
	message string
	width   int
	height  int
}

func newBrowseModel(ctx context.Context, mgr *modmgr.Manager, fetcher func() (modmgr.Fetcher, error), batchSize int) browseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "name or tag"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	m := browseModel{
		ctx:       ctx,
		mgr:       mgr,
		fetcher:   fetcher,
		batchSize: batchSize,
		spinner:   s,
		filter:    ti,
		width:     80,
		height:    24,
	}
	m.setMods(mgr.Mods())
	return m
}

// Message types
type modsLoadedMsg struct {
	mods    []contentpkg.Descriptor
	message string
}

type errorMsg string

type clearMessageMsg struct{}

func (m browseModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case modsLoadedMsg:
		m.busy = false
		m.error = ""
		m.setMods(msg.mods)
		if msg.message != "" {
			m.message = msg.message
			return m, clearMessageAfter(3 * time.Second)
		}
	case errorMsg:
		m.busy = false
		m.error = string(msg)
	case clearMessageMsg:
		m.message = ""
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m browseModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case "down", "j":
		if m.selectedIndex < len(m.visible)-1 {
			m.selectedIndex++
		}
	case "r":
		if !m.busy {
			m.busy, m.busyLabel = true, "Rescanning mods"
			return m, m.refresh()
		}
	case "e":
		if !m.busy {
			m.busy, m.busyLabel = true, "Fetching workshop metadata"
			return m, m.enrich()
		}
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "esc":
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
		}
	}
	return m, nil
}

func (m browseModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browseModel) setMods(mods []contentpkg.Descriptor) {
	m.mods = mods
	m.applyFilter()
}

func (m *browseModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	visible := make([]contentpkg.Descriptor, 0, len(m.mods))
	for _, mod := range m.mods {
		if q == "" || modMatches(mod, q) {
			visible = append(visible, mod)
		}
	}
	m.visible = visible
	if m.selectedIndex >= len(m.visible) {
		m.selectedIndex = max(len(m.visible)-1, 0)
	}
}

// modMatches reports whether the lower-cased query q occurs in the mod's
// name or one of its workshop tags.
func modMatches(mod contentpkg.Descriptor, q string) bool {
	if strings.Contains(strings.ToLower(mod.Name), q) {
		return true
	}
	for _, tag := range mod.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (m browseModel) refresh() tea.Cmd {
	return func() tea.Msg {
		if err := m.mgr.Refresh(m.ctx); err != nil {
			logger.Log.Errorw("Failed to rescan mods", zap.Error(err))
			return errorMsg(fmt.Sprintf("Failed to rescan mods: %v", err))
		}
		return modsLoadedMsg{mods: m.mgr.Mods(), message: "Rescanned mods"}
	}
}

func (m browseModel) enrich() tea.Cmd {
	return func() tea.Msg {
		f, err := m.fetcher()
		if err == nil {
			err = m.mgr.Enrich(m.ctx, f, m.batchSize)
		}
		if err != nil {
			logger.Log.Errorw("Failed to enrich mods", zap.Error(err))
			return errorMsg(fmt.Sprintf("Failed to fetch workshop metadata: %v", err))
		}
		return modsLoadedMsg{mods: m.mgr.Mods(), message: "Workshop metadata updated"}
	}
}

func clearMessageAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearMessageMsg{}
	})
}

// View renders the UI
func (m browseModel) View() string {
	var b strings.Builder

	if m.busy {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).
			Render(fmt.Sprintf("%s %s...", m.spinner.View(), m.busyLabel)))
		b.WriteString("\n\n")
	}

	if len(m.mods) == 0 {
		b.WriteString(fmt.Sprintf("No mods found in %s\n", m.mgr.ModsDir()))
		b.WriteString("\n" + renderBrowseFooter())
		return b.String()
	}

	b.WriteString(renderBrowseHeader())
	b.WriteString("\n")
	if len(m.visible) == 0 {
		b.WriteString("  No mods match the filter\n")
	}
	for i, mod := range m.visibleWindow() {
		b.WriteString(m.renderModRow(i+m.windowStart(), mod))
		b.WriteString("\n")
	}

	if sel, ok := m.selected(); ok {
		b.WriteString("\n" + renderDetails(sel, m.width))
	}

	if m.filtering || m.filter.Value() != "" {
		b.WriteString("\n" + m.filter.View())
	}
	b.WriteString("\n" + renderBrowseFooter())

	if m.error != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("Error: "+m.error))
	}
	if m.message != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.message))
	}
	return b.String()
}

func (m browseModel) selected() (contentpkg.Descriptor, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.visible) {
		return contentpkg.Descriptor{}, false
	}
	return m.visible[m.selectedIndex], true
}

// rows is how many list rows fit next to the header, details and footer.
func (m browseModel) rows() int {
	return max(m.height-10, 3)
}

func (m browseModel) windowStart() int {
	rows := m.rows()
	if m.selectedIndex < rows {
		return 0
	}
	return m.selectedIndex - rows + 1
}

func (m browseModel) visibleWindow() []contentpkg.Descriptor {
	start := m.windowStart()
	end := min(start+m.rows(), len(m.visible))
	return m.visible[start:end]
}

func renderBrowseHeader() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	return headerStyle.Render(fmt.Sprintf("  %-12s %s %-10s %s", "Workshop ID", padRight("Name", 36), "Version", "Tags"))
}

func renderBrowseFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Italic(true)

	return footerStyle.Render("↑/k: up  ↓/j: down  /: filter  esc: clear  r: rescan  e: enrich  q: quit")
}

func (m browseModel) renderModRow(index int, mod contentpkg.Descriptor) string {
	rowStyle := lipgloss.NewStyle().Padding(0, 1)
	indicator := " "
	if index == m.selectedIndex {
		rowStyle = rowStyle.
			Background(lipgloss.Color("8")).
			Bold(true)
		indicator = ">"
	}

	chips := make([]string, 0, maxChips)
	for i, tag := range mod.Tags {
		if i == maxChips {
			chips = append(chips, fmt.Sprintf("+%d", len(mod.Tags)-maxChips))
			break
		}
		chips = append(chips, ui.Chip(tag))
	}

	row := fmt.Sprintf("%s %-12s %s %-10s ",
		indicator,
		formatID(mod.WorkshopID),
		padRight(truncate(mod.Name, 36), 36),
		truncate(mod.Version, 10))
	return rowStyle.Render(row) + strings.Join(chips, " ")
}

func renderDetails(mod contentpkg.Descriptor, width int) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	var b strings.Builder
	title := mod.Name
	if len(mod.Tags) > 0 {
		title = ui.Colorize(title, ui.TagColor(mod.Tags[0]))
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(label.Render("Game version ") + mod.GameVersion)
	b.WriteString(label.Render("   Files ") + fmt.Sprintf("%d", mod.FileCount()))
	if groups := mod.TagNames(); len(groups) > 0 {
		b.WriteString(label.Render("   Groups ") + truncate(strings.Join(groups, ", "), 40))
	}
	b.WriteString("\n")
	if mod.LastModified != 0 {
		b.WriteString(label.Render("Updated ") + formatTime(mod.LastModified))
		b.WriteString(label.Render("   Size ") + formatSize(mod.Size))
		b.WriteString(label.Render("   Subscribers ") + fmt.Sprintf("%d", mod.Subscribers))
		b.WriteString(label.Render("   Likes ") + fmt.Sprintf("%d", mod.Likes))
		b.WriteString("\n")
	}
	if mod.Description != "" {
		desc := strings.Join(strings.Fields(mod.Description), " ")
		b.WriteString(truncate(desc, max(width-2, 20)))
		b.WriteString("\n")
	}
	return b.String()
}
