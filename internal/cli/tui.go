package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/waterfall/pkg/photo"
	"github.com/matzehuels/waterfall/pkg/thumbs"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// browseCommand creates the browse command, an interactive photo list.
func (c *CLI) browseCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "browse [photos.json]",
		Short: "Browse photos and their cached tiers interactively",
		Long: `Browse photos and their cached tiers interactively.

Keys: ↑/↓ or j/k move, s/m/f download the small, medium or full tier of
the selected photo through the cache, q quits.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePhotosFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runBrowse(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "browse every visible photo")
	addListingFlags(cmd, &opts)
	cmd.Flags().StringSliceVar(&opts.ids, "ids", nil, "comma-separated photo IDs")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, opts fetchOpts) error {
	e, err := c.openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	items, err := c.collectItems(ctx, e, input, opts)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errNoItems
	}

	cached := make(map[string][]photo.Tier, len(items))
	for _, it := range items {
		if rec, ok := e.cache.Record(ctx, it.ID); ok {
			cached[it.ID] = rec.Tiers()
		}
	}

	m := newBrowseModel(items, cached, func(id string, tier photo.Tier) tea.Cmd {
		return func() tea.Msg {
			data, outcome, err := e.resolver.Tier(ctx, id, tier)
			return tierFetchedMsg{id: id, tier: tier, size: len(data), outcome: outcome, err: err}
		}
	})
	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

// tierFetchedMsg reports the end of one tier download.
type tierFetchedMsg struct {
	id      string
	tier    photo.Tier
	size    int
	outcome thumbs.Outcome
	err     error
}

// browseModel is the bubbletea model behind the browse command.
type browseModel struct {
	items   []*photo.Item
	cached  map[string][]photo.Tier
	fetch   func(id string, tier photo.Tier) tea.Cmd
	cursor  int
	offset  int
	height  int
	busy    bool
	status  string
	failure bool
}

func newBrowseModel(items []*photo.Item, cached map[string][]photo.Tier, fetch func(string, photo.Tier) tea.Cmd) browseModel {
	if cached == nil {
		cached = map[string][]photo.Tier{}
	}
	return browseModel{items: items, cached: cached, fetch: fetch, height: 15}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", "s":
			return m.download(photo.TierSmall)
		case "m":
			return m.download(photo.TierMedium)
		case "f":
			return m.download(photo.TierFull)
		}
	case tierFetchedMsg:
		m.busy = false
		if msg.err != nil {
			m.failure = true
			m.status = fmt.Sprintf("%s/%s: %v", msg.id, msg.tier, msg.err)
			return m, nil
		}
		m.failure = false
		m.cached[msg.id] = addTier(m.cached[msg.id], msg.tier)
		m.status = fmt.Sprintf("%s/%s %s (%s)", msg.id, msg.tier, msg.outcome, formatBytes(int64(msg.size)))
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m browseModel) download(tier photo.Tier) (tea.Model, tea.Cmd) {
	if m.busy || len(m.items) == 0 || m.fetch == nil {
		return m, nil
	}
	it := m.items[m.cursor]
	m.busy = true
	m.failure = false
	m.status = fmt.Sprintf("Downloading %s/%s...", it.ID, tier)
	return m, m.fetch(it.ID, tier)
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Photos"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  s/m/f download tier  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.items))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		it := m.items[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			truncate(it.ID, 24),
			truncate(firstNonEmpty(it.Title, it.FileName, "—"), 32),
			truncate(firstNonEmpty(it.Author, "—"), 20),
			it.StartRating.String(),
			fmt.Sprintf("%.3f", it.AspectRatio),
			tierMarks(m.cached[it.ID]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Title", "Author", "Rating", "Ratio", "Cached").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.offset+row == m.cursor && col != 6 {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col == 3 || col == 4 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.items))))
	if m.status != "" {
		b.WriteString("  ")
		if m.failure {
			b.WriteString(styleFailed.Render(m.status))
		} else {
			b.WriteString(m.status)
		}
	}
	return b.String()
}

func addTier(tiers []photo.Tier, t photo.Tier) []photo.Tier {
	for _, have := range tiers {
		if have == t {
			return tiers
		}
	}
	return append(tiers, t)
}
