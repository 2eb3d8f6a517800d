package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mnery/newsvault/internal/batch"
	"github.com/mnery/newsvault/internal/browser"
	"github.com/mnery/newsvault/internal/store"
	"github.com/mnery/newsvault/internal/syncer"
)

type focusPane int

const (
	focusList focusPane = iota
	focusReader
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeHelp
	modeConfirmClear
)

type App struct {
	db     *store.Store
	sync   *syncer.Syncer
	tab    tab
	cursor int
	focus  focusPane
	mode   mode

	articles []store.Article
	queued   map[string]bool
	latest   string

	width  int
	height int

	searchInput textinput.Model
	spinner     spinner.Model

	syncing      bool
	readerScroll int
	currentDate  string
	lastSync     string
	notice       string
	err          error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	DB     *store.Store
	Syncer *syncer.Syncer
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search articles..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return &App{
		db:          opts.DB,
		sync:        opts.Syncer,
		searchInput: ti,
		spinner:     sp,
		queued:      make(map[string]bool),
		currentDate: time.Now().Format("Jan 2"),
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadArticlesCmd()
}

// loadArticlesCmd captures current query state into the closure to avoid races.
func (a *App) loadArticlesCmd() tea.Cmd {
	db := a.db
	activeTab := a.tab
	search := a.searchInput.Value()
	return func() tea.Msg {
		latest, _ := db.GetMeta(store.MetaLatestBatch)

		queued := make(map[string]bool)
		entries, err := db.GetQueue()
		if err != nil {
			return errMsg{err: err}
		}
		for _, e := range entries {
			queued[e.URL] = true
		}

		var articles []store.Article
		if activeTab == tabQueue {
			for _, e := range entries {
				if search == "" || containsFold(e.Title, search) {
					articles = append(articles, e.Article)
				}
			}
		} else {
			articles, err = db.GetArticles(store.QueryOpts{Search: search})
			if err != nil {
				return errMsg{err: err}
			}
			sortFreshFirst(articles, latest)
		}

		return articlesLoadedMsg{articles: articles, latest: latest, queued: queued}
	}
}

// sortFreshFirst keeps current-batch articles on top, newest first within
// each group.
func sortFreshFirst(articles []store.Article, latest string) {
	sort.SliceStable(articles, func(i, j int) bool {
		fi, fj := batch.Fresh(articles[i], latest), batch.Fresh(articles[j], latest)
		if fi != fj {
			return fi
		}
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (a *App) doSync(refresh bool) tea.Cmd {
	s := a.sync
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		var report *syncer.Report
		var err error
		if refresh {
			report, err = s.Refresh(ctx)
		} else {
			report, err = s.Sync(ctx)
		}
		return syncDoneMsg{report: report, err: err}
	}
}

func awaitEnrichment(report *syncer.Report) tea.Cmd {
	if report == nil || report.Enrichment == nil {
		return nil
	}
	task := report.Enrichment
	return func() tea.Msg {
		task.Wait()
		return enrichDoneMsg{}
	}
}

func (a *App) toggleQueueCmd() tea.Cmd {
	if len(a.articles) == 0 || a.cursor >= len(a.articles) {
		return nil
	}
	db := a.db
	article := a.articles[a.cursor]
	return func() tea.Msg {
		in, err := db.IsInQueue(article.URL)
		if err != nil {
			return errMsg{err: err}
		}
		if in {
			err = db.RemoveFromQueue(article.URL)
		} else {
			err = db.AddToQueue(article)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return queueToggledMsg{}
	}
}

func (a *App) clearAllCmd() tea.Cmd {
	db := a.db
	return func() tea.Msg {
		if err := db.ClearArticles(); err != nil {
			return errMsg{err: err}
		}
		if err := db.ClearQueue(); err != nil {
			return errMsg{err: err}
		}
		return clearedMsg{}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case articlesLoadedMsg:
		a.articles = msg.articles
		a.latest = msg.latest
		a.queued = msg.queued
		if a.cursor >= len(a.articles) {
			a.cursor = max(0, len(a.articles)-1)
		}
		a.refreshLastSync()
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil

	case syncDoneMsg:
		a.syncing = false
		if msg.err != nil {
			a.err = msg.err
			return a, a.loadArticlesCmd()
		}
		if msg.report == nil {
			a.notice = "offline — showing cached articles"
			return a, a.loadArticlesCmd()
		}
		a.notice = fmt.Sprintf("synced %d articles", msg.report.Fetched)
		return a, tea.Batch(a.loadArticlesCmd(), awaitEnrichment(msg.report))

	case enrichDoneMsg:
		// Images and full text landed; reload so saved markers show up.
		return a, a.loadArticlesCmd()

	case queueToggledMsg, clearedMsg:
		return a, a.loadArticlesCmd()

	case spinner.TickMsg:
		if a.syncing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) refreshLastSync() {
	raw, err := a.db.GetMeta(store.MetaLastSync)
	if err != nil || raw == "" {
		a.lastSync = ""
		return
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		a.lastSync = ""
		return
	}
	a.lastSync = relativeTime(t)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	case modeConfirmClear:
		if msg.String() == "y" {
			a.mode = modeNormal
			a.cursor = 0
			return a, a.clearAllCmd()
		}
		a.mode = modeNormal
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.articles)-1 {
			a.cursor++
			a.readerScroll = 0
		} else if a.focus == focusReader {
			a.readerScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.readerScroll = 0
		} else if a.focus == focusReader && a.readerScroll > 0 {
			a.readerScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusReader
		} else {
			a.focus = focusList
		}
		return a, nil
	case "1":
		a.tab = tabAll
		a.cursor = 0
		return a, a.loadArticlesCmd()
	case "2":
		a.tab = tabQueue
		a.cursor = 0
		return a, a.loadArticlesCmd()
	case "t":
		if a.tab == tabAll {
			a.tab = tabQueue
		} else {
			a.tab = tabAll
		}
		a.cursor = 0
		return a, a.loadArticlesCmd()
	case "o", "enter":
		if len(a.articles) > 0 && a.cursor < len(a.articles) {
			return a, openBrowserCmd(a.articles[a.cursor].URL)
		}
		return a, nil
	case "a":
		return a, a.toggleQueueCmd()
	case "s":
		if !a.syncing {
			a.syncing = true
			a.notice = ""
			return a, tea.Batch(a.doSync(false), a.spinner.Tick)
		}
		return a, nil
	case "r":
		if !a.syncing {
			a.syncing = true
			a.notice = ""
			return a, tea.Batch(a.doSync(true), a.spinner.Tick)
		}
		return a, nil
	case "d":
		a.mode = modeConfirmClear
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		return a, a.loadArticlesCmd()
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, a.loadArticlesCmd()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  newsvault")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}

	headerHeight := 1
	tabsHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - tabsHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.35)
	readerWidth := a.width - listWidth - 1 // gap

	if contentHeight < 3 {
		contentHeight = 3
	}

	headerLeft := headerStyle.Render("newsvault")
	headerRight := headerDateStyle.Render(a.currentDate)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	tabs := renderTabs(a.tab, a.width)
	if a.mode == modeSearch {
		tabs = a.searchInput.View()
	}

	innerListW := listWidth - 4 // border + padding
	listContent := renderList(a.articles, a.cursor, a.latest, a.queued, contentHeight, innerListW)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	var selected *store.Article
	if len(a.articles) > 0 && a.cursor < len(a.articles) {
		selected = &a.articles[a.cursor]
	}
	innerReaderW := readerWidth - 4
	readerContent := renderReader(selected, innerReaderW, contentHeight, a.readerScroll)

	var readerPane string
	if a.focus == focusReader {
		readerPane = readerPaneActiveStyle.Width(readerWidth - 2).Height(contentHeight).Render(readerContent)
	} else {
		readerPane = readerPaneStyle.Width(readerWidth - 2).Height(contentHeight).Render(readerContent)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, readerPane)

	status := renderStatusBar(
		len(a.articles),
		a.tab,
		a.sync.Status(),
		a.lastSync,
		a.width,
		a.mode == modeSearch,
	)

	if a.syncing {
		status = a.spinner.View() + " " + status
	}
	if a.notice != "" && !a.syncing {
		status = lipgloss.NewStyle().Foreground(colorGreen).Render(a.notice) + " " + status
	}
	if a.mode == modeConfirmClear {
		status = confirmStyle.Render("Delete all cached articles and queue? y/n")
	}
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("newsvault")
	dim := lipgloss.NewStyle().Foreground(colorDim)

	help := title + dim.Render(" — Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Navigate list / scroll reader\n" +
		"  tab           Switch focus between list and reader\n" +
		"  1/2, t        Switch between All and Reading Queue\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open article in browser\n" +
		"  a             Add to / remove from reading queue\n" +
		"  s             Sync now\n" +
		"  r             Refresh (sync if online, cache if not)\n" +
		"  d             Delete all cached articles\n" +
		"  /             Search articles\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 3).
		Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
