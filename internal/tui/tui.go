// Package tui is the interactive terminal front end. It shows the elements of
// a page as a tree. Moving the cursor in the tree hovers an element and
// pressing enter clicks it.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jakopako/gopick/internal/capture"
	"github.com/jakopako/gopick/internal/dom"
	"github.com/jakopako/gopick/internal/output"
	"github.com/jakopako/gopick/internal/page"
	"github.com/jakopako/gopick/internal/selection"
	"github.com/jakopako/gopick/internal/store"
	"github.com/jakopako/gopick/internal/types"
	"github.com/jakopako/gopick/internal/utils"
	"github.com/rivo/tview"
	"golang.org/x/net/html"
)

const (
	helpText = "[1-6] arm field  [esc] cancel  [enter] capture  [tab] switch  [e] edit  [x] delete  [s] save session  [t] save template  [j/c] export json/csv  [q] quit"

	modalPage = "modal"
	mainPage  = "main"

	maxLabelLength = 60
)

// Options configure an App.
type Options struct {
	Title  string
	Store  store.Store
	Writer output.Writer
	// Log receives the log output while the ui is running. May be nil.
	Log *tview.TextView
}

// App is the interactive selection ui for a single page.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	tree       *tview.TreeView
	table      *tview.Table
	status     *tview.TextView
	page       *page.Page
	controller *selection.Controller
	collector  *capture.Collector
	records    chan types.Record
	opts       Options
	logger     *slog.Logger
}

// New builds the ui for p.
func New(p *page.Page, opts Options) *App {
	records := make(chan types.Record, 1)
	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		table:     tview.NewTable().SetBorders(false).SetSelectable(true, false).SetFixed(1, 0),
		status:    tview.NewTextView().SetDynamicColors(true),
		page:      p,
		collector: capture.NewCollector(),
		records:   records,
		opts:      opts,
		logger:    slog.With(slog.String("component", "tui")),
	}
	a.controller = selection.NewController(p, records)
	a.tree = a.buildTree()
	a.table.SetBorder(true).SetTitle(" records ")
	a.refreshTable()
	a.setStatus("[yellow]%s", helpText)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(a.tree, 0, 1, true).
			AddItem(a.table, 0, 1, false), 0, 1, true).
		AddItem(a.status, 2, 0, false)
	if opts.Log != nil {
		opts.Log.SetBorder(true).SetTitle(" log ")
		opts.Log.SetChangedFunc(func() { a.app.Draw() })
		layout.AddItem(opts.Log, 6, 0, false)
	}
	a.pages.AddPage(mainPage, layout, true, true)
	a.app.SetRoot(a.pages, true).SetFocus(a.tree)
	a.app.SetInputCapture(a.handleKey)
	return a
}

// Collector returns the records captured so far.
func (a *App) Collector() *capture.Collector {
	return a.collector
}

// Run runs the ui until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.collector.Consume(ctx, a.records, func(r types.Record) {
		a.app.QueueUpdateDraw(func() {
			a.refreshTable()
			a.setStatus("[green]captured %s: %s", r.Type, utils.ShortenString(r.Value, maxLabelLength))
		})
	})
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()
	return a.app.Run()
}

func (a *App) buildTree() *tview.TreeView {
	root := a.page.Document().Body()
	if root == nil {
		root = a.page.Document().Root()
	}
	rootNode := tview.NewTreeNode(label(root)).SetReference(root)
	var add func(parent *tview.TreeNode, n *html.Node)
	add = func(parent *tview.TreeNode, n *html.Node) {
		for _, c := range dom.ElementChildren(n) {
			if dom.TagName(c) == "script" || dom.TagName(c) == "style" {
				continue
			}
			child := tview.NewTreeNode(label(c)).SetReference(c)
			parent.AddChild(child)
			add(child, c)
		}
	}
	add(rootNode, root)

	tree := tview.NewTreeView().SetRoot(rootNode).SetCurrentNode(rootNode)
	tree.SetBorder(true).SetTitle(" " + utils.ShortenString(a.opts.Title, maxLabelLength) + " ")
	tree.SetChangedFunc(func(tn *tview.TreeNode) {
		if n, ok := tn.GetReference().(*html.Node); ok {
			a.page.PointerMove(n)
		}
	})
	tree.SetSelectedFunc(func(tn *tview.TreeNode) {
		n, ok := tn.GetReference().(*html.Node)
		if !ok {
			return
		}
		if a.controller.State() == selection.Idle {
			tn.SetExpanded(!tn.IsExpanded())
			return
		}
		a.page.Click(n)
	})
	return tree
}

func label(n *html.Node) string {
	text := strings.Join(strings.Fields(dom.Text(n)), " ")
	if text == "" {
		return dom.Describe(n)
	}
	return fmt.Sprintf("%s [gray]%s", dom.Describe(n), tview.Escape(utils.ShortenString(text, maxLabelLength)))
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if a.pages.HasPage(modalPage) {
		return event
	}
	switch event.Key() {
	case tcell.KeyEscape:
		if a.controller.State() != selection.Idle {
			a.controller.Disarm()
			a.setStatus("[yellow]selection cancelled")
		}
		return nil
	case tcell.KeyTab:
		if a.tree.HasFocus() {
			a.app.SetFocus(a.table)
		} else {
			a.app.SetFocus(a.tree)
		}
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	r := event.Rune()
	if i, err := strconv.Atoi(string(r)); err == nil && i >= 1 && i <= len(types.FieldTypes) {
		a.arm(types.FieldTypes[i-1])
		return nil
	}
	switch r {
	case 'q':
		a.controller.Disarm()
		a.app.Stop()
	case 'e':
		a.editSelected()
	case 'x':
		a.deleteSelected()
	case 's':
		a.saveSession()
	case 't':
		a.prompt("template name", "", func(name string) { a.saveTemplate(name) })
	case 'j':
		a.export(output.JSON_FORMAT)
	case 'c':
		a.export(output.CSV_FORMAT)
	default:
		return event
	}
	return nil
}

func (a *App) arm(ft types.FieldType) {
	a.controller.Arm(ft)
	a.app.SetFocus(a.tree)
	a.setStatus("[yellow]select the %s element and press enter, esc cancels", ft)
	// the element under the cursor is hovered right away
	if tn := a.tree.GetCurrentNode(); tn != nil {
		if n, ok := tn.GetReference().(*html.Node); ok {
			a.page.PointerMove(n)
		}
	}
}

func (a *App) refreshTable() {
	a.table.Clear()
	for c, h := range []string{"type", "selector", "value"} {
		a.table.SetCell(0, c, tview.NewTableCell(h).
			SetTextColor(tcell.ColorBlue).
			SetSelectable(false))
	}
	records := a.collector.Records()
	colors := recordColors(records)
	for i, r := range records {
		a.table.SetCell(i+1, 0, tview.NewTableCell(string(r.Type)).SetTextColor(tcell.ColorGreen).SetReference(r.ID))
		a.table.SetCell(i+1, 1, tview.NewTableCell(tview.Escape(r.Selector)).SetTextColor(colors[i]))
		a.table.SetCell(i+1, 2, tview.NewTableCell(tview.Escape(utils.ShortenString(r.Value, maxLabelLength))).SetTextColor(colors[i]))
	}
}

// selectedRecord returns the id of the record selected in the table.
func (a *App) selectedRecord() (types.Record, bool) {
	row, _ := a.table.GetSelection()
	if row < 1 {
		return types.Record{}, false
	}
	id, ok := a.table.GetCell(row, 0).GetReference().(string)
	if !ok {
		return types.Record{}, false
	}
	for _, r := range a.collector.Records() {
		if r.ID == id {
			return r, true
		}
	}
	return types.Record{}, false
}

func (a *App) editSelected() {
	r, ok := a.selectedRecord()
	if !ok {
		a.setStatus("[red]no record selected")
		return
	}
	a.prompt("value", r.Value, func(v string) {
		a.collector.UpdateValue(r.ID, v)
		a.refreshTable()
		a.setStatus("[green]updated value of %s", r.Type)
	})
}

func (a *App) deleteSelected() {
	r, ok := a.selectedRecord()
	if !ok {
		a.setStatus("[red]no record selected")
		return
	}
	a.collector.Delete(r.ID)
	a.refreshTable()
	a.setStatus("[green]deleted %s record", r.Type)
}

func (a *App) saveSession() {
	ctx := context.Background()
	id, err := a.collector.SaveSession(ctx, a.opts.Store, a.opts.Title, a.page.Document().URL(), "")
	if err != nil {
		a.setStatus("[red]failed to save session: %s", tview.Escape(err.Error()))
		return
	}
	a.setStatus("[green]saved session %d", id)
}

func (a *App) saveTemplate(name string) {
	if strings.TrimSpace(name) == "" {
		a.setStatus("[red]template name cannot be empty")
		return
	}
	t, err := a.collector.SaveTemplate(context.Background(), a.opts.Store, strings.TrimSpace(name), "")
	if err != nil {
		a.setStatus("[red]failed to save template: %s", tview.Escape(err.Error()))
		return
	}
	a.setStatus("[green]saved template %s with %d selectors", t.Name, len(t.Selectors))
}

func (a *App) export(f output.Format) {
	if a.opts.Writer == nil {
		a.setStatus("[red]export is not available")
		return
	}
	content, err := output.FormatRecords(a.collector.Records(), f)
	if err != nil {
		a.setStatus("[red]%s", tview.Escape(err.Error()))
		return
	}
	name := output.ExportFilename("extraction-data", f, time.Now())
	if err := a.opts.Writer.Write(name, content); err != nil {
		a.setStatus("[red]export failed: %s", tview.Escape(err.Error()))
		return
	}
	a.setStatus("[green]exported %d records to %s", a.collector.Len(), name)
}

// prompt shows a modal input field. done is called with the entered text
// unless the user cancels with esc.
func (a *App) prompt(label, value string, done func(string)) {
	input := tview.NewInputField().SetLabel(label + ": ").SetText(value).SetFieldWidth(60)
	input.SetDoneFunc(func(key tcell.Key) {
		a.pages.RemovePage(modalPage)
		a.app.SetFocus(a.table)
		if key == tcell.KeyEnter {
			done(input.GetText())
		}
	})
	input.SetBorder(true)
	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(input, 3, 0, true).
			AddItem(nil, 0, 1, false), 70, 0, true).
		AddItem(nil, 0, 1, false)
	a.pages.AddPage(modalPage, modal, true, true)
	a.app.SetFocus(input)
}

func (a *App) setStatus(format string, args ...any) {
	a.status.SetText(fmt.Sprintf(format, args...))
}
