package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jakopako/gopick/internal/apply"
	"github.com/jakopako/gopick/internal/config"
	"github.com/jakopako/gopick/internal/dom"
	"github.com/jakopako/gopick/internal/fetch"
	"github.com/jakopako/gopick/internal/log"
	"github.com/jakopako/gopick/internal/output"
	"github.com/jakopako/gopick/internal/page"
	"github.com/jakopako/gopick/internal/selection"
	"github.com/jakopako/gopick/internal/store"
	"github.com/jakopako/gopick/internal/tui"
	"github.com/jakopako/gopick/internal/types"
	"github.com/rivo/tview"
	"gopkg.in/yaml.v3"
)

// ConfigFlag is embedded in every command that needs the configuration.
type ConfigFlag struct {
	Config string `short:"c" default:"./gopick.yaml" help:"The location of the configuration file. If it does not exist the configuration is read from the environment." type:"path"`
}

func (c ConfigFlag) load() (*config.Config, error) {
	conf, err := config.NewConfig(c.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return nil, err
	}
	return conf, nil
}

// ExportFlags select where and how exported data is written.
type ExportFlags struct {
	Format string `short:"f" default:"json" enum:"json,csv" help:"The export format."`
	Stdout bool   `short:"o" help:"If set to true the data will be written to stdout despite the configured writer."`
}

func (e ExportFlags) writer(conf *config.Config) (output.Writer, output.Format, error) {
	f, err := output.ParseFormat(e.Format)
	if err != nil {
		return nil, "", err
	}
	wc := conf.Export
	if e.Stdout {
		wc.Type = output.STDOUT_WRITER_TYPE
	}
	w, err := output.NewWriter(&wc)
	if err != nil {
		slog.Error(err.Error())
		return nil, "", err
	}
	return w, f, nil
}

// InteractionFlags describe interactions run by the dynamic fetcher before the
// page is captured, eg. to accept a cookie banner or load more items.
type InteractionFlags struct {
	Click  []string `help:"Css selectors of elements to click before the page is captured. Requires the dynamic fetcher."`
	Scroll int      `help:"Number of times to scroll to the bottom of the page before it is captured. Requires the dynamic fetcher."`
}

func (i InteractionFlags) opts() fetch.FetchOpts {
	opts := fetch.FetchOpts{}
	for _, sel := range i.Click {
		opts.Interaction = append(opts.Interaction, &types.Interaction{
			Type:     types.InteractionTypeClick,
			Selector: sel,
			Count:    1,
		})
	}
	if i.Scroll > 0 {
		opts.Interaction = append(opts.Interaction, &types.Interaction{
			Type:  types.InteractionTypeScroll,
			Count: i.Scroll,
		})
	}
	return opts
}

// loadPage fetches urlStr with the configured fetcher and parses it.
func loadPage(ctx context.Context, conf *config.Config, urlStr string, opts fetch.FetchOpts) (*page.Page, error) {
	fetcher, err := fetch.NewFetcher(&conf.Fetcher)
	if err != nil {
		return nil, err
	}
	defer fetcher.Cancel()

	logger := slog.With(slog.String("url", urlStr))
	ctx = log.ContextWithLogger(ctx, logger)
	if len(opts.Interaction) > 0 && conf.Fetcher.Type != fetch.DYNAMIC_FETCHER_TYPE {
		logger.Warn("interactions are only supported by the dynamic fetcher and will be ignored")
	}
	content, err := fetcher.Fetch(ctx, urlStr, opts)
	if err != nil {
		logger.Error(fmt.Sprintf("error while fetching page: %v", err))
		return nil, err
	}
	return page.FromHTML(content, urlStr)
}

type PickCmd struct {
	ConfigFlag
	InteractionFlags
	URL string `short:"u" long:"url" help:"The URL of the page to pick elements from." required:""`
}

func (p *PickCmd) Run() error {
	conf, err := p.load()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pg, err := loadPage(ctx, conf, p.URL, p.opts())
	if err != nil {
		return err
	}

	s := store.OpenOrDisable(ctx, conf.Store)
	defer s.Close()

	// exporting from the ui never goes to stdout since the ui owns the terminal
	wc := conf.Export
	if wc.Type == output.STDOUT_WRITER_TYPE {
		wc.Type = output.FILE_WRITER_TYPE
	}
	w, err := output.NewWriter(&wc)
	if err != nil {
		slog.Warn(fmt.Sprintf("export disabled: %v", err))
		w = nil
	}

	title := pg.Document().Title()
	if title == "" {
		title = p.URL
	}

	// the ui owns the terminal, log output goes to a view
	logView := tview.NewTextView()
	log.InitializeLogger(logView)
	defer log.InitializeDefaultLogger()

	app := tui.New(pg, tui.Options{
		Title:  title,
		Store:  s,
		Writer: w,
		Log:    logView,
	})
	if err := app.Run(ctx); err != nil {
		return err
	}
	log.InitializeDefaultLogger()
	slog.Info(fmt.Sprintf("captured %d records on %s", app.Collector().Len(), p.URL))
	return nil
}

type CaptureCmd struct {
	ConfigFlag
	ExportFlags
	URL    string `short:"u" long:"url" help:"The URL of the page." required:""`
	Type   string `short:"t" long:"type" help:"The field type to capture." required:"" enum:"image,link,price,title,description,text"`
	Target string `short:"s" long:"target" help:"A css selector of the element to click. The first match is used." required:""`
	Save   bool   `short:"S" help:"If set to true the captured record is saved as a new session."`
}

func (c *CaptureCmd) Run() error {
	conf, err := c.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pg, err := loadPage(ctx, conf, c.URL, fetch.FetchOpts{})
	if err != nil {
		return err
	}
	ft, err := types.ParseFieldType(c.Type)
	if err != nil {
		return err
	}
	rec, err := captureElement(pg, ft, c.Target)
	if err != nil {
		slog.Error(err.Error())
		return err
	}

	w, f, err := c.writer(conf)
	if err != nil {
		return err
	}
	var exportErr, saveErr error
	content, err := output.FormatRecords([]types.Record{rec}, f)
	if err != nil {
		exportErr = err
	} else {
		exportErr = w.Write(output.ExportFilename("capture", f, time.Now()), content)
	}

	if c.Save {
		s := store.OpenOrDisable(ctx, conf.Store)
		defer s.Close()
		session := types.Session{URL: c.URL, Title: pg.Document().Title(), Records: []types.Record{rec}}
		saveErr = persistSessions(ctx, s, []types.Session{session})
	}
	return errors.Join(exportErr, saveErr)
}

// persistSessions saves every session it can. A failing session does not stop
// the others, all errors are returned joined.
func persistSessions(ctx context.Context, s store.Store, sessions []types.Session) error {
	var errs []error
	saved := 0
	for i := range sessions {
		id, err := s.PersistSession(ctx, &sessions[i])
		if err != nil {
			slog.Error(fmt.Sprintf("failed to save session: %v", err))
			errs = append(errs, err)
			continue
		}
		saved++
		slog.Debug(fmt.Sprintf("saved session %d", id))
	}
	if saved > 0 {
		slog.Info(fmt.Sprintf("saved %d sessions", saved))
	}
	return errors.Join(errs...)
}

// captureElement runs one arming of selection mode on p, hovering and clicking
// the first element matching target, and returns the committed record.
func captureElement(p *page.Page, ft types.FieldType, target string) (types.Record, error) {
	n := p.Document().First(target)
	if n == nil {
		return types.Record{}, fmt.Errorf("no element matches %s", target)
	}
	out := make(chan types.Record, 1)
	c := selection.NewController(p, out)
	c.Arm(ft)
	p.PointerMove(n)
	if !p.Click(n) {
		c.Disarm()
		return types.Record{}, fmt.Errorf("element %s cannot be captured", dom.Describe(n))
	}
	return <-out, nil
}

type ApplyCmd struct {
	ConfigFlag
	ExportFlags
	InteractionFlags
	URL      string `short:"u" long:"url" help:"The URL of the page." required:""`
	Template string `short:"t" long:"template" help:"The name of a saved template." xor:"template"`
	File     string `short:"F" long:"file" help:"A yaml file containing the template." xor:"template" type:"existingfile"`
	Save     bool   `short:"S" help:"If set to true every extracted item is saved as a session."`
}

func (a *ApplyCmd) Run() error {
	conf, err := a.load()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var s store.Store
	switch {
	case a.Template != "":
		if s, err = store.Open(ctx, conf.Store); err != nil {
			slog.Error(err.Error())
			return err
		}
		defer s.Close()
	case a.Save:
		s = store.OpenOrDisable(ctx, conf.Store)
		defer s.Close()
	}

	var tpl *types.Template
	switch {
	case a.Template != "":
		if tpl, err = s.GetTemplate(ctx, a.Template); err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
	case a.File != "":
		if tpl, err = readTemplateFile(a.File); err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
	default:
		return errors.New("either --template or --file is required")
	}

	pg, err := loadPage(ctx, conf, a.URL, a.opts())
	if err != nil {
		return err
	}
	res := apply.Apply(pg.Document(), tpl, time.Now())
	if res.Ambiguous > 0 {
		slog.Warn(fmt.Sprintf("%d selectors matched more than one element, the first match was used", res.Ambiguous))
	}

	w, f, err := a.writer(conf)
	if err != nil {
		return err
	}
	var exportErr, saveErr error
	content, err := output.FormatItems(res.Items, f)
	if err != nil {
		exportErr = err
	} else {
		exportErr = w.Write(output.ExportFilename(tpl.Name, f, time.Now()), content)
	}

	if a.Save {
		sessions := make([]types.Session, 0, len(res.Items))
		for _, it := range res.Items {
			sessions = append(sessions, itemSession(it, tpl, pg.Document().Title()))
		}
		saveErr = persistSessions(ctx, s, sessions)
	}
	return errors.Join(exportErr, saveErr)
}

// itemSession turns an item extracted with tpl into a session so that it can
// be stored like a manual capture.
func itemSession(it types.Item, tpl *types.Template, title string) types.Session {
	session := types.Session{
		URL:          it.URL,
		Title:        title,
		TemplateName: tpl.Name,
		CreatedAt:    it.Timestamp,
	}
	for _, ft := range types.FieldTypes {
		v, found := it.Data[ft]
		if !found {
			continue
		}
		session.Records = append(session.Records, types.Record{
			Type:       ft,
			Selector:   tpl.Selectors[ft],
			Value:      v,
			SourceURL:  it.URL,
			CapturedAt: it.Timestamp,
		})
	}
	return session
}

func readTemplateFile(path string) (*types.Template, error) {
	templates, err := readTemplates(path)
	if err != nil {
		return nil, err
	}
	if len(templates) != 1 {
		return nil, fmt.Errorf("expected exactly one template in %s, found %d", path, len(templates))
	}
	return &templates[0], nil
}

type SessionsCmd struct {
	List   SessionsListCmd   `cmd:"" default:"1" help:"List saved sessions."`
	Delete SessionsDeleteCmd `cmd:"" help:"Delete a saved session."`
	Export SessionsExportCmd `cmd:"" help:"Export a saved session."`
}

type SessionsListCmd struct {
	ConfigFlag
}

func (l *SessionsListCmd) Run() error {
	conf, err := l.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := store.Open(ctx, conf.Store)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer s.Close()

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, []string{
			fmt.Sprint(session.ID),
			session.URL,
			session.Title,
			fmt.Sprint(len(session.Records)),
			session.TemplateName,
			session.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable(os.Stdout, []string{"ID", "URL", "Title", "Records", "Template", "Created"}, rows)
}

type SessionsDeleteCmd struct {
	ConfigFlag
	ID int64 `arg:"" help:"The id of the session."`
}

func (d *SessionsDeleteCmd) Run() error {
	conf, err := d.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := store.Open(ctx, conf.Store)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer s.Close()

	if err := s.DeleteSession(ctx, d.ID); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	slog.Info(fmt.Sprintf("deleted session %d", d.ID))
	return nil
}

type SessionsExportCmd struct {
	ConfigFlag
	ExportFlags
	ID      int64 `arg:"" help:"The id of the session."`
	Grouped bool  `short:"g" help:"If set to true the records are exported as one item with a column per field type."`
}

func (e *SessionsExportCmd) Run() error {
	conf, err := e.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := store.Open(ctx, conf.Store)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer s.Close()

	session, err := s.GetSession(ctx, e.ID)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	w, f, err := e.writer(conf)
	if err != nil {
		return err
	}
	var content string
	if e.Grouped {
		content, err = output.FormatItems(output.ItemsFromSession(*session), f)
	} else {
		content, err = output.FormatRecords(session.Records, f)
	}
	if err != nil {
		return err
	}
	return w.Write(output.ExportFilename(fmt.Sprintf("extraction-%d", e.ID), f, time.Now()), content)
}

type TemplatesCmd struct {
	List   TemplatesListCmd   `cmd:"" default:"1" help:"List saved templates."`
	Show   TemplatesShowCmd   `cmd:"" help:"Print a saved template as yaml."`
	Import TemplatesImportCmd `cmd:"" help:"Save the templates of a yaml file, replacing templates with the same name."`
}

type TemplatesListCmd struct {
	ConfigFlag
}

func (l *TemplatesListCmd) Run() error {
	conf, err := l.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := store.Open(ctx, conf.Store)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer s.Close()

	templates, err := s.ListTemplates(ctx)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		fields := []string{}
		for _, ft := range types.FieldTypes {
			if _, found := t.Selectors[ft]; found {
				fields = append(fields, string(ft))
			}
		}
		rows = append(rows, []string{t.Name, strings.Join(fields, ", "), t.ContainerSelector, t.CreatedAt.Local().Format(time.DateTime)})
	}
	return renderTable(os.Stdout, []string{"Name", "Fields", "Container", "Created"}, rows)
}

type TemplatesShowCmd struct {
	ConfigFlag
	Name string `arg:"" help:"The name of the template."`
}

func (sc *TemplatesShowCmd) Run() error {
	conf, err := sc.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := store.Open(ctx, conf.Store)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer s.Close()

	t, err := s.GetTemplate(ctx, sc.Name)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	yamlData, err := yaml.Marshal(t)
	if err != nil {
		slog.Error(fmt.Sprintf("error while marshalling. %v", err))
		return err
	}
	fmt.Print(string(yamlData))
	return nil
}

type TemplatesImportCmd struct {
	ConfigFlag
	File string `arg:"" help:"A yaml file containing one template or a list of templates." type:"existingfile"`
}

func (ic *TemplatesImportCmd) Run() error {
	conf, err := ic.load()
	if err != nil {
		return err
	}
	templates, err := readTemplates(ic.File)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	ctx := context.Background()
	s, err := store.Open(ctx, conf.Store)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer s.Close()

	for _, t := range templates {
		if err := s.PersistTemplate(ctx, &t); err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
		slog.Info(fmt.Sprintf("imported template %s", t.Name))
	}
	return nil
}

// readTemplates reads a yaml file with either a single template or a list
// of templates.
func readTemplates(path string) ([]types.Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var templates []types.Template
	if err := yaml.Unmarshal(b, &templates); err != nil {
		var t types.Template
		if err := yaml.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("error while parsing templates %s: %w", path, err)
		}
		templates = []types.Template{t}
	}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return templates, nil
}
