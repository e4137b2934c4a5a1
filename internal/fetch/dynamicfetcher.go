package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/jakopako/gopick/internal/log"
	"github.com/jakopako/gopick/internal/types"
)

const (
	defaultPageLoadWait     = 2000 * time.Millisecond
	defaultInteractionDelay = 500 * time.Millisecond
)

// The DynamicFetcher loads pages in a headless chrome so that the captured
// document is the one the user would see, after scripts ran.
type DynamicFetcher struct {
	*FetcherConfig
	allocContext context.Context
	cancelAlloc  context.CancelFunc
}

func NewDynamicFetcher(fc *FetcherConfig) *DynamicFetcher {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080), // pages may hide elements on small screens
	)
	if fc.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(fc.UserAgent))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	return &DynamicFetcher{
		FetcherConfig: fc,
		allocContext:  allocContext,
		cancelAlloc:   cancelAlloc,
	}
}

// Cancel shuts down the browser.
func (d *DynamicFetcher) Cancel() {
	d.cancelAlloc()
}

func (d *DynamicFetcher) Fetch(ctx context.Context, urlStr string, opts FetchOpts) (string, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("fetcher", "dynamic"), slog.String("url", urlStr))
	logger.Debug("fetching page", slog.String("user-agent", d.UserAgent))
	cctx, cancel := chromedp.NewContext(d.allocContext)
	defer cancel()
	// stop chrome work as soon as the caller gives up
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{}
	if log.Debug {
		actions = append(actions, logVersion(logger))
	}
	actions = append(actions, chromedp.Navigate(urlStr))
	if d.WaitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(d.WaitSelector, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.Sleep(d.pageLoadWait()))
	}
	for _, ia := range opts.Interaction {
		actions = append(actions, interactionActions(logger, ia)...)
	}

	var body string
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		body, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))

	if err := chromedp.Run(cctx, actions...); err != nil {
		return "", fmt.Errorf("error while rendering %s: %w", urlStr, err)
	}

	if log.Debug {
		writeHTMLToFile(ctx, urlStr, body, d.DebugDir)
	}
	return body, nil
}

func (d *DynamicFetcher) pageLoadWait() time.Duration {
	if d.PageLoadWaitMS <= 0 {
		return defaultPageLoadWait
	}
	return time.Duration(d.PageLoadWaitMS) * time.Millisecond
}

// interactionActions translates ia into chrome actions, each followed by the
// interaction delay.
func interactionActions(logger *slog.Logger, ia *types.Interaction) []chromedp.Action {
	delay := defaultInteractionDelay
	if ia.Delay > 0 {
		delay = time.Duration(ia.Delay) * time.Millisecond
	}
	var step chromedp.Action
	switch ia.Type {
	case types.InteractionTypeClick:
		step = clickFirst(logger, ia.Selector)
	case types.InteractionTypeScroll:
		// lazy loading pages may grow with every scroll
		step = chromedp.ActionFunc(func(ctx context.Context) error {
			logger.Debug("scrolling down the page")
			return chromedp.KeyEvent(kb.End).Do(ctx)
		})
	default:
		logger.Warn(fmt.Sprintf("unknown interaction type %s", ia.Type))
		return nil
	}
	actions := []chromedp.Action{}
	for range max(ia.Count, 1) {
		actions = append(actions, step, chromedp.Sleep(delay))
	}
	return actions
}

// clickFirst clicks the first node matching selector. A missing node is not
// an error, eg. a cookie banner that is not shown.
func clickFirst(logger *slog.Logger, selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(selector, &nodes, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			logger.Debug(fmt.Sprintf("nothing to click for selector %s", selector))
			return nil
		}
		logger.Debug(fmt.Sprintf("clicking on node with selector: %s", selector))
		return chromedp.MouseClickNode(nodes[0]).Do(ctx)
	})
}

func logVersion(logger *slog.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		protocolVersion, product, revision, userAgent, jsVersion, err := browser.GetVersion().Do(ctx)
		if err != nil {
			logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
			return nil
		}
		logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
			protocolVersion, product, revision, userAgent, jsVersion))
		return nil
	})
}
