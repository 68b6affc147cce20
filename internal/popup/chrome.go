package popup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"
)

// placeholderHTML is shown while the flow start request is in flight, so the
// window appears immediately instead of after the network round trip.
const placeholderHTML = `<title>Connecting to Zendesk…</title>` +
	`<body style="font-family:system-ui;display:flex;align-items:center;` +
	`justify-content:center;height:100vh;margin:0;color:#444">` +
	`<p>Connecting to Zendesk…</p></body>`

// ChromeOpener launches authorization windows in a dedicated browser
// instance sized for the consent dialog.
type ChromeOpener struct {
	logger *slog.Logger
}

// NewChromeOpener creates an opener. A nil logger falls back to the default.
func NewChromeOpener(logger *slog.Logger) *ChromeOpener {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeOpener{logger: logger}
}

// Open launches a visible browser window showing a placeholder page. It
// returns ErrBlocked when no browser can be started, in which case no flow
// state exists yet and the caller must abort before touching the network.
func (o *ChromeOpener) Open(ctx context.Context) (Controller, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("app", "about:blank"),
		chromedp.WindowSize(WindowWidth, WindowHeight),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	w := &chromeWindow{
		ctx:       tabCtx,
		cancelTab: cancelTab,
		cancelAll: cancelAlloc,
		logger:    o.logger,
	}

	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(fmt.Sprintf("document.documentElement.innerHTML = %q", placeholderHTML), nil),
	)
	if err != nil {
		w.Close()
		o.logger.Warn("browser launch failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBlocked, err)
	}

	o.logger.Debug("authorization window opened")
	return w, nil
}

type chromeWindow struct {
	ctx       context.Context
	cancelTab context.CancelFunc
	cancelAll context.CancelFunc
	closeOnce sync.Once
	logger    *slog.Logger
}

func (w *chromeWindow) Navigate(ctx context.Context, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(w.ctx, chromedp.Navigate(url))
	}()

	select {
	case err := <-done:
		if err != nil {
			if w.IsClosed() {
				return ErrClosed
			}
			return fmt.Errorf("navigate authorization window: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsClosed reports whether the tab context has ended, which covers both the
// agent closing the window and the browser process dying.
func (w *chromeWindow) IsClosed() bool {
	select {
	case <-w.ctx.Done():
		return true
	default:
		return false
	}
}

func (w *chromeWindow) Close() {
	w.closeOnce.Do(func() {
		w.cancelTab()
		w.cancelAll()
		w.logger.Debug("authorization window closed")
	})
}
