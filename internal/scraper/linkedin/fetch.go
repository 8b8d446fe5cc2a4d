package linkedin

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"
)

// DefaultPageLoadTimeout applies when no timeout is configured.
const DefaultPageLoadTimeout = 40 * time.Second

// HTTPFetcher fetches pages with a plain HTTP client.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher returns a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultPageLoadTimeout
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}, userAgent: userAgent}
}

// Fetch returns the body at u. Non-200 responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "HTTP request failed")
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("HTTP status %d for %s", resp.StatusCode, u)
	}
	return string(body), nil
}

// BrowserFetcher renders pages in headless Chrome. One browser is started lazily and
// reused until Close.
type BrowserFetcher struct {
	timeout   time.Duration
	headless  bool
	userAgent string

	mu          sync.Mutex
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
}

// NewBrowserFetcher returns a fetcher that waits up to pageLoadTimeout per page.
func NewBrowserFetcher(pageLoadTimeout time.Duration, headless bool, userAgent string) *BrowserFetcher {
	if pageLoadTimeout <= 0 {
		pageLoadTimeout = DefaultPageLoadTimeout
	}
	return &BrowserFetcher{timeout: pageLoadTimeout, headless: headless, userAgent: userAgent}
}

func (f *BrowserFetcher) start() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browserCtx != nil {
		return f.browserCtx
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", f.headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(f.userAgent),
		)...,
	)
	browserCtx, cancelTab := chromedp.NewContext(allocCtx)
	f.browserCtx, f.cancelAlloc, f.cancelTab = browserCtx, cancelAlloc, cancelTab
	return browserCtx
}

// Fetch navigates to u and returns the rendered HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, u string) (string, error) {
	browserCtx := f.start()
	tabCtx, cancel := context.WithTimeout(browserCtx, f.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(u),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", errors.Wrap(err, "browser rendering failed")
	}
	return html, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelTab != nil {
		f.cancelTab()
		f.cancelAlloc()
	}
	f.browserCtx, f.cancelTab, f.cancelAlloc = nil, nil, nil
}
