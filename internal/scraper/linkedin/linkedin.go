// Package linkedin scrapes the public LinkedIn guest job search.
package linkedin

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/jobscout/internal/config"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/internal/scraper"
)

const (
	// CardsPerPage is how many job cards one listing page holds.
	CardsPerPage = 25

	defaultBaseURL   = "https://www.linkedin.com"
	searchPath       = "/jobs-guest/jobs/api/seeMoreJobPostings/search"
	postingPath      = "/jobs-guest/jobs/api/jobPosting/"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Fetcher returns the HTML at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Scraper walks listing pages per location and fetches each posting's description.
// It runs a single worker; requests are spaced by the limiter.
type Scraper struct {
	baseURL string
	fetcher Fetcher
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseURL points the scraper at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(s *Scraper) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithFetcher replaces the page fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Scraper) { s.fetcher = f }
}

// New returns a scraper configured from cfg. Browser rendering is used when cfg.UseBrowser is set.
func New(cfg config.ScrapeConfig, opts ...Option) *Scraper {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	s := &Scraper{
		baseURL: defaultBaseURL,
		limiter: newLimiter(cfg.SlowMo),
		logger:  zap.NewNop(),
	}
	if cfg.UseBrowser {
		s.fetcher = NewBrowserFetcher(cfg.PageLoadTimeout, cfg.HeadlessOrDefault(), ua)
	} else {
		s.fetcher = NewHTTPFetcher(cfg.PageLoadTimeout, ua)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newLimiter(slowMo time.Duration) *rate.Limiter {
	if slowMo <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(slowMo), 1)
}

// Run scrapes q.Title in every location of q, emitting metrics per listing page.
// Page and posting failures are reported through OnError and do not stop the session.
func (s *Scraper) Run(ctx context.Context, q scraper.Query, h scraper.Handler) error {
	if strings.TrimSpace(q.Title) == "" {
		return errors.New("linkedin: empty search title")
	}
	if c, ok := s.fetcher.(interface{ Close() }); ok {
		defer c.Close()
	}
	locations := q.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}
	seen := map[string]bool{}
	for _, loc := range locations {
		if err := s.runLocation(ctx, q, loc, seen, h); err != nil {
			return err
		}
	}
	h.OnComplete()
	return nil
}

func (s *Scraper) runLocation(ctx context.Context, q scraper.Query, loc string, seen map[string]bool, h scraper.Handler) error {
	limit := q.Filters.Limit
	emitted := 0
	for start := 0; limit <= 0 || emitted < limit; start += CardsPerPage {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		pageURL := s.searchURL(q, loc, start)
		html, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.OnError(errors.Wrapf(err, "listing page %d for %q", start/CardsPerPage, loc))
			return nil
		}
		cards, err := ParseCards(html)
		if err != nil {
			h.OnError(errors.Wrap(err, "failed to parse listing page"))
			return nil
		}
		if len(cards) == 0 {
			return nil
		}

		m := models.BatchMetrics{Query: q.Title, Location: loc}
		for _, c := range cards {
			if limit > 0 && emitted >= limit {
				break
			}
			if c.JobID == "" || c.Link == "" {
				m.MissedRecords++
				continue
			}
			if seen[c.JobID] {
				m.SkippedRecords++
				continue
			}
			seen[c.JobID] = true
			rec, err := s.fetchPosting(ctx, c)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.Failed++
				h.OnError(errors.Wrapf(err, "posting %s", c.JobID))
				continue
			}
			rec.Query = q.Title
			rec.Location = loc
			h.OnRecord(rec)
			m.Processed++
			emitted++
		}
		s.logger.Debug("linkedin page scraped",
			zap.String("location", loc),
			zap.Int("start", start),
			zap.Int("processed", m.Processed))
		h.OnBatchMetrics(m)
		if len(cards) < CardsPerPage {
			return nil
		}
	}
	return nil
}

func (s *Scraper) fetchPosting(ctx context.Context, c Card) (models.RawRecord, error) {
	rec := models.RawRecord{
		JobID:       c.JobID,
		Title:       c.Title,
		Company:     c.Company,
		CompanyLink: c.CompanyLink,
		Place:       c.Place,
		Date:        c.Date,
		Link:        c.Link,
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return rec, err
	}
	html, err := s.fetcher.Fetch(ctx, s.baseURL+postingPath+url.PathEscape(c.JobID))
	if err != nil {
		return rec, err
	}
	d, err := ParseDetail(html)
	if err != nil {
		return rec, err
	}
	rec.Description = d.Description
	rec.Insights = d.Insights
	return rec, nil
}

func (s *Scraper) searchURL(q scraper.Query, loc string, start int) string {
	v := url.Values{}
	v.Set("keywords", q.Title)
	if loc != "" {
		v.Set("location", loc)
	}
	if start > 0 {
		v.Set("start", strconv.Itoa(start))
	}
	for k, val := range filterParams(q.Filters) {
		v.Set(k, val)
	}
	return s.baseURL + searchPath + "?" + v.Encode()
}

var (
	timeFilters = map[string]string{
		"day":   "r86400",
		"week":  "r604800",
		"month": "r2592000",
	}
	typeFilters = map[string]string{
		"full-time":  "F",
		"part-time":  "P",
		"temporary":  "T",
		"contract":   "C",
		"internship": "I",
		"volunteer":  "V",
		"other":      "O",
	}
)

func filterParams(f scraper.Filters) map[string]string {
	out := map[string]string{}
	switch strings.ToLower(f.Relevance) {
	case "recent":
		out["sortBy"] = "DD"
	case "relevant":
		out["sortBy"] = "R"
	}
	if tpr, ok := timeFilters[strings.ToLower(f.Time)]; ok {
		out["f_TPR"] = tpr
	}
	var types []string
	for _, t := range f.Type {
		if code, ok := typeFilters[strings.ToLower(strings.TrimSpace(t))]; ok {
			types = append(types, code)
		}
	}
	if len(types) > 0 {
		out["f_JT"] = strings.Join(types, ",")
	}
	return out
}
