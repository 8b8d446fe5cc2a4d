package linkedin

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/hyperjump/jobscout/pkg/utils"
)

// Card is one entry of a listing page.
type Card struct {
	JobID       string
	Title       string
	Company     string
	CompanyLink string
	Place       string
	Date        string
	Link        string
}

// Detail is the part of a posting page not present on the card.
type Detail struct {
	Description string
	Insights    []string
}

const urnPrefix = "urn:li:jobPosting:"

// ParseCards extracts job cards from a listing page.
func ParseCards(html string) ([]Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}
	var cards []Card
	doc.Find("div.base-card, div.base-search-card").Each(func(_ int, sel *goquery.Selection) {
		c := Card{
			Title:   utils.CollapseSpace(sel.Find(".base-search-card__title").First().Text()),
			Company: utils.CollapseSpace(sel.Find(".base-search-card__subtitle").First().Text()),
			Place:   utils.CollapseSpace(sel.Find(".job-search-card__location").First().Text()),
		}
		if urn, ok := sel.Attr("data-entity-urn"); ok {
			c.JobID = strings.TrimPrefix(urn, urnPrefix)
		}
		if href, ok := sel.Find("a.base-card__full-link").First().Attr("href"); ok {
			c.Link = canonicalLink(href)
		}
		if href, ok := sel.Find(".base-search-card__subtitle a").First().Attr("href"); ok {
			c.CompanyLink = canonicalLink(href)
		}
		if dt, ok := sel.Find("time").First().Attr("datetime"); ok {
			c.Date = dt
		}
		cards = append(cards, c)
	})
	return cards, nil
}

// ParseDetail extracts the description and criteria from a posting page.
func ParseDetail(html string) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Detail{}, errors.Wrap(err, "failed to parse HTML")
	}
	markup := doc.Find(".show-more-less-html__markup, .description__text").First()
	if markup.Length() == 0 {
		return Detail{}, errors.New("posting page has no description")
	}
	markup.Find("br").ReplaceWithHtml("\n")
	d := Detail{Description: strings.TrimSpace(markup.Text())}
	doc.Find(".description__job-criteria-item").Each(func(_ int, sel *goquery.Selection) {
		h := utils.CollapseSpace(sel.Find(".description__job-criteria-subheader").Text())
		v := utils.CollapseSpace(sel.Find(".description__job-criteria-text").Text())
		if v == "" {
			return
		}
		if h != "" {
			v = h + ": " + v
		}
		d.Insights = append(d.Insights, v)
	})
	return d, nil
}

// canonicalLink drops the tracking query string from a LinkedIn URL.
func canonicalLink(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	return href
}
