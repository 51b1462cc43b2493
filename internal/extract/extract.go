// Package extract turns the listing page HTML into headline records.
package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/news-scraper/internal/news"
)

// Selectors for the listing page structure.
const (
	ItemSelector    = "li.js-stream-content"
	TitleSelector   = "h3"
	SummarySelector = "p"
	LinkSelector    = "a"
)

// Extractor pulls one record per stream item out of a listing page.
type Extractor struct {
	origin string
}

// New returns an Extractor that prefixes relative links with origin.
func New(origin string) *Extractor {
	return &Extractor{origin: origin}
}

// Extract returns one record per item in document order. Missing headings,
// paragraphs or anchors leave the matching field empty; malformed markup
// never produces an error.
func (e *Extractor) Extract(html []byte) []news.Record {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return []news.Record{}
	}
	items := doc.Find(ItemSelector)
	records := make([]news.Record, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		records = append(records, e.record(item))
	})
	return records
}

func (e *Extractor) record(item *goquery.Selection) news.Record {
	href, _ := item.Find(LinkSelector).First().Attr("href")
	return news.Record{
		Title:   firstText(item, TitleSelector),
		Summary: firstText(item, SummarySelector),
		Link:    e.origin + href,
	}
}

func firstText(item *goquery.Selection, selector string) string {
	return strings.TrimSpace(item.Find(selector).First().Text())
}
