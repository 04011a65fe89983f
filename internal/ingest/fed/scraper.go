// Package fed scrapes FOMC statements from the Federal Reserve press
// pages and stores each new statement with a unified diff against its
// predecessor.
package fed

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// DefaultBaseURL is the Federal Reserve site root.
const DefaultBaseURL = "https://www.federalreserve.gov"

const (
	indexPath = "/newsevents/pressreleases.htm"
	bank      = "federal_reserve"
	commType  = "statement"
)

var (
	yearPagePattern   = regexp.MustCompile(`/newsevents/pressreleases/\d{4}-press-fomc\.htm`)
	monetaryDateRe    = regexp.MustCompile(`monetary(\d{8})`)
	statementFragment = "pressreleases/monetary"
)

// Scraper walks the press-release index and stores new statements.
type Scraper struct {
	client  *fetch.Client
	comms   persistence.CommsRepo
	baseURL string
}

// NewScraper builds a scraper against the live site.
func NewScraper(client *fetch.Client, comms persistence.CommsRepo) *Scraper {
	return &Scraper{client: client, comms: comms, baseURL: DefaultBaseURL}
}

// statementRef is one discovered statement link.
type statementRef struct {
	url         string
	publishedAt time.Time
}

// Sync discovers statements, skips known ones, and inserts the rest in
// chronological order so each diff sees its true predecessor.
func (s *Scraper) Sync(ctx context.Context) (int, error) {
	refs, err := s.discover(ctx)
	if err != nil {
		return 0, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].publishedAt.Before(refs[j].publishedAt) })

	inserted := 0
	for _, ref := range refs {
		known, err := s.comms.Exists(ctx, bank, commType, ref.publishedAt)
		if err != nil {
			return inserted, fmt.Errorf("check statement %s: %w", ref.url, err)
		}
		if known {
			continue
		}
		if err := s.ingest(ctx, ref); err != nil {
			log.Error().Err(err).Str("url", ref.url).Msg("ingest statement failed")
			continue
		}
		inserted++
		metrics.RowsUpserted.WithLabelValues("central_bank_comms").Inc()
	}
	log.Info().Int("discovered", len(refs)).Int("new", inserted).Msg("fed statements synced")
	return inserted, nil
}

// discover walks the index page to the per-year FOMC pages and collects
// statement links.
func (s *Scraper) discover(ctx context.Context) ([]statementRef, error) {
	index, err := s.fetchDoc(ctx, s.baseURL+indexPath)
	if err != nil {
		return nil, fmt.Errorf("fetch press index: %w", err)
	}

	yearPages := map[string]bool{}
	index.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if match := yearPagePattern.FindString(href); match != "" {
			yearPages[match] = true
		}
	})

	var refs []statementRef
	seen := map[string]bool{}
	for page := range yearPages {
		doc, err := s.fetchDoc(ctx, s.baseURL+page)
		if err != nil {
			log.Error().Err(err).Str("page", page).Msg("fetch year page failed")
			continue
		}
		doc.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if !strings.Contains(href, statementFragment) || seen[href] {
				return
			}
			title := strings.TrimSpace(a.Text())
			if isMinutesOnly(title) {
				return
			}
			publishedAt, ok := statementDate(title, href)
			if !ok {
				return
			}
			seen[href] = true
			refs = append(refs, statementRef{url: s.baseURL + href, publishedAt: publishedAt})
		})
	}
	return refs, nil
}

func (s *Scraper) ingest(ctx context.Context, ref statementRef) error {
	doc, err := s.fetchDoc(ctx, ref.url)
	if err != nil {
		return err
	}
	text := statementText(doc)
	if text == "" {
		return fmt.Errorf("no statement text at %s", ref.url)
	}

	comm := models.CentralBankComm{
		Bank:        bank,
		CommType:    commType,
		PublishedAt: &ref.publishedAt,
		FullText:    &text,
	}

	previous, err := s.comms.LatestBefore(ctx, bank, commType, ref.publishedAt)
	if err != nil {
		return fmt.Errorf("load previous statement: %w", err)
	}
	if previous != nil && previous.FullText != nil {
		diff, err := unifiedDiff(*previous.FullText, text)
		if err != nil {
			return fmt.Errorf("diff statement: %w", err)
		}
		comm.ChangeVsPrevious = &diff
	}
	return s.comms.Insert(ctx, comm)
}

func (s *Scraper) fetchDoc(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// isMinutesOnly rejects minutes releases that carry no statement.
func isMinutesOnly(title string) bool {
	lowered := strings.ToLower(title)
	return strings.Contains(lowered, "minutes") && !strings.Contains(lowered, "statement")
}

// statementDate parses the link title's leading "Month DD, YYYY" (any
// parenthetical stripped), falling back to the monetaryYYYYMMDD href
// stamp.
func statementDate(title, href string) (time.Time, bool) {
	datePart := title
	if i := strings.Index(datePart, "("); i >= 0 {
		datePart = datePart[:i]
	}
	if t, err := time.Parse("January 2, 2006", strings.TrimSpace(datePart)); err == nil {
		return t.UTC(), true
	}
	if m := monetaryDateRe.FindStringSubmatch(href); m != nil {
		if t, err := time.Parse("20060102", m[1]); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// statementText pulls the article body: #article paragraphs and list
// items, falling back to every paragraph on the page.
func statementText(doc *goquery.Document) string {
	var lines []string
	collect := func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	}
	doc.Find("#article p, #article li").Each(collect)
	if len(lines) == 0 {
		doc.Find("p").Each(collect)
	}
	return strings.Join(lines, "\n")
}

// unifiedDiff renders previous→current; empty when identical.
func unifiedDiff(previous, current string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	})
}
