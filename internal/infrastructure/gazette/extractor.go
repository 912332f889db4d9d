// Package gazette adapts the El Peruano official-gazette search page into the
// Extractor port. The page is rendered client-side, so extraction drives a
// headless browser and parses the settled HTML with goquery.
package gazette

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"NormasScanner/internal/domain"
	"NormasScanner/internal/ports"
)

const (
	articleSelector = "article.edicionesoficiales_articulos"
	scrollPause     = 1200 * time.Millisecond
	searchSettle    = 8 * time.Second
	pageSettle      = 4 * time.Second
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Extractor drives one headless browser session, reused sequentially across
// schedule entries and released with Close.
type Extractor struct {
	baseURL    string
	maxScrolls int
	logger     *slog.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
}

var _ ports.Extractor = (*Extractor)(nil)

// New starts a headless browser allocator for the given gazette base URL.
func New(baseURL string, maxScrolls int, logger *slog.Logger) *Extractor {
	if maxScrolls <= 0 {
		maxScrolls = 40
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	return &Extractor{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		maxScrolls:  maxScrolls,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		cancel:      cancel,
	}
}

// Close releases the browser session.
func (e *Extractor) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
}

// Extract searches one date and edition kind and returns every candidate the
// results list yields. Days without publications return an empty slice.
func (e *Extractor) Extract(ctx context.Context, date time.Time, edition domain.EditionKind) ([]domain.Candidate, error) {
	dateStr := date.Format("02/01/2006")
	extraordinary := edition == domain.EditionExtraordinary

	runCtx := e.browserCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}

	e.logger.Info("searching gazette", "date", dateStr, "edition", edition)

	setSearch := fmt.Sprintf(`
		document.getElementById('cddesde').value = %[1]q;
		document.getElementById('cdhasta').value = %[1]q;
		document.getElementById('tipo').checked = %[2]t;`, dateStr, extraordinary)

	err := chromedp.Run(runCtx,
		chromedp.Navigate(e.baseURL+"/Normas"),
		chromedp.Sleep(pageSettle),
		chromedp.Evaluate(setSearch, nil),
		chromedp.Evaluate(`document.getElementById('btnBuscar').click();`, nil),
		chromedp.Sleep(searchSettle),
	)
	if err != nil {
		return nil, fmt.Errorf("gazette search %s %s: %w", dateStr, edition, err)
	}

	html, err := e.scrollUntilStable(runCtx)
	if err != nil {
		return nil, fmt.Errorf("load results %s %s: %w", dateStr, edition, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	candidates := ParseArticles(doc, e.baseURL, edition)
	e.logger.Info("candidates extracted", "date", dateStr, "edition", edition, "count", len(candidates))
	return candidates, nil
}

// scrollUntilStable keeps scrolling to the bottom until the article count
// stays unchanged for three rounds or the scroll cap is reached, then returns
// the final page HTML.
func (e *Extractor) scrollUntilStable(ctx context.Context) (string, error) {
	var html string
	lastCount, stable := -1, 0

	for i := 0; i < e.maxScrolls; i++ {
		var count int
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil),
			chromedp.Sleep(scrollPause),
			chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%q).length`, articleSelector), &count),
		)
		if err != nil {
			return "", err
		}

		if count == lastCount {
			stable++
		} else {
			stable = 0
			lastCount = count
		}
		if stable >= 3 {
			break
		}
	}

	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

// ParseArticles extracts candidates from the settled results page. Malformed
// entries and entries without a document link are skipped.
func ParseArticles(doc *goquery.Document, baseURL string, edition domain.EditionKind) []domain.Candidate {
	var candidates []domain.Candidate

	doc.Find(articleSelector).Each(func(_ int, art *goquery.Selection) {
		sector := strings.TrimSpace(art.Find("h4").First().Text())

		titleNode := art.Find("h5").First()
		title := strings.TrimSpace(titleNode.Find("a").First().Text())
		if title == "" {
			title = strings.TrimSpace(titleNode.Text())
		}

		paragraphs := art.Find("p")
		pubDate := strings.TrimSpace(paragraphs.Eq(0).Find("b").First().Text())
		pubDate = strings.TrimSpace(strings.TrimPrefix(pubDate, "Fecha:"))
		summary := ""
		if paragraphs.Length() >= 2 {
			summary = strings.TrimSpace(paragraphs.Eq(1).Text())
		}

		docURL := documentURL(art, baseURL)
		if docURL == "" {
			return
		}

		name := title
		if name == "" {
			runes := []rune(summary)
			if len(runes) > 60 {
				runes = runes[:60]
			}
			name = string(runes)
		}

		candidates = append(candidates, domain.Candidate{
			Sector:          sector,
			Title:           title,
			Summary:         summary,
			PublicationDate: pubDate,
			DocumentURL:     docURL,
			FileName:        domain.SanitizeFileName(name) + ".pdf",
			Edition:         edition,
		})
	})

	return candidates
}

// documentURL picks the per-norm download link: inputs labeled as individual
// downloads win, otherwise the first data-url input is used.
func documentURL(art *goquery.Selection, baseURL string) string {
	var fallback string
	var preferred string

	art.Find("input[data-url]").EachWithBreak(func(_ int, inp *goquery.Selection) bool {
		href, _ := inp.Attr("data-url")
		label, _ := inp.Attr("value")
		completed := CompleteHref(href, baseURL)
		if completed == "" {
			return true
		}
		if strings.Contains(strings.ToLower(label), "descarga") {
			preferred = completed
			return false
		}
		if fallback == "" {
			fallback = completed
		}
		return true
	})

	if preferred != "" {
		return preferred
	}
	return fallback
}

// CompleteHref resolves relative and protocol-relative links against the
// gazette host.
func CompleteHref(href, baseURL string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return baseURL + href
	case strings.HasPrefix(href, "http"):
		return href
	default:
		return baseURL + "/" + strings.TrimLeft(href, "./")
	}
}
