// Package scraper extracts currently open share offerings from the public
// sharesansar listings page. It drives a headless Chromium instance via
// chromedp because the listing tables are rendered client-side; the raw
// header/cell matrices are then mapped to typed Offering records by pure
// functions that carry all the validation logic.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"ipowatch/internal/types"
)

// ListingsURL is the public page listing existing share issues.
const ListingsURL = "https://www.sharesansar.com/existing-issues"

// DefaultTimeout bounds one full scrape pass (page load plus table waits).
const DefaultTimeout = 90 * time.Second

// target describes how one offering type appears on the listings page:
// its tab anchor and the table that tab reveals.
type target struct {
	Tab   string
	Table string
	Name  types.OfferingType
}

var targets = map[int]target{
	1: {Tab: "#ipo", Table: "#myTableEip", Name: types.OfferingIPO},
	2: {Tab: "#fpo", Table: "#myTableEfp", Name: types.OfferingFPO},
	3: {Tab: "#rightshare", Table: "#myTableErs", Name: types.OfferingRightShare},
	4: {Tab: "#mutualfund", Table: "#myTableEmf", Name: types.OfferingMutualFund},
	5: {Tab: "#ipolocal", Table: "#myTableEipl", Name: types.OfferingIPOLocal},
	7: {Tab: "#bondsAndDeb", Table: "#myTableEbd", Name: types.OfferingBonds},
	8: {Tab: "#ipomigrant", Table: "#myTableEim", Name: types.OfferingIPOMigrant},
	9: {Tab: "#ipoqiis", Table: "#myTableQiis", Name: types.OfferingIPOQII},
}

// DefaultTypeIDs covers the offering types the notifier alerts on by
// default: IPO, FPO and Right Share.
var DefaultTypeIDs = []int{1, 2, 3}

// tableData is the raw extraction result produced in-page.
type tableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Scraper fetches open offerings from the listings page.
type Scraper struct {
	url     string
	timeout time.Duration
	logger  types.Logger
}

// New creates a Scraper against the public listings page.
func New(logger types.Logger) *Scraper {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Scraper{url: ListingsURL, timeout: DefaultTimeout, logger: logger}
}

// FetchOpenOfferings scrapes the listing tables for the given type IDs and
// returns the rows whose status is "Open". Unknown type IDs and scrape
// failures map to upstream_scrape_failed.
func (s *Scraper) FetchOpenOfferings(ctx context.Context, typeIDs []int) ([]types.Offering, error) {
	if len(typeIDs) == 0 {
		typeIDs = DefaultTypeIDs
	}

	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, s.timeout)
	defer timeoutCancel()

	var offerings []types.Offering
	for _, id := range typeIDs {
		tgt, ok := targets[id]
		if !ok {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamScrape,
				"unsupported offering type", nil, map[string]any{"type_id": id})
		}

		s.logger.Debug("scraping listings tab", "type_id", id, "tab", tgt.Tab)
		data, err := s.extractTable(browserCtx, tgt)
		if err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamScrape,
				"listings table extraction failed", err,
				map[string]any{"type_id": id, "table": tgt.Table})
		}

		open, err := openOfferings(data, tgt, id)
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, open...)
	}
	return offerings, nil
}

// extractTable navigates to the listings page, activates the type's tab,
// waits for data rows to render, and pulls the header and cell text out of
// the live DOM.
func (s *Scraper) extractTable(ctx context.Context, tgt target) (*tableData, error) {
	extractJS := fmt.Sprintf(`(() => {
		const table = document.querySelector(%q);
		if (!table) return {headers: [], rows: []};
		const headers = [...table.querySelectorAll("thead tr th")]
			.map(th => th.innerText.trim());
		const rows = [...table.querySelectorAll("tbody tr")]
			.map(tr => [...tr.querySelectorAll("td")].map(td => td.innerText.trim()))
			.filter(cells => cells.length > 0);
		return {headers, rows};
	})()`, tgt.Table)

	tasks := chromedp.Tasks{chromedp.Navigate(s.url)}
	// The IPO tab is active on page load; other types need their tab
	// clicked before the table renders.
	if tgt.Tab != "#ipo" {
		tasks = append(tasks, chromedp.Click(fmt.Sprintf(`a[href='%s']`, tgt.Tab), chromedp.ByQuery))
	}
	var data tableData
	tasks = append(tasks,
		chromedp.WaitVisible(tgt.Table+" tbody tr", chromedp.ByQuery),
		chromedp.Evaluate(extractJS, &data),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return &data, nil
}

// openOfferings maps a raw header/cell matrix to typed Offering records,
// keeping only rows whose status cell reads "Open" (case-insensitive).
// A table without a Status column is a scrape failure: without it every
// historical issue would look open.
func openOfferings(data *tableData, tgt target, typeID int) ([]types.Offering, error) {
	statusIdx := -1
	for i, h := range data.Headers {
		if strings.EqualFold(strings.TrimSpace(h), "status") {
			statusIdx = i
			break
		}
	}
	if statusIdx == -1 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamScrape,
			"status column not found in table headers", nil,
			map[string]any{"table": tgt.Table, "headers": data.Headers})
	}

	var open []types.Offering
	for _, cells := range data.Rows {
		if statusIdx >= len(cells) || !strings.EqualFold(strings.TrimSpace(cells[statusIdx]), "open") {
			continue
		}
		row := make(map[string]string, len(data.Headers))
		for i, h := range data.Headers {
			if i < len(cells) {
				row[strings.TrimSpace(h)] = cells[i]
			}
		}
		open = append(open, types.Offering{
			Symbol:       row["Symbol"],
			Company:      firstNonEmpty(row["Company"], row["Company Name"]),
			OpeningDate:  row["Opening Date"],
			ClosingDate:  row["Closing Date"],
			IssueManager: row["Issue Manager"],
			Type:         tgt.Name,
			TypeID:       typeID,
		})
	}
	return open, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
