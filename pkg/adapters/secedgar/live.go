package secedgar

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/adapters/secedgar/form4"
	"github.com/fieldsignal/convergence/pkg/httpfetch"
	"github.com/fieldsignal/convergence/pkg/universe"
)

const (
	tickerMapURL          = "https://www.sec.gov/files/company_tickers.json"
	submissionsURLTemplate = "https://data.sec.gov/submissions/CIK%s.json"

	tickerMapCacheKey = "sec_edgar:ticker_to_cik"
)

// LiveFetcher drives the ticker→CIK→submissions→filing pipeline against
// the live SEC endpoints (spec §6), reusing a run-scoped cache for the
// ticker map so a batch covering many companies fetches it once.
type LiveFetcher struct {
	fetcher *httpfetch.Fetcher
	cache   httpfetch.RunCache
}

// NewLiveFetcher constructs a LiveFetcher. cache may be nil, in which case
// a fresh in-process cache is created (its memoized values last only as
// long as this LiveFetcher).
func NewLiveFetcher(fetcher *httpfetch.Fetcher, cache httpfetch.RunCache) *LiveFetcher {
	if cache == nil {
		cache = httpfetch.NewInProcessCache()
	}
	return &LiveFetcher{fetcher: fetcher, cache: cache}
}

// TickerToCIK loads (and memoizes) the SEC's ticker→CIK map, keyed by
// upper-cased ticker symbol.
func (lf *LiveFetcher) TickerToCIK(ctx context.Context) map[string]string {
	if cached, ok := lf.cache.Get(tickerMapCacheKey); ok {
		if m, ok := cached.(map[string]string); ok {
			return m
		}
	}

	raw := lf.fetcher.GetJSON(ctx, tickerMapURL)
	out := make(map[string]string, len(raw))
	for _, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ticker := NormalizeTicker(entry["ticker"])
		cik, ok := canonical.AsFloat(entry["cik_str"])
		if ticker == "" || !ok {
			continue
		}
		out[ticker] = fmt.Sprintf("%010d", int64(cik))
	}
	if len(out) > 0 {
		lf.cache.Set(tickerMapCacheKey, out)
	}
	return out
}

// Submissions loads the filings-recent feed for a zero-padded 10-digit CIK.
func (lf *LiveFetcher) Submissions(ctx context.Context, cik10 string) map[string]any {
	url := fmt.Sprintf(submissionsURLTemplate, cik10)
	return lf.fetcher.GetJSON(ctx, url)
}

// RecentForm4Transactions fetches and parses every Form 4 in a company's
// recent filings feed, returning canonical payloads ready for insertion.
func (lf *LiveFetcher) RecentForm4Transactions(ctx context.Context, ticker string) []map[string]any {
	cikMap := lf.TickerToCIK(ctx)
	cik10, ok := cikMap[NormalizeTicker(ticker)]
	if !ok {
		return nil
	}
	cikInt, err := strconv.Atoi(strings.TrimLeft(cik10, "0"))
	if err != nil || cikInt == 0 {
		return nil
	}

	submissions := lf.Submissions(ctx, cik10)
	recent, _ := submissions["filings"].(map[string]any)
	recentBlock, _ := recent["recent"].(map[string]any)
	forms := canonical.StringSlice(recentBlock["form"])
	accessions := canonical.StringSlice(recentBlock["accessionNumber"])
	docs := canonical.StringSlice(recentBlock["primaryDocument"])

	var out []map[string]any
	n := len(forms)
	if len(accessions) < n {
		n = len(accessions)
	}
	if len(docs) < n {
		n = len(docs)
	}
	for i := 0; i < n; i++ {
		if ClassifyFormType(forms[i]) != "form4" {
			continue
		}
		accession := accessions[i]
		accessionNoDashes := strings.ReplaceAll(accession, "-", "")
		textURL := BuildFilingTextURL(cikInt, accessionNoDashes, accession)
		filingURL := BuildFilingURL(cikInt, accessionNoDashes, docs[i])

		rawText := lf.fetcher.GetText(ctx, textURL)
		if rawText == "" {
			continue
		}
		ownershipXML := form4.ExtractOwnershipDocumentXML(rawText)
		if ownershipXML == "" {
			continue
		}
		txns, err := form4.ParseTransactions(ownershipXML)
		if err != nil {
			continue
		}
		for _, txn := range txns {
			out = append(out, TransactionToPayload(txn, cik10, ticker, filingURL, accession))
		}
	}
	return out
}

// IngestLive fetches and ingests recent Form 4 transactions for every
// ticker in tickers, returning (processed, inserted). u is used only for
// company resolution; its watchlists are not consulted.
func IngestLive(ctx context.Context, u universe.Universe, repo canonical.Repo, lf *LiveFetcher, tickers []string) (canonical.BatchResult, error) {
	result := canonical.BatchResult{}
	for _, ticker := range tickers {
		payloads := lf.RecentForm4Transactions(ctx, ticker)
		for _, raw := range payloads {
			payload := CanonicalizePayload(u, raw)
			result.Processed++

			accession := canonical.CleanString(payload["filing_accession"])
			eventType, _ := payload["type"].(string)
			filer := canonical.CleanString(payload["filer_name"])
			sourceEventID := canonical.SourceEventID("", "sec_edgar", accession+"|"+eventType+"|"+filer)

			eventTime := canonical.EventTimeFromFields(payload, "event_time")

			_, inserted, err := canonical.InsertEvent(ctx, repo, SourceSystem, sourceEventID, eventTime, payload)
			if err != nil {
				return result, err
			}
			if inserted {
				result.Inserted++
			}
		}
	}
	return result, nil
}
