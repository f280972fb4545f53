package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yourorg/paper-trade/internal/domain"
)

// Provider fetches one live quote. Implementations return an error for
// network faults and unknown tickers; they never cache.
type Provider interface {
	FetchQuote(ctx context.Context, symbol string) (domain.Quote, error)
}

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooProvider pulls quotes from the public Yahoo Finance chart endpoint.
type YahooProvider struct {
	client *http.Client
}

func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yahooChartURL+symbol, nil)
	if err != nil {
		return domain.Quote{}, err
	}
	req.Header.Set("User-Agent", "paper-trade/2.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	var parsed yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Quote{}, fmt.Errorf("decode quote %s: %w", symbol, err)
	}
	if parsed.Chart.Error != nil {
		return domain.Quote{}, fmt.Errorf("quote %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return domain.Quote{}, fmt.Errorf("quote %s: empty result", symbol)
	}

	meta := parsed.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return domain.Quote{}, fmt.Errorf("quote %s: no market price", symbol)
	}

	q := domain.Quote{
		Symbol:   symbol,
		Price:    meta.RegularMarketPrice,
		Name:     meta.ShortName,
		Currency: meta.Currency,
		Valid:    true,
	}
	if q.Name == "" {
		q.Name = symbol
	}
	if q.Currency == "" {
		q.Currency = "USD"
	}
	if meta.PreviousClose > 0 {
		q.Change = meta.RegularMarketPrice - meta.PreviousClose
		q.ChangePct = q.Change / meta.PreviousClose * 100
	}
	return q, nil
}
