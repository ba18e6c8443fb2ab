package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPSource reads rate tables from an exchangerate-api compatible endpoint:
// GET {baseURL}/{BASE} returning
//
//	{"result": "success", "base_code": "USD", "rates": {"EUR": 0.9, ...}}
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// maxBody caps the response size read from the rate provider.
const maxBody = 1 << 20

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ratesResponse struct {
	Result    string                     `json:"result"`
	ErrorType string                     `json:"error-type"`
	BaseCode  string                     `json:"base_code"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

func (s *HTTPSource) Latest(ctx context.Context, base string) (RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+base, nil)
	if err != nil {
		return RateTable{}, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return RateTable{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RateTable{}, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var body ratesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		return RateTable{}, fmt.Errorf("decode rates: %w", err)
	}
	if body.Result != "" && body.Result != "success" {
		return RateTable{}, fmt.Errorf("rates provider error: %s", body.ErrorType)
	}
	if len(body.Rates) == 0 {
		return RateTable{}, errors.New("rates provider returned an empty table")
	}
	if body.BaseCode == "" {
		body.BaseCode = base
	}

	return RateTable{
		Base:      body.BaseCode,
		Rates:     body.Rates,
		FetchedAt: time.Now(),
	}, nil
}
