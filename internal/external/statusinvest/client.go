package statusinvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/fundamenta/pkg/config"
	"github.com/wonny/fundamenta/pkg/httputil"
	"github.com/wonny/fundamenta/pkg/logger"
)

// SourceName is the provider name used in cache keys and stored results
const SourceName = "statusinvest"

// Client handles communication with StatusInvest
// ⭐ SSOT: StatusInvest 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	historyYears int
}

// NewClient creates a new StatusInvest client.
// Pacing, retry and User-Agent come from httpClient.
func NewClient(httpClient *httputil.Client, cfg config.StatusInvestConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://statusinvest.com.br"
	}
	years := cfg.HistoryYears
	if years <= 0 {
		years = 5
	}
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		baseURL:      baseURL,
		historyYears: years,
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return SourceName
}

func (c *Client) endpoint(path string, params url.Values) string {
	full := c.baseURL + path
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	return full
}

// fetchJSON fetches a JSON endpoint, sending the ticker page as Referer
func (c *Client) fetchJSON(ctx context.Context, ticker, path string, params url.Values, dest interface{}) error {
	resp, err := c.httpClient.GetWithHeaders(ctx, c.endpoint(path, params), map[string]string{
		"Accept":  "application/json",
		"Referer": c.endpoint("/acao/indicadores/"+ticker, nil),
	})
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &httputil.StatusError{URL: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// fetchHTML fetches an HTML page
func (c *Client) fetchHTML(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := c.httpClient.Get(ctx, c.endpoint(path, nil))
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &httputil.StatusError{URL: path, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
