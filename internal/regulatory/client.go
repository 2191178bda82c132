// Package regulatory consumes the external HS code and duty rate service.
package regulatory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"go.uber.org/zap"
)

// dutyRateResponse is the wire shape of GET /v1/duty-rates
type dutyRateResponse struct {
	HSCode         string          `json:"hsCode"`
	DutyRate       decimal.Decimal `json:"dutyRate"`
	TradeAgreement string          `json:"tradeAgreement"`
}

// HTTPClient looks up duty rates over JSON/HTTP
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPClient(cfg *config.RegulatoryConfig, logger *zap.Logger) *HTTPClient {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// LookupDuty implements pricing.DutyProvider
func (c *HTTPClient) LookupDuty(ctx context.Context, query pricing.DutyQuery) (*pricing.DutyInfo, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("regulatory service base URL not configured")
	}

	params := url.Values{}
	params.Set("country", query.Country)
	params.Set("origin", string(query.Origin))
	params.Set("category", string(query.Category))
	if query.HSCode != "" {
		params.Set("hs_code", query.HSCode)
	}
	if query.MaterialID != "" {
		params.Set("material_id", query.MaterialID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/duty-rates?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build duty rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", query.TenantID.String())
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duty rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("duty rate lookup rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("country", query.Country),
			zap.String("hs_code", query.HSCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("duty rate service returned %d", resp.StatusCode)
	}

	var payload dutyRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode duty rate response: %w", err)
	}
	if payload.DutyRate.IsNegative() || payload.DutyRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("duty rate %s outside [0, 1]", payload.DutyRate)
	}

	c.logger.Debug("duty rate resolved",
		zap.String("hs_code", payload.HSCode),
		zap.String("country", query.Country),
		zap.Duration("duration", time.Since(start)),
	)

	hsCode := payload.HSCode
	if hsCode == "" {
		hsCode = query.HSCode
	}
	return &pricing.DutyInfo{
		HSCode:         hsCode,
		Rate:           payload.DutyRate,
		TradeAgreement: payload.TradeAgreement,
	}, nil
}
