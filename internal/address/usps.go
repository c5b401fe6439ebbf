package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://apis.usps.com"
	standardizePath  = "/addresses/v3/address"
	defaultTimeout   = 10 * time.Second
	defaultRetries   = 2
	defaultBackoff   = 500 * time.Millisecond
	maxErrorBodySize = 4 << 10
)

// USPSStandardizer implements the Standardizer interface against the USPS
// Addresses 3.0 API. The client is stateless with respect to rows: every
// call carries its own record and bearer token.
type USPSStandardizer struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// USPSConfig contains configuration for the USPS standardizer.
type USPSConfig struct {
	BaseURL      string        // Optional: defaults to the production endpoint
	Timeout      time.Duration // Optional: per-request timeout, defaults to 10s
	MaxRetries   int           // Retries after the first attempt for transient failures
	RetryBackoff time.Duration // Linear backoff unit between attempts
	Logger       *slog.Logger  // Optional: defaults to slog.Default()

	// HTTPClient overrides the underlying client. When set, Timeout is
	// ignored and the supplied client's settings apply.
	HTTPClient *http.Client
}

// NewUSPSStandardizer creates a new USPS address standardizer.
func NewUSPSStandardizer(cfg USPSConfig) *USPSStandardizer {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultRetries
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &USPSStandardizer{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// Standardize submits a record to the USPS API. Transient failures (timeout,
// transport error, 5xx) are retried with linear backoff up to the configured
// bound; 4xx responses are surfaced immediately since retrying them only
// burns quota. The token is attached as a bearer credential and never logged.
func (c *USPSStandardizer) Standardize(ctx context.Context, rec Record, token string) (*Standardized, error) {
	params := buildQuery(rec)

	var lastErr *ServiceError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, time.Duration(attempt)*c.backoff); err != nil {
				return nil, err
			}
			c.logger.Debug("retrying standardization request",
				"attempt", attempt+1,
				"street_address", rec.StreetAddress,
			)
		}

		std, err := c.doRequest(ctx, params, token)
		if err == nil {
			return std, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var svcErr *ServiceError
		if !errors.As(err, &svcErr) {
			return nil, err
		}
		lastErr = svcErr
		if !svcErr.Transient {
			return nil, svcErr
		}
	}
	return nil, lastErr
}

func (c *USPSStandardizer) doRequest(ctx context.Context, params url.Values, token string) (*Standardized, error) {
	endpoint := c.baseURL + standardizePath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are worth another attempt.
		return nil, &ServiceError{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
			Transient:  true,
		}
	}
	if resp.StatusCode >= 400 {
		code, message := readErrorDetail(resp.Body)
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    message,
			Transient:  false,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Message: fmt.Sprintf("failed to read response: %v", err), Transient: true}
	}

	var payload uspsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    "invalid JSON in response",
			Transient:  false,
		}
	}
	return payload.toStandardized(), nil
}

// buildQuery returns the request parameters for a record. Only recognized
// address fields are included; ID columns never reach this function because
// the mapper strips them before the record is built.
func buildQuery(rec Record) url.Values {
	params := url.Values{}
	params.Set("streetAddress", rec.StreetAddress)
	params.Set("state", rec.State)
	if rec.City != "" {
		params.Set("city", rec.City)
	}
	if rec.ZIPCode != "" {
		params.Set("ZIPCode", rec.ZIPCode)
	}
	if rec.Firm != "" {
		params.Set("firm", rec.Firm)
	}
	if rec.SecondaryAddress != "" {
		params.Set("secondaryAddress", rec.SecondaryAddress)
	}
	if rec.ZIPPlus4 != "" {
		params.Set("ZIPPlus4", rec.ZIPPlus4)
	}
	if rec.Urbanization != "" {
		params.Set("urbanization", rec.Urbanization)
	}
	return params
}

type uspsResponse struct {
	Firm    string `json:"firm"`
	Address struct {
		StreetAddress             string `json:"streetAddress"`
		StreetAddressAbbreviation string `json:"streetAddressAbbreviation"`
		SecondaryAddress          string `json:"secondaryAddress"`
		City                      string `json:"city"`
		CityAbbreviation          string `json:"cityAbbreviation"`
		State                     string `json:"state"`
		ZIPCode                   string `json:"ZIPCode"`
		ZIPPlus4                  string `json:"ZIPPlus4"`
		Urbanization              string `json:"urbanization"`
	} `json:"address"`
	AdditionalInfo struct {
		DeliveryPoint        string `json:"deliveryPoint"`
		CarrierRoute         string `json:"carrierRoute"`
		DPVConfirmation      string `json:"DPVConfirmation"`
		DPVCMRA              string `json:"DPVCMRA"`
		Business             string `json:"business"`
		CentralDeliveryPoint string `json:"centralDeliveryPoint"`
		Vacant               string `json:"vacant"`
	} `json:"additionalInfo"`
	Warnings []string `json:"warnings"`
}

func (r *uspsResponse) toStandardized() *Standardized {
	return &Standardized{
		Firm:                      r.Firm,
		StreetAddress:             r.Address.StreetAddress,
		StreetAddressAbbreviation: r.Address.StreetAddressAbbreviation,
		SecondaryAddress:          r.Address.SecondaryAddress,
		City:                      r.Address.City,
		CityAbbreviation:          r.Address.CityAbbreviation,
		State:                     r.Address.State,
		ZIPCode:                   r.Address.ZIPCode,
		ZIPPlus4:                  r.Address.ZIPPlus4,
		Urbanization:              r.Address.Urbanization,
		DeliveryPoint:             r.AdditionalInfo.DeliveryPoint,
		CarrierRoute:              r.AdditionalInfo.CarrierRoute,
		DPVConfirmation:           r.AdditionalInfo.DPVConfirmation,
		DPVCMRA:                   r.AdditionalInfo.DPVCMRA,
		Business:                  r.AdditionalInfo.Business,
		CentralDeliveryPoint:      r.AdditionalInfo.CentralDeliveryPoint,
		Vacant:                    r.AdditionalInfo.Vacant,
		Warnings:                  r.Warnings,
	}
}

type uspsErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func readErrorDetail(r io.Reader) (code, message string) {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "", "failed to read error response"
	}
	var parsed uspsErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Code, parsed.Error.Message
	}
	return "", strings.TrimSpace(string(body))
}

func readErrorMessage(r io.Reader) string {
	_, message := readErrorDetail(r)
	return message
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
