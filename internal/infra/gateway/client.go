package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Client は Omise 互換の REST API を呼ぶ
type Client struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[ChargeResult]
}

type ClientConfig struct {
	BaseURL   string
	SecretKey string
	Currency  string
	Timeout   time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "thb"
	}

	breaker := gobreaker.NewCircuitBreaker[ChargeResult](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// カード側の拒否はゲートウェイ障害ではない
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			ge, ok := AsError(err)
			return ok && ge.Category != CategoryUnavailable
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		currency:   currency,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

type apiError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	currency := req.Currency
	if currency == "" {
		currency = c.currency
	}
	form.Set("currency", currency)
	form.Set("card", req.CardToken)
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	return c.execute(ctx, http.MethodPost, "/charges", strings.NewReader(form.Encode()), req.IdempotencyKey)
}

func (c *Client) Retrieve(ctx context.Context, chargeID string) (ChargeResult, error) {
	if chargeID == "" {
		return ChargeResult{}, errors.New("charge id is required")
	}
	return c.execute(ctx, http.MethodGet, "/charges/"+url.PathEscape(chargeID), nil, "")
}

func (c *Client) execute(ctx context.Context, method string, path string, body io.Reader, idemKey string) (ChargeResult, error) {
	res, err := c.breaker.Execute(func() (ChargeResult, error) {
		return c.do(ctx, method, path, body, idemKey)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ChargeResult{}, &Error{Category: CategoryUnavailable, Code: "circuit_open", Err: err}
	}
	return res, err
}

func (c *Client) do(ctx context.Context, method string, path string, body io.Reader, idemKey string) (ChargeResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("build gateway request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ChargeResult{}, &Error{Category: CategoryUnavailable, Code: "network", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ChargeResult{}, &Error{Category: CategoryUnavailable, Code: "network", Err: err}
	}

	if resp.StatusCode >= 500 {
		return ChargeResult{}, &Error{Category: CategoryUnavailable, Code: strconv.Itoa(resp.StatusCode), Message: "gateway server error"}
	}

	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.Unmarshal(raw, &ae); err != nil || ae.Code == "" {
			return ChargeResult{}, fmt.Errorf("unexpected gateway response (status %d): %s", resp.StatusCode, truncate(raw))
		}
		return ChargeResult{}, &Error{Category: ClassifyCode(ae.Code), Code: ae.Code, Message: ae.Message}
	}

	var out ChargeResult
	if err := json.Unmarshal(raw, &out); err != nil || out.ID == "" {
		return ChargeResult{}, fmt.Errorf("unexpected gateway response shape: %s", truncate(raw))
	}
	return out, nil
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200])
	}
	return string(b)
}
