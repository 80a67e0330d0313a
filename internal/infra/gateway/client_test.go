package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, SecretKey: "skey_test"})
}

func TestCharge_Paid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/charges", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "skey_test", user)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "450000", r.Form.Get("amount"))
		assert.Equal(t, "tokn_1", r.Form.Get("card"))
		assert.Equal(t, "thb", r.Form.Get("currency"))
		_, _ = w.Write([]byte(`{"id":"chrg_1","amount":450000,"paid":true,"status":"successful"}`))
	})

	res, err := c.Charge(context.Background(), ChargeRequest{Amount: 450000, CardToken: "tokn_1"})
	require.NoError(t, err)
	assert.Equal(t, "chrg_1", res.ID)
	assert.Equal(t, OutcomeSuccessful, MapChargeStatus(res))
}

func TestCharge_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Category
	}{
		{"invalid card", 400, `{"object":"error","code":"invalid_card","message":"number is invalid"}`, CategoryInvalidCard},
		{"expired", 400, `{"object":"error","code":"expired_card","message":"expired"}`, CategoryExpiredCard},
		{"insufficient", 402, `{"object":"error","code":"insufficient_fund","message":"no money"}`, CategoryInsufficientFunds},
		{"rejected", 402, `{"object":"error","code":"payment_rejected","message":"rejected"}`, CategoryDeclined},
		{"server error", 503, `oops`, CategoryUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Charge(context.Background(), ChargeRequest{Amount: 2000, CardToken: "tokn"})
			require.Error(t, err)
			ge, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, ge.Category)
		})
	}
}

func TestCharge_UnexpectedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hello":"world"}`))
	})
	_, err := c.Charge(context.Background(), ChargeRequest{Amount: 2000, CardToken: "tokn"})
	require.Error(t, err)
	_, ok := AsError(err)
	assert.False(t, ok)
}

func TestCharge_NetworkFailureIsUnavailable(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", SecretKey: "k"})
	_, err := c.Charge(context.Background(), ChargeRequest{Amount: 2000, CardToken: "tokn"})
	ge, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryUnavailable, ge.Category)
}

func TestCharge_BreakerOpensAfterConsecutiveOutages(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})
	for i := 0; i < 5; i++ {
		_, _ = c.Charge(context.Background(), ChargeRequest{Amount: 2000, CardToken: "tokn"})
	}
	_, err := c.Charge(context.Background(), ChargeRequest{Amount: 2000, CardToken: "tokn"})
	ge, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "circuit_open", ge.Code)
	assert.Equal(t, 5, calls)
}

func TestCharge_DeclinesDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"object":"error","code":"payment_rejected","message":"no"}`))
	})
	for i := 0; i < 7; i++ {
		_, err := c.Charge(context.Background(), ChargeRequest{Amount: 2000, CardToken: "tokn"})
		ge, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CategoryDeclined, ge.Category)
	}
}

func TestRetrieve(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charges/chrg_9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"chrg_9","paid":false,"status":"failed","failure_code":"insufficient_fund"}`))
	})
	res, err := c.Retrieve(context.Background(), "chrg_9")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, MapChargeStatus(res))
}

func TestMapChargeStatus(t *testing.T) {
	assert.Equal(t, OutcomeSuccessful, MapChargeStatus(ChargeResult{Paid: true}))
	assert.Equal(t, OutcomeFailed, MapChargeStatus(ChargeResult{FailureCode: "payment_rejected"}))
	assert.Equal(t, OutcomePending, MapChargeStatus(ChargeResult{}))
}
