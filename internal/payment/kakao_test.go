package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKakaoReady(t *testing.T) {
	var gotAuth, gotPath string
	var gotForm map[string][]string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tid":                      "T1234",
			"next_redirect_pc_url":     "https://pay.example/pc",
			"next_redirect_mobile_url": "https://pay.example/mobile",
		})
	}))
	defer provider.Close()

	client := NewKakaoClient(provider.URL, "admin-key", "TC0ONETIME")
	res, err := client.Ready(context.Background(), ReadyRequest{
		OrderID:     "ORDER_1",
		UserID:      "user-1",
		ItemName:    "월 정액제",
		TotalAmount: 9900,
		ApprovalURL: "https://example.com/payment/success",
		CancelURL:   "https://example.com/payment/cancel",
		FailURL:     "https://example.com/payment/fail",
	})
	require.NoError(t, err)
	assert.Equal(t, "T1234", res.Tid)
	assert.Equal(t, "https://pay.example/pc", res.NextRedirectPCURL)
	assert.Equal(t, "KakaoAK admin-key", gotAuth)
	assert.Equal(t, "/v1/payment/ready", gotPath)
	assert.Equal(t, "TC0ONETIME", gotForm["cid"][0])
	assert.Equal(t, "ORDER_1", gotForm["partner_order_id"][0])
	assert.Equal(t, "9900", gotForm["total_amount"][0])
	assert.Equal(t, "1", gotForm["quantity"][0])
}

func TestKakaoApprove(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/v1/payment/approve", r.URL.Path)
		assert.Equal(t, "T1234", r.PostForm.Get("tid"))
		assert.Equal(t, "pg-token-1", r.PostForm.Get("pg_token"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"aid":              "A1",
			"tid":              "T1234",
			"partner_order_id": "ORDER_1",
			"partner_user_id":  "user-1",
			"item_name":        "월 정액제",
			"amount":           map[string]int{"total": 9900},
		})
	}))
	defer provider.Close()

	client := NewKakaoClient(provider.URL, "admin-key", "TC0ONETIME")
	res, err := client.Approve(context.Background(), ApproveRequest{
		Tid:     "T1234",
		OrderID: "ORDER_1",
		UserID:  "user-1",
		PgToken: "pg-token-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER_1", res.OrderID)
	assert.Equal(t, 9900, res.Amount.Total)
}

func TestKakaoProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-780,"msg":"approval failure"}`))
	}))
	defer provider.Close()

	client := NewKakaoClient(provider.URL, "admin-key", "TC0ONETIME")
	_, err := client.Approve(context.Background(), ApproveRequest{Tid: "T1", OrderID: "O1", UserID: "u1", PgToken: "p1"})
	require.Error(t, err)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.True(t, strings.Contains(provErr.Body, "approval failure"))
}

func TestNewOrderIDPrefix(t *testing.T) {
	id := NewOrderID()
	assert.True(t, strings.HasPrefix(id, "ORDER_"))
	assert.NotEqual(t, id, NewOrderID())
}
