package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultKakaoBaseURL = "https://kapi.kakao.com"

// KakaoClient talks to the KakaoPay REST API. Requests are form-encoded
// and authenticated with the admin key.
type KakaoClient struct {
	baseURL    string
	adminKey   string
	cid        string
	httpClient *http.Client
}

func NewKakaoClient(baseURL, adminKey, cid string) *KakaoClient {
	if baseURL == "" {
		baseURL = DefaultKakaoBaseURL
	}
	return &KakaoClient{
		baseURL:  baseURL,
		adminKey: adminKey,
		cid:      cid,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type ReadyRequest struct {
	OrderID     string
	UserID      string
	ItemName    string
	TotalAmount int
	ApprovalURL string
	CancelURL   string
	FailURL     string
}

// provider timestamps arrive as local KST without a zone offset,
// so they are carried as strings rather than parsed
type ReadyResponse struct {
	Tid                   string `json:"tid"`
	NextRedirectPCURL     string `json:"next_redirect_pc_url"`
	NextRedirectMobileURL string `json:"next_redirect_mobile_url"`
	NextRedirectAppURL    string `json:"next_redirect_app_url"`
	AndroidAppScheme      string `json:"android_app_scheme"`
	IOSAppScheme          string `json:"ios_app_scheme"`
	CreatedAt             string `json:"created_at"`
}

type ApproveRequest struct {
	Tid     string
	OrderID string
	UserID  string
	PgToken string
}

type ApproveResponse struct {
	Aid               string `json:"aid"`
	Tid               string `json:"tid"`
	OrderID           string `json:"partner_order_id"`
	UserID            string `json:"partner_user_id"`
	ItemName          string `json:"item_name"`
	Quantity          int    `json:"quantity"`
	PaymentMethodType string `json:"payment_method_type"`
	Amount            struct {
		Total   int `json:"total"`
		TaxFree int `json:"tax_free"`
		Vat     int `json:"vat"`
	} `json:"amount"`
	ApprovedAt string `json:"approved_at"`
}

// ProviderError is a non-2xx response from KakaoPay.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("kakaopay: provider returned %d: %s", e.StatusCode, e.Body)
}

// Ready initiates a payment and returns the transaction id and
// redirect URLs the user is sent to.
func (k *KakaoClient) Ready(ctx context.Context, req ReadyRequest) (ReadyResponse, error) {
	form := url.Values{}
	form.Set("cid", k.cid)
	form.Set("partner_order_id", req.OrderID)
	form.Set("partner_user_id", req.UserID)
	form.Set("item_name", req.ItemName)
	form.Set("quantity", "1")
	form.Set("total_amount", strconv.Itoa(req.TotalAmount))
	form.Set("vat_amount", "0")
	form.Set("tax_free_amount", "0")
	form.Set("approval_url", req.ApprovalURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("fail_url", req.FailURL)

	var res ReadyResponse
	if err := k.post(ctx, "/v1/payment/ready", form, &res); err != nil {
		return ReadyResponse{}, err
	}
	return res, nil
}

// Approve completes a payment with the pg_token returned from the
// user's redirect.
func (k *KakaoClient) Approve(ctx context.Context, req ApproveRequest) (ApproveResponse, error) {
	form := url.Values{}
	form.Set("cid", k.cid)
	form.Set("tid", req.Tid)
	form.Set("partner_order_id", req.OrderID)
	form.Set("partner_user_id", req.UserID)
	form.Set("pg_token", req.PgToken)

	var res ApproveResponse
	if err := k.post(ctx, "/v1/payment/approve", form, &res); err != nil {
		return ApproveResponse{}, err
	}
	return res, nil
}

func (k *KakaoClient) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "KakaoAK "+k.adminKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	res, err := k.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &ProviderError{StatusCode: res.StatusCode, Body: string(body)}
	}
	return json.Unmarshal(body, out)
}
