package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jobbridge/job-platform/internal/email"
	"github.com/jobbridge/job-platform/internal/middleware"
	"github.com/jobbridge/job-platform/internal/payment"
	"github.com/jobbridge/job-platform/internal/server"
	"github.com/jobbridge/job-platform/internal/subscription"

	"github.com/gorilla/mux"
)

const msgInvalidPaymentInfo = "결제 정보가 올바르지 않습니다."

// KakaoPayReadyHandler starts a paid subscription payment. It creates a
// pending subscription, initiates the payment with the provider and stores
// the order context for the approval callback.
func KakaoPayReadyHandler(
	svr server.Server,
	kakao *payment.KakaoClient,
	sessions *payment.SessionStore,
	subRepo *subscription.Repository,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var req struct {
			PlanType subscription.PlanType `json:"planType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		if req.PlanType == "" {
			req.PlanType = subscription.PlanPaidMonthly
		}
		if req.PlanType != subscription.PlanPaidMonthly {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "plan is not purchasable"})
			return
		}

		cfg := svr.GetConfig()
		orderID := payment.NewOrderID()
		now := time.Now().UTC()
		// created EXPIRED with a zero-length term; Activate flips it to
		// ACTIVE with the real dates once the provider approves
		sub, err := subRepo.Create(r.Context(), subscription.Subscription{
			UserID:        claims.UserID,
			PlanType:      req.PlanType,
			Status:        subscription.StatusExpired,
			StartDate:     now,
			EndDate:       now,
			Amount:        int(cfg.MonthlyPlanAmount),
			PaymentMethod: "kakaopay",
			OrderID:       orderID,
		})
		if errors.Is(err, subscription.ErrActiveSubscription) {
			svr.JSON(w, http.StatusConflict, map[string]string{"error": "이미 활성화된 구독이 있습니다."})
			return
		}
		if err != nil {
			svr.Log(err, "unable to create pending subscription")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}

		ready, err := kakao.Ready(r.Context(), payment.ReadyRequest{
			OrderID:     orderID,
			UserID:      claims.UserID,
			ItemName:    req.PlanType.Description(),
			TotalAmount: int(cfg.MonthlyPlanAmount),
			ApprovalURL: cfg.PaymentSuccessURL,
			CancelURL:   cfg.PaymentCancelURL,
			FailURL:     cfg.PaymentFailURL,
		})
		if err != nil {
			svr.Log(err, "kakaopay payment ready failed")
			svr.JSON(w, http.StatusBadGateway, map[string]string{"error": "결제 준비에 실패했습니다."})
			return
		}
		if err := sessions.Store(r.Context(), claims.UserID, orderID, ready.Tid); err != nil {
			svr.Log(err, "unable to store payment session")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if err := subRepo.SetKakaoTID(r.Context(), sub.ID, ready.Tid); err != nil {
			svr.Log(err, "unable to persist kakaopay tid")
		}
		svr.JSON(w, http.StatusOK, map[string]string{
			"tid":                   ready.Tid,
			"orderId":               orderID,
			"nextRedirectPcUrl":     ready.NextRedirectPCURL,
			"nextRedirectMobileUrl": ready.NextRedirectMobileURL,
		})
	}
}

// KakaoPayApproveHandler completes a payment after the provider redirect.
// The pg token arrives in the request body; the order id and tid are read
// from the payment session stored at ready time. All three must be present
// before the provider is called, and the session is cleared on the first
// successful approval so a replay finds nothing.
func KakaoPayApproveHandler(
	svr server.Server,
	kakao *payment.KakaoClient,
	sessions *payment.SessionStore,
	subRepo *subscription.Repository,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var req struct {
			PgToken string `json:"pgToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		orderID, tid, err := sessions.Load(r.Context(), claims.UserID)
		if err != nil {
			svr.Log(err, "unable to load payment session")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if req.PgToken == "" || orderID == "" || tid == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidPaymentInfo})
			return
		}

		approve, err := kakao.Approve(r.Context(), payment.ApproveRequest{
			Tid:     tid,
			OrderID: orderID,
			UserID:  claims.UserID,
			PgToken: req.PgToken,
		})
		if err != nil {
			svr.Log(err, "kakaopay payment approve failed")
			svr.JSON(w, http.StatusBadGateway, map[string]string{"error": "결제 승인에 실패했습니다."})
			return
		}

		if err := sessions.Clear(r.Context(), claims.UserID); err != nil {
			svr.Log(err, "unable to clear payment session after approval")
		}

		sub, err := subRepo.ByOrderID(r.Context(), orderID)
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to find subscription for order %s", orderID))
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		startDate := time.Now().UTC()
		endDate := sub.PlanType.TermEnd(startDate)
		if err := subRepo.Activate(r.Context(), sub.ID, startDate, endDate); err != nil {
			svr.Log(err, "unable to activate subscription")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}

		err = svr.GetEmail().SendHTMLEmail(
			email.Address{Name: svr.GetEmail().DefaultSenderName(), Email: svr.GetEmail().NoReplySenderAddress()},
			email.Address{Email: claims.Email},
			email.Address{Email: svr.GetEmail().SupportSenderAddress()},
			fmt.Sprintf("%s 결제 완료", svr.GetConfig().SiteName),
			fmt.Sprintf(
				"%s 결제가 완료되었습니다.<br />결제 금액: %d원<br />이용 기간: %s ~ %s",
				approve.ItemName, approve.Amount.Total,
				startDate.Format("2006-01-02"), endDate.Format("2006-01-02"),
			),
		)
		if err != nil {
			svr.Log(err, "unable to send payment receipt email")
		}

		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"itemName":  approve.ItemName,
			"amount":    approve.Amount.Total,
			"startDate": startDate,
			"endDate":   endDate,
		})
	}
}

// CurrentSubscriptionHandler returns the user's active subscription or 404.
func CurrentSubscriptionHandler(svr server.Server, subRepo *subscription.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		sub, err := subRepo.CurrentForUser(r.Context(), claims.UserID)
		if errors.Is(err, subscription.ErrNotFound) {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "no active subscription"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve current subscription")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, sub)
	}
}

// CancelSubscriptionHandler cancels one of the user's own subscriptions.
func CancelSubscriptionHandler(svr server.Server, subRepo *subscription.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		err = subRepo.Cancel(r.Context(), vars["id"], claims.UserID)
		if errors.Is(err, subscription.ErrNotFound) {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "subscription not found"})
			return
		}
		if errors.Is(err, subscription.ErrNotSubscriptionOwner) {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "subscription belongs to another user"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to cancel subscription")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	}
}

// AcademyCheckHandler reports whether a coupon code qualifies for the free
// academy plan.
func AcademyCheckHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CouponCode string `json:"couponCode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		academyName, eligible := subscription.CheckAcademyCoupon(req.CouponCode)
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"eligible":    eligible,
			"academyName": academyName,
		})
	}
}

// AcademySubscribeHandler activates the free academy plan for a valid
// coupon code, with no payment involved.
func AcademySubscribeHandler(svr server.Server, subRepo *subscription.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var req struct {
			CouponCode string `json:"couponCode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		academyName, eligible := subscription.CheckAcademyCoupon(req.CouponCode)
		if !eligible {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "유효하지 않은 쿠폰 코드입니다."})
			return
		}
		now := time.Now().UTC()
		sub, err := subRepo.Create(r.Context(), subscription.Subscription{
			UserID:          claims.UserID,
			PlanType:        subscription.PlanFreeAcademy,
			Status:          subscription.StatusActive,
			StartDate:       now,
			EndDate:         subscription.PlanFreeAcademy.TermEnd(now),
			Amount:          0,
			AcademyName:     academyName,
			AcademyVerified: true,
		})
		if errors.Is(err, subscription.ErrActiveSubscription) {
			svr.JSON(w, http.StatusConflict, map[string]string{"error": "이미 활성화된 구독이 있습니다."})
			return
		}
		if err != nil {
			svr.Log(err, "unable to create academy subscription")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusCreated, sub)
	}
}
