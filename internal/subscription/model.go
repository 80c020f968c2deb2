package subscription

import "time"

type PlanType string

const (
	PlanFreeAcademy PlanType = "FREE_ACADEMY"
	PlanPaidMonthly PlanType = "PAID_MONTHLY"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Description is the human facing plan name shown on receipts and
// in the subscription settings view.
func (p PlanType) Description() string {
	switch p {
	case PlanFreeAcademy:
		return "솔데스크 학원 3개월 무료"
	case PlanPaidMonthly:
		return "월 정액제"
	}
	return string(p)
}

// Months is the subscription term granted per plan.
func (p PlanType) Months() int {
	if p == PlanFreeAcademy {
		return 3
	}
	return 1
}

// TermEnd returns the expiry of a term starting at start. Terms run in
// calendar months, so a term started on the 15th ends on the 15th.
func (p PlanType) TermEnd(start time.Time) time.Time {
	return start.AddDate(0, p.Months(), 0)
}

func (p PlanType) Valid() bool {
	return p == PlanFreeAcademy || p == PlanPaidMonthly
}

type Subscription struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	PlanType        PlanType   `json:"planType"`
	Status          Status     `json:"status"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	Amount          int        `json:"amount"`
	PaymentMethod   string     `json:"paymentMethod,omitempty"`
	KakaoTID        string     `json:"-"`
	OrderID         string     `json:"orderId,omitempty"`
	AcademyName     string     `json:"academyName,omitempty"`
	AcademyVerified bool       `json:"academyVerified"`
	CreatedAt       time.Time  `json:"createdAt"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
}

// academyCoupons maps the partner academy coupon codes to the academy name.
var academyCoupons = map[string]string{
	"soldeskjongro": "솔데스크 종로",
	"soldesk2024":   "솔데스크",
	"soldesk":       "솔데스크",
}

// CheckAcademyCoupon reports whether a coupon code grants the free academy
// plan, and the academy it belongs to.
func CheckAcademyCoupon(code string) (academyName string, eligible bool) {
	name, ok := academyCoupons[code]
	return name, ok
}
