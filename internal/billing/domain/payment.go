package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one billing event for one stay covering one period.
// Unit prices are captured at creation time; later catalog changes
// never re-price an issued bill.
type Payment struct {
	ID          string
	StayID      string
	AdminID     string
	WaterUnits  decimal.Decimal
	WaterPrice  decimal.Decimal
	EleUnits    decimal.Decimal
	ElePrice    decimal.Decimal
	Other       decimal.Decimal
	OtherDetail string
	RoomPrice   decimal.Decimal
	Total       decimal.Decimal
	IssueDate   time.Time
	PeriodKey   string
	Status      Status
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PeriodKeyFor derives the billing period key (calendar month) for an
// issue date.
func PeriodKeyFor(issueDate time.Time) string {
	return issueDate.UTC().Format("200601")
}

// NewPayment creates an unpaid payment with its total computed from the
// captured prices.
func NewPayment(id, stayID, adminID string, roomPrice decimal.Decimal, rates Rates,
	waterUnits, eleUnits, other decimal.Decimal, otherDetail string, issueDate, now time.Time) (*Payment, error) {
	if id == "" {
		return nil, ErrEmptyPaymentID
	}
	if stayID == "" {
		return nil, ErrStayNotFound
	}
	breakdown, err := Quote(roomPrice, rates, waterUnits, eleUnits, other)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Payment{
		ID:          id,
		StayID:      stayID,
		AdminID:     adminID,
		WaterUnits:  waterUnits,
		WaterPrice:  rates.Water,
		EleUnits:    eleUnits,
		ElePrice:    rates.Electricity,
		Other:       other,
		OtherDetail: otherDetail,
		RoomPrice:   roomPrice,
		Total:       breakdown.Total,
		IssueDate:   issueDate.UTC(),
		PeriodKey:   PeriodKeyFor(issueDate),
		Status:      StatusUnpaid,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Revise applies a corrective edit, recomputing the total with the
// prices captured at creation. Settled payments cannot be revised.
func (p *Payment) Revise(waterUnits, eleUnits, other decimal.Decimal, otherDetail string, now time.Time) error {
	if p == nil {
		return ErrNilPayment
	}
	if p.Status == StatusPaid {
		return ErrPaymentSettled
	}
	breakdown, err := Quote(p.RoomPrice, Rates{Water: p.WaterPrice, Electricity: p.ElePrice}, waterUnits, eleUnits, other)
	if err != nil {
		return err
	}
	p.WaterUnits = waterUnits
	p.EleUnits = eleUnits
	p.Other = other
	p.OtherDetail = otherDetail
	p.Total = breakdown.Total
	p.UpdatedAt = now.UTC()
	return nil
}

// TransitionTo moves the payment to a new status if the table permits.
func (p *Payment) TransitionTo(target Status, now time.Time) error {
	if p == nil {
		return ErrNilPayment
	}
	if !p.Status.CanTransition(target) {
		return ErrIllegalTransition
	}
	p.Status = target
	p.UpdatedAt = now.UTC()
	return nil
}

// Breakdown recomputes the component split from the captured values.
func (p *Payment) Breakdown() Breakdown {
	breakdown, _ := Quote(p.RoomPrice, Rates{Water: p.WaterPrice, Electricity: p.ElePrice}, p.WaterUnits, p.EleUnits, p.Other)
	return breakdown
}

// Clone returns a detached copy.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	copy := *p
	return &copy
}
