package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ConsultationStatus string

const (
	ConsultationPending  ConsultationStatus = "pending"
	ConsultationApproved ConsultationStatus = "approved"
	ConsultationRejected ConsultationStatus = "rejected"
)

type ConsultationRequest struct {
	ID              int64
	UserID          int64
	ReceiptRef      string
	ReceiptKind     FileKind
	Amount          decimal.Decimal
	Status          ConsultationStatus
	RejectionReason *string
	DecidedBy       *int64
	CreatedAt       time.Time
	DecidedAt       *time.Time
}

func (r *ConsultationRequest) Pending() bool {
	return r.Status == ConsultationPending
}
