package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type User struct {
	TelegramID  int64
	PhoneNumber string
	FirstName   string
	LastName    string
	Username    string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type AdminRow struct {
	TelegramID  int64
	PhoneNumber *string
	FirstName   *string
	LastName    *string
	Username    *string
}

type ContentRecord struct {
	ID          int64
	Kind        string
	Title       string
	Description string
	CoverRef    *string
	CreatedAt   pgtype.Timestamptz
}

type ContentItem struct {
	ID        int64
	ParentID  int64
	FileRef   string
	FileKind  string
	ItemOrder int32
}

type ConsultationRequest struct {
	ID              int64
	UserID          int64
	ReceiptRef      string
	ReceiptKind     string
	Amount          decimal.Decimal
	Status          string
	RejectionReason *string
	DecidedBy       *int64
	CreatedAt       pgtype.Timestamptz
	DecidedAt       pgtype.Timestamptz
}
