package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

const createConsultationRequest = `-- name: CreateConsultationRequest :one
INSERT INTO consultation_requests (user_id, receipt_ref, receipt_kind, amount)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, receipt_ref, receipt_kind, amount, status, rejection_reason, decided_by, created_at, decided_at
`

type CreateConsultationRequestParams struct {
	UserID      int64
	ReceiptRef  string
	ReceiptKind string
	Amount      decimal.Decimal
}

func (q *Queries) CreateConsultationRequest(ctx context.Context, arg CreateConsultationRequestParams) (ConsultationRequest, error) {
	row := q.db.QueryRow(ctx, createConsultationRequest, arg.UserID, arg.ReceiptRef, arg.ReceiptKind, arg.Amount)
	var i ConsultationRequest
	err := row.Scan(&i.ID, &i.UserID, &i.ReceiptRef, &i.ReceiptKind, &i.Amount, &i.Status,
		&i.RejectionReason, &i.DecidedBy, &i.CreatedAt, &i.DecidedAt)
	return i, err
}

const getConsultationRequest = `-- name: GetConsultationRequest :one
SELECT id, user_id, receipt_ref, receipt_kind, amount, status, rejection_reason, decided_by, created_at, decided_at
FROM consultation_requests
WHERE id = $1
`

func (q *Queries) GetConsultationRequest(ctx context.Context, id int64) (ConsultationRequest, error) {
	row := q.db.QueryRow(ctx, getConsultationRequest, id)
	var i ConsultationRequest
	err := row.Scan(&i.ID, &i.UserID, &i.ReceiptRef, &i.ReceiptKind, &i.Amount, &i.Status,
		&i.RejectionReason, &i.DecidedBy, &i.CreatedAt, &i.DecidedAt)
	return i, err
}

const decideConsultationRequest = `-- name: DecideConsultationRequest :execrows
UPDATE consultation_requests
SET status = $2, rejection_reason = $3, decided_by = $4, decided_at = now()
WHERE id = $1 AND status = 'pending'
`

type DecideConsultationRequestParams struct {
	ID              int64
	Status          string
	RejectionReason *string
	DecidedBy       int64
}

// DecideConsultationRequest only touches pending rows, so zero affected rows
// means the request was already decided or does not exist.
func (q *Queries) DecideConsultationRequest(ctx context.Context, arg DecideConsultationRequestParams) (int64, error) {
	tag, err := q.db.Exec(ctx, decideConsultationRequest, arg.ID, arg.Status, arg.RejectionReason, arg.DecidedBy)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
