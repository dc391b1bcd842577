package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/set-night/seyedbot/internal/domain"
	"github.com/set-night/seyedbot/internal/repository"
)

type ConsultationService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
}

func NewConsultationService(db *pgxpool.Pool, queries *repository.Queries) *ConsultationService {
	return &ConsultationService{db: db, queries: queries}
}

func (s *ConsultationService) Create(ctx context.Context, userID int64, receipt domain.Media, amount decimal.Decimal) (*domain.ConsultationRequest, error) {
	row, err := s.queries.CreateConsultationRequest(ctx, repository.CreateConsultationRequestParams{
		UserID:      userID,
		ReceiptRef:  receipt.FileRef,
		ReceiptKind: string(receipt.Kind),
		Amount:      amount,
	})
	if err != nil {
		return nil, fmt.Errorf("create consultation request: %w", err)
	}
	req := rowToConsultationRequest(row)
	return &req, nil
}

func (s *ConsultationService) Get(ctx context.Context, id int64) (*domain.ConsultationRequest, error) {
	row, err := s.queries.GetConsultationRequest(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("get consultation request: %w", err)
	}
	req := rowToConsultationRequest(row)
	return &req, nil
}

// Decide moves a pending request to its final status. Only the first decision
// wins; later ones get an AlreadyProcessedError carrying the stored status.
func (s *ConsultationService) Decide(ctx context.Context, id int64, status domain.ConsultationStatus, reason *string, decidedBy int64) (*domain.ConsultationRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	n, err := qtx.DecideConsultationRequest(ctx, repository.DecideConsultationRequestParams{
		ID:              id,
		Status:          string(status),
		RejectionReason: reason,
		DecidedBy:       decidedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("decide consultation request: %w", err)
	}

	row, err := qtx.GetConsultationRequest(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("get consultation request: %w", err)
	}
	if n == 0 {
		return nil, &domain.AlreadyProcessedError{RequestID: id, Status: domain.ConsultationStatus(row.Status)}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	req := rowToConsultationRequest(row)
	return &req, nil
}

func rowToConsultationRequest(row repository.ConsultationRequest) domain.ConsultationRequest {
	return domain.ConsultationRequest{
		ID:              row.ID,
		UserID:          row.UserID,
		ReceiptRef:      row.ReceiptRef,
		ReceiptKind:     domain.FileKind(row.ReceiptKind),
		Amount:          row.Amount,
		Status:          domain.ConsultationStatus(row.Status),
		RejectionReason: row.RejectionReason,
		DecidedBy:       row.DecidedBy,
		CreatedAt:       pgTimestamptzToTime(row.CreatedAt),
		DecidedAt:       pgTimestamptzToTimePtr(row.DecidedAt),
	}
}
