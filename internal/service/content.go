package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/set-night/seyedbot/internal/domain"
	"github.com/set-night/seyedbot/internal/repository"
)

const pgForeignKeyViolation = "23503"

type ContentService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
}

func NewContentService(db *pgxpool.Pool, queries *repository.Queries) *ContentService {
	return &ContentService{db: db, queries: queries}
}

func (s *ContentService) List(ctx context.Context, kind domain.ContentKind) ([]domain.ContentRecord, error) {
	rows, err := s.queries.ListContentRecords(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}
	out := make([]domain.ContentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToContentRecord(row))
	}
	return out, nil
}

func (s *ContentService) Get(ctx context.Context, kind domain.ContentKind, id int64) (*domain.ContentRecord, error) {
	row, err := s.queries.GetContentRecord(ctx, string(kind), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, fmt.Errorf("get %s record: %w", kind, err)
	}
	rec := rowToContentRecord(row)
	return &rec, nil
}

func (s *ContentService) Items(ctx context.Context, parentID int64) ([]domain.ContentItem, error) {
	rows, err := s.queries.ListContentItems(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	out := make([]domain.ContentItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToContentItem(row))
	}
	return out, nil
}

// Create stores the record and all of its pending items in one transaction.
func (s *ContentService) Create(ctx context.Context, kind domain.ContentKind, c domain.NewContent, items []domain.PendingItem) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	rec, err := qtx.CreateContentRecord(ctx, repository.CreateContentRecordParams{
		Kind:        string(kind),
		Title:       c.Title,
		Description: c.Description,
		CoverRef:    c.CoverRef,
	})
	if err != nil {
		return 0, fmt.Errorf("create %s record: %w", kind, err)
	}

	for _, it := range items {
		if _, err := qtx.CreateContentItem(ctx, repository.CreateContentItemParams{
			ParentID:  rec.ID,
			FileRef:   it.Media.FileRef,
			FileKind:  string(it.Media.Kind),
			ItemOrder: int32(it.Order),
		}); err != nil {
			return 0, fmt.Errorf("create content item %d: %w", it.Order, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return rec.ID, nil
}

func (s *ContentService) Update(ctx context.Context, kind domain.ContentKind, id int64, p domain.Patch) error {
	n, err := s.queries.UpdateContentRecord(ctx, repository.UpdateContentRecordParams{
		Kind:        string(kind),
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		CoverRef:    p.CoverRef,
		ClearCover:  p.ClearCover,
	})
	if err != nil {
		return fmt.Errorf("update %s record: %w", kind, err)
	}
	if n == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

// Delete removes the record; its items and views go with it via cascade.
func (s *ContentService) Delete(ctx context.Context, kind domain.ContentKind, id int64) error {
	n, err := s.queries.DeleteContentRecord(ctx, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete %s record: %w", kind, err)
	}
	if n == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

// AppendItem adds an item after the current last one.
func (s *ContentService) AppendItem(ctx context.Context, parentID int64, m domain.Media) (*domain.ContentItem, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	order, err := qtx.NextContentItemOrder(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("next item order: %w", err)
	}

	row, err := qtx.CreateContentItem(ctx, repository.CreateContentItemParams{
		ParentID:  parentID,
		FileRef:   m.FileRef,
		FileKind:  string(m.Kind),
		ItemOrder: order,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrContentNotFound
		}
		return nil, fmt.Errorf("create content item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	item := rowToContentItem(row)
	return &item, nil
}

func (s *ContentService) ReplaceItem(ctx context.Context, parentID, itemID int64, m domain.Media) error {
	n, err := s.queries.ReplaceContentItemFile(ctx, parentID, itemID, m.FileRef, string(m.Kind))
	if err != nil {
		return fmt.Errorf("replace content item: %w", err)
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (s *ContentService) DeleteItem(ctx context.Context, parentID, itemID int64) error {
	n, err := s.queries.DeleteContentItem(ctx, parentID, itemID)
	if err != nil {
		return fmt.Errorf("delete content item: %w", err)
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (s *ContentService) RecordView(ctx context.Context, recordID, userID int64) error {
	if err := s.queries.RecordContentView(ctx, recordID, userID); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrContentNotFound
		}
		return fmt.Errorf("record content view: %w", err)
	}
	return nil
}

func (s *ContentService) ViewCount(ctx context.Context, recordID int64) (int64, error) {
	n, err := s.queries.CountContentViews(ctx, recordID)
	if err != nil {
		return 0, fmt.Errorf("count content views: %w", err)
	}
	return n, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

func rowToContentRecord(row repository.ContentRecord) domain.ContentRecord {
	return domain.ContentRecord{
		ID:          row.ID,
		Kind:        domain.ContentKind(row.Kind),
		Title:       row.Title,
		Description: row.Description,
		CoverRef:    row.CoverRef,
		CreatedAt:   pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToContentItem(row repository.ContentItem) domain.ContentItem {
	return domain.ContentItem{
		ID:       row.ID,
		ParentID: row.ParentID,
		FileRef:  row.FileRef,
		FileKind: domain.FileKind(row.FileKind),
		Order:    int(row.ItemOrder),
	}
}
