package repository

import "context"

const createContentRecord = `-- name: CreateContentRecord :one
INSERT INTO content_records (kind, title, description, cover_ref)
VALUES ($1, $2, $3, $4)
RETURNING id, kind, title, description, cover_ref, created_at
`

type CreateContentRecordParams struct {
	Kind        string
	Title       string
	Description string
	CoverRef    *string
}

func (q *Queries) CreateContentRecord(ctx context.Context, arg CreateContentRecordParams) (ContentRecord, error) {
	row := q.db.QueryRow(ctx, createContentRecord, arg.Kind, arg.Title, arg.Description, arg.CoverRef)
	var i ContentRecord
	err := row.Scan(&i.ID, &i.Kind, &i.Title, &i.Description, &i.CoverRef, &i.CreatedAt)
	return i, err
}

const getContentRecord = `-- name: GetContentRecord :one
SELECT id, kind, title, description, cover_ref, created_at
FROM content_records
WHERE kind = $1 AND id = $2
`

func (q *Queries) GetContentRecord(ctx context.Context, kind string, id int64) (ContentRecord, error) {
	row := q.db.QueryRow(ctx, getContentRecord, kind, id)
	var i ContentRecord
	err := row.Scan(&i.ID, &i.Kind, &i.Title, &i.Description, &i.CoverRef, &i.CreatedAt)
	return i, err
}

const listContentRecords = `-- name: ListContentRecords :many
SELECT id, kind, title, description, cover_ref, created_at
FROM content_records
WHERE kind = $1
ORDER BY id
`

func (q *Queries) ListContentRecords(ctx context.Context, kind string) ([]ContentRecord, error) {
	rows, err := q.db.Query(ctx, listContentRecords, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ContentRecord
	for rows.Next() {
		var i ContentRecord
		if err := rows.Scan(&i.ID, &i.Kind, &i.Title, &i.Description, &i.CoverRef, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateContentRecord = `-- name: UpdateContentRecord :execrows
UPDATE content_records
SET title       = COALESCE($3, title),
    description = COALESCE($4, description),
    cover_ref   = CASE WHEN $6::boolean THEN NULL ELSE COALESCE($5, cover_ref) END
WHERE kind = $1 AND id = $2
`

type UpdateContentRecordParams struct {
	Kind        string
	ID          int64
	Title       *string
	Description *string
	CoverRef    *string
	ClearCover  bool
}

func (q *Queries) UpdateContentRecord(ctx context.Context, arg UpdateContentRecordParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateContentRecord, arg.Kind, arg.ID, arg.Title, arg.Description, arg.CoverRef, arg.ClearCover)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteContentRecord = `-- name: DeleteContentRecord :execrows
DELETE FROM content_records WHERE kind = $1 AND id = $2
`

// DeleteContentRecord cascades to items and views through foreign keys.
func (q *Queries) DeleteContentRecord(ctx context.Context, kind string, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteContentRecord, kind, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const createContentItem = `-- name: CreateContentItem :one
INSERT INTO content_items (parent_id, file_ref, file_kind, item_order)
VALUES ($1, $2, $3, $4)
RETURNING id, parent_id, file_ref, file_kind, item_order
`

type CreateContentItemParams struct {
	ParentID  int64
	FileRef   string
	FileKind  string
	ItemOrder int32
}

func (q *Queries) CreateContentItem(ctx context.Context, arg CreateContentItemParams) (ContentItem, error) {
	row := q.db.QueryRow(ctx, createContentItem, arg.ParentID, arg.FileRef, arg.FileKind, arg.ItemOrder)
	var i ContentItem
	err := row.Scan(&i.ID, &i.ParentID, &i.FileRef, &i.FileKind, &i.ItemOrder)
	return i, err
}

const nextContentItemOrder = `-- name: NextContentItemOrder :one
SELECT COALESCE(MAX(item_order) + 1, 0)::integer FROM content_items WHERE parent_id = $1
`

func (q *Queries) NextContentItemOrder(ctx context.Context, parentID int64) (int32, error) {
	row := q.db.QueryRow(ctx, nextContentItemOrder, parentID)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const listContentItems = `-- name: ListContentItems :many
SELECT id, parent_id, file_ref, file_kind, item_order
FROM content_items
WHERE parent_id = $1
ORDER BY item_order, id
`

func (q *Queries) ListContentItems(ctx context.Context, parentID int64) ([]ContentItem, error) {
	rows, err := q.db.Query(ctx, listContentItems, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ContentItem
	for rows.Next() {
		var i ContentItem
		if err := rows.Scan(&i.ID, &i.ParentID, &i.FileRef, &i.FileKind, &i.ItemOrder); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const replaceContentItemFile = `-- name: ReplaceContentItemFile :execrows
UPDATE content_items SET file_ref = $3, file_kind = $4
WHERE parent_id = $1 AND id = $2
`

func (q *Queries) ReplaceContentItemFile(ctx context.Context, parentID, id int64, fileRef, fileKind string) (int64, error) {
	tag, err := q.db.Exec(ctx, replaceContentItemFile, parentID, id, fileRef, fileKind)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteContentItem = `-- name: DeleteContentItem :execrows
DELETE FROM content_items WHERE parent_id = $1 AND id = $2
`

func (q *Queries) DeleteContentItem(ctx context.Context, parentID, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteContentItem, parentID, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const recordContentView = `-- name: RecordContentView :exec
INSERT INTO content_views (record_id, user_id) VALUES ($1, $2)
`

func (q *Queries) RecordContentView(ctx context.Context, recordID, userID int64) error {
	_, err := q.db.Exec(ctx, recordContentView, recordID, userID)
	return err
}

const countContentViews = `-- name: CountContentViews :one
SELECT COUNT(*) FROM content_views WHERE record_id = $1
`

func (q *Queries) CountContentViews(ctx context.Context, recordID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countContentViews, recordID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
