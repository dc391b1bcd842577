package repository

import "context"

const upsertUserProfile = `-- name: UpsertUserProfile :one
INSERT INTO users (telegram_id, first_name, last_name, username)
VALUES ($1, $2, $3, $4)
ON CONFLICT (telegram_id) DO UPDATE
SET first_name = excluded.first_name,
    last_name  = excluded.last_name,
    username   = excluded.username,
    updated_at = now()
RETURNING (xmax = 0) AS inserted
`

type UpsertUserProfileParams struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
}

// UpsertUserProfile reports whether a new row was inserted.
func (q *Queries) UpsertUserProfile(ctx context.Context, arg UpsertUserProfileParams) (bool, error) {
	row := q.db.QueryRow(ctx, upsertUserProfile, arg.TelegramID, arg.FirstName, arg.LastName, arg.Username)
	var inserted bool
	err := row.Scan(&inserted)
	return inserted, err
}

const setUserPhone = `-- name: SetUserPhone :exec
INSERT INTO users (telegram_id, phone_number, first_name, last_name, username)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (telegram_id) DO UPDATE
SET phone_number = excluded.phone_number,
    first_name   = excluded.first_name,
    last_name    = excluded.last_name,
    username     = excluded.username,
    updated_at   = now()
`

type SetUserPhoneParams struct {
	TelegramID  int64
	PhoneNumber string
	FirstName   string
	LastName    string
	Username    string
}

func (q *Queries) SetUserPhone(ctx context.Context, arg SetUserPhoneParams) error {
	_, err := q.db.Exec(ctx, setUserPhone, arg.TelegramID, arg.PhoneNumber, arg.FirstName, arg.LastName, arg.Username)
	return err
}

const getUser = `-- name: GetUser :one
SELECT telegram_id, phone_number, first_name, last_name, username, created_at, updated_at
FROM users
WHERE telegram_id = $1
`

func (q *Queries) GetUser(ctx context.Context, telegramID int64) (User, error) {
	row := q.db.QueryRow(ctx, getUser, telegramID)
	var i User
	err := row.Scan(&i.TelegramID, &i.PhoneNumber, &i.FirstName, &i.LastName, &i.Username, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getUserByPhone = `-- name: GetUserByPhone :one
SELECT telegram_id, phone_number, first_name, last_name, username, created_at, updated_at
FROM users
WHERE phone_number = $1
ORDER BY updated_at DESC
LIMIT 1
`

func (q *Queries) GetUserByPhone(ctx context.Context, phoneNumber string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByPhone, phoneNumber)
	var i User
	err := row.Scan(&i.TelegramID, &i.PhoneNumber, &i.FirstName, &i.LastName, &i.Username, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const userHasPhone = `-- name: UserHasPhone :one
SELECT EXISTS (SELECT 1 FROM users WHERE telegram_id = $1 AND phone_number <> '')
`

func (q *Queries) UserHasPhone(ctx context.Context, telegramID int64) (bool, error) {
	row := q.db.QueryRow(ctx, userHasPhone, telegramID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listUserIDs = `-- name: ListUserIDs :many
SELECT telegram_id FROM users
WHERE ($1::boolean IS NULL OR (phone_number <> '') = $1::boolean)
ORDER BY telegram_id
`

// ListUserIDs filters by phone presence; a nil hasPhone returns everyone.
func (q *Queries) ListUserIDs(ctx context.Context, hasPhone *bool) ([]int64, error) {
	rows, err := q.db.Query(ctx, listUserIDs, hasPhone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

const userStats = `-- name: UserStats :one
SELECT
    COUNT(*) AS total,
    COUNT(*) FILTER (WHERE TRIM(phone_number) <> '') AS with_phone
FROM users
`

func (q *Queries) UserStats(ctx context.Context) (total int64, withPhone int64, err error) {
	row := q.db.QueryRow(ctx, userStats)
	err = row.Scan(&total, &withPhone)
	return total, withPhone, err
}
