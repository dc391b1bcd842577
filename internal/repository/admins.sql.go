package repository

import "context"

const addAdmin = `-- name: AddAdmin :execrows
INSERT INTO admins (telegram_id) VALUES ($1)
ON CONFLICT (telegram_id) DO NOTHING
`

func (q *Queries) AddAdmin(ctx context.Context, telegramID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, addAdmin, telegramID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const removeAdmin = `-- name: RemoveAdmin :execrows
DELETE FROM admins WHERE telegram_id = $1
`

func (q *Queries) RemoveAdmin(ctx context.Context, telegramID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, removeAdmin, telegramID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const isAdmin = `-- name: IsAdmin :one
SELECT EXISTS (SELECT 1 FROM admins WHERE telegram_id = $1)
`

func (q *Queries) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	row := q.db.QueryRow(ctx, isAdmin, telegramID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listAdmins = `-- name: ListAdmins :many
SELECT admins.telegram_id, users.phone_number, users.first_name, users.last_name, users.username
FROM admins
LEFT JOIN users ON users.telegram_id = admins.telegram_id
ORDER BY admins.telegram_id
`

func (q *Queries) ListAdmins(ctx context.Context) ([]AdminRow, error) {
	rows, err := q.db.Query(ctx, listAdmins)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AdminRow
	for rows.Next() {
		var i AdminRow
		if err := rows.Scan(&i.TelegramID, &i.PhoneNumber, &i.FirstName, &i.LastName, &i.Username); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
