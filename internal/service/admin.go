package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/set-night/seyedbot/internal/domain"
	"github.com/set-night/seyedbot/internal/repository"
)

// AdminService combines the admins table with the bootstrap IDs from
// configuration. Bootstrap admins are always admins and cannot be removed.
type AdminService struct {
	db        *pgxpool.Pool
	queries   *repository.Queries
	bootstrap []int64
}

func NewAdminService(db *pgxpool.Pool, queries *repository.Queries, bootstrap []int64) *AdminService {
	return &AdminService{db: db, queries: queries, bootstrap: slices.Clone(bootstrap)}
}

func (s *AdminService) isBootstrap(id int64) bool {
	return slices.Contains(s.bootstrap, id)
}

func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if s.isBootstrap(userID) {
		return true, nil
	}
	ok, err := s.queries.IsAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return ok, nil
}

// Add grants admin rights. It returns false when the user already is an admin.
func (s *AdminService) Add(ctx context.Context, userID int64) (bool, error) {
	if s.isBootstrap(userID) {
		return false, nil
	}
	n, err := s.queries.AddAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("add admin: %w", err)
	}
	return n > 0, nil
}

func (s *AdminService) Remove(ctx context.Context, userID int64) (bool, error) {
	if s.isBootstrap(userID) {
		return false, domain.ErrBootstrapAdmin
	}
	n, err := s.queries.RemoveAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("remove admin: %w", err)
	}
	return n > 0, nil
}

// List returns bootstrap admins first, then stored admins.
func (s *AdminService) List(ctx context.Context) ([]domain.Admin, error) {
	out := make([]domain.Admin, 0, len(s.bootstrap))
	for _, id := range s.bootstrap {
		a := domain.Admin{TelegramID: id, Bootstrap: true}
		row, err := s.queries.GetUser(ctx, id)
		switch {
		case err == nil:
			a.PhoneNumber, a.FirstName, a.LastName, a.Username = row.PhoneNumber, row.FirstName, row.LastName, row.Username
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("get bootstrap admin: %w", err)
		}
		out = append(out, a)
	}

	stored, err := s.Removable(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, stored...), nil
}

// Removable returns stored admins that are not bootstrap admins.
func (s *AdminService) Removable(ctx context.Context) ([]domain.Admin, error) {
	rows, err := s.queries.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	out := make([]domain.Admin, 0, len(rows))
	for _, row := range rows {
		if s.isBootstrap(row.TelegramID) {
			continue
		}
		out = append(out, rowToAdmin(row))
	}
	return out, nil
}

// IDs returns every admin ID, bootstrap included, without duplicates.
func (s *AdminService) IDs(ctx context.Context) ([]int64, error) {
	rows, err := s.queries.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	ids := slices.Clone(s.bootstrap)
	for _, row := range rows {
		if !slices.Contains(ids, row.TelegramID) {
			ids = append(ids, row.TelegramID)
		}
	}
	return ids, nil
}

func rowToAdmin(row repository.AdminRow) domain.Admin {
	return domain.Admin{
		TelegramID:  row.TelegramID,
		PhoneNumber: derefString(row.PhoneNumber),
		FirstName:   derefString(row.FirstName),
		LastName:    derefString(row.LastName),
		Username:    derefString(row.Username),
	}
}
