package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/set-night/seyedbot/internal/domain"
	"github.com/set-night/seyedbot/internal/repository"
)

type UserService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
}

func NewUserService(db *pgxpool.Pool, queries *repository.Queries) *UserService {
	return &UserService{db: db, queries: queries}
}

// UpsertProfile refreshes the user's names and reports whether the row is new.
func (s *UserService) UpsertProfile(ctx context.Context, p domain.Profile) (bool, error) {
	created, err := s.queries.UpsertUserProfile(ctx, repository.UpsertUserProfileParams{
		TelegramID: p.TelegramID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Username:   p.Username,
	})
	if err != nil {
		return false, fmt.Errorf("upsert user profile: %w", err)
	}
	return created, nil
}

func (s *UserService) HasPhone(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.queries.UserHasPhone(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check user phone: %w", err)
	}
	return ok, nil
}

func (s *UserService) SetPhone(ctx context.Context, p domain.Profile, phone string) error {
	if err := s.queries.SetUserPhone(ctx, repository.SetUserPhoneParams{
		TelegramID:  p.TelegramID,
		PhoneNumber: phone,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Username:    p.Username,
	}); err != nil {
		return fmt.Errorf("set user phone: %w", err)
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	row, err := s.queries.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return rowToUser(row), nil
}

func (s *UserService) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row, err := s.queries.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return rowToUser(row), nil
}

// Recipients lists the user IDs matching a broadcast filter.
func (s *UserService) Recipients(ctx context.Context, filter domain.BroadcastFilter) ([]int64, error) {
	var hasPhone *bool
	switch filter {
	case domain.BroadcastAll:
	case domain.BroadcastWithPhone:
		v := true
		hasPhone = &v
	case domain.BroadcastLacksPhone:
		v := false
		hasPhone = &v
	default:
		return nil, fmt.Errorf("unknown broadcast filter %q", filter)
	}
	ids, err := s.queries.ListUserIDs(ctx, hasPhone)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}

func (s *UserService) Stats(ctx context.Context) (domain.UserStats, error) {
	total, withPhone, err := s.queries.UserStats(ctx)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return domain.UserStats{Total: total, WithPhone: withPhone, WithoutPhone: total - withPhone}, nil
}

func rowToUser(row repository.User) *domain.User {
	return &domain.User{
		TelegramID:  row.TelegramID,
		PhoneNumber: row.PhoneNumber,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Username:    row.Username,
		CreatedAt:   pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt:   pgTimestamptzToTime(row.UpdatedAt),
	}
}
