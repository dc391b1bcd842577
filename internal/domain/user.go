package domain

import "time"

type User struct {
	TelegramID  int64
	PhoneNumber string
	FirstName   string
	LastName    string
	Username    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) HasPhone() bool {
	return u.PhoneNumber != ""
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// Profile is the lightweight identity refreshed on every guarded interaction.
type Profile struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
}

type UserStats struct {
	Total        int64
	WithPhone    int64
	WithoutPhone int64
}

type Admin struct {
	TelegramID  int64
	PhoneNumber string
	FirstName   string
	LastName    string
	Username    string
	Bootstrap   bool
}

func (a *Admin) FullName() string {
	u := User{FirstName: a.FirstName, LastName: a.LastName}
	return u.FullName()
}
