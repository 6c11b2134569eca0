// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/admin-console/internal/session"
	"github.com/carterperez-dev/admin-console/internal/usertype"
)

type User struct {
	ID                string            `db:"id"`
	Email             string            `db:"email"`
	PasswordHash      string            `db:"password_hash"`
	FirstName         string            `db:"first_name"`
	LastName          string            `db:"last_name"`
	Phone             string            `db:"phone"`
	Address           string            `db:"address"`
	Picture           string            `db:"picture"`
	BankName          string            `db:"bank_name"`
	BankIFSCCode      string            `db:"bank_ifsc_code"`
	BankAccountNumber string            `db:"bank_account_number"`
	BankAddress       string            `db:"bank_address"`
	UserTypeID        string            `db:"user_type_id"`
	RootDirID         *string           `db:"root_dir_id"`
	IsActive          bool              `db:"is_active"`
	IsDeleted         bool              `db:"is_deleted"`
	CreatedAt         time.Time         `db:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at"`
	UserType          usertype.UserType `db:"user_type"`
}

// Role is the name of the user's type, which is its rank key.
func (u *User) Role() string {
	return u.UserType.Name
}

func (u *User) Identity() *session.Identity {
	return &session.Identity{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Picture:    u.Picture,
		UserTypeID: u.UserTypeID,
		Role:       u.Role(),
		IsActive:   u.IsActive,
		IsDeleted:  u.IsDeleted,
	}
}
