// AngelaMos | 2026
// entity.go

package session

import (
	"time"
)

// Session is a server-side login. Expiry is in unix seconds.
type Session struct {
	ID        string    `db:"id"         json:"id"`
	UserID    string    `db:"user_id"    json:"userId"`
	Expiry    int64     `db:"expiry"     json:"expiry"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (s *Session) ExpiresAt() time.Time {
	return time.Unix(s.Expiry, 0)
}

func (s *Session) Expired(now time.Time) bool {
	return now.Unix() > s.Expiry
}

// Identity is the slice of a user record that request handling needs.
type Identity struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	Picture    string
	UserTypeID string
	Role       string
	IsActive   bool
	IsDeleted  bool
}

// Principal is an authenticated caller: the session it arrived with and
// the user behind it.
type Principal struct {
	Session *Session
	User    *Identity
}
