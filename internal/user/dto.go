// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/admin-console/internal/usertype"
)

type CreateUserRequest struct {
	FirstName         string `json:"firstName"         validate:"required,min=1,max=100"`
	LastName          string `json:"lastName"          validate:"required,min=1,max=100"`
	Email             string `json:"email"             validate:"required,email,max=255"`
	Password          string `json:"password"          validate:"required,min=8,max=128"`
	Phone             string `json:"phone"             validate:"omitempty,max=32"`
	Address           string `json:"address"           validate:"omitempty,max=500"`
	UserTypeID        string `json:"userTypeId"        validate:"required,uuid"`
	BankName          string `json:"bankName"          validate:"omitempty,max=100"`
	BankIFSCCode      string `json:"bankIfscCode"      validate:"omitempty,max=20"`
	BankAccountNumber string `json:"bankAccountNumber" validate:"omitempty,max=34"`
	BankAddress       string `json:"bankAddress"       validate:"omitempty,max=500"`
	IsActive          *bool  `json:"isActive"`
}

type UpdateUserRequest struct {
	FirstName         *string `json:"firstName,omitempty"         validate:"omitempty,min=1,max=100"`
	LastName          *string `json:"lastName,omitempty"          validate:"omitempty,min=1,max=100"`
	Email             *string `json:"email,omitempty"             validate:"omitempty,email,max=255"`
	Password          *string `json:"password,omitempty"          validate:"omitempty,min=8,max=128"`
	Phone             *string `json:"phone,omitempty"             validate:"omitempty,max=32"`
	Address           *string `json:"address,omitempty"           validate:"omitempty,max=500"`
	UserTypeID        *string `json:"userTypeId,omitempty"        validate:"omitempty,uuid"`
	BankName          *string `json:"bankName,omitempty"          validate:"omitempty,max=100"`
	BankIFSCCode      *string `json:"bankIfscCode,omitempty"      validate:"omitempty,max=20"`
	BankAccountNumber *string `json:"bankAccountNumber,omitempty" validate:"omitempty,max=34"`
	BankAddress       *string `json:"bankAddress,omitempty"       validate:"omitempty,max=500"`
	IsActive          *bool   `json:"isActive,omitempty"`
}

// RegisterInput is a self-service signup. The role is decided by the
// store, never by the caller.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Address   string
	Picture   string
}

type UserResponse struct {
	ID         string             `json:"id"`
	FirstName  string             `json:"firstName"`
	LastName   string             `json:"lastName"`
	Email      string             `json:"email"`
	Phone      string             `json:"phone"`
	Address    string             `json:"address"`
	UserTypeID string             `json:"userTypeId"`
	IsActive   bool               `json:"isActive"`
	Picture    string             `json:"picture"`
	IsDeleted  bool               `json:"isDeleted"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	UserType   *usertype.UserType `json:"userType,omitempty"`
}

type DetailResponse struct {
	UserResponse
	BankName          string `json:"bankName"`
	BankIFSCCode      string `json:"bankIfscCode"`
	BankAccountNumber string `json:"bankAccountNumber"`
	BankAddress       string `json:"bankAddress"`
}

type ProfileResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Picture   string `json:"picture"`
	UserType  string `json:"userType"`
}

type SummaryResponse struct {
	ID         string  `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	RootDirID  *string `json:"rootDirId"`
	IsActive   bool    `json:"isActive"`
	IsDeleted  bool    `json:"isDeleted"`
	UserType   string  `json:"userType"`
	IsLoggedIn bool    `json:"isLoggedIn"`
}

type ListParams struct {
	Page           int
	Limit          int
	Search         string
	UserTypeID     string
	IncludeDeleted bool
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func ToUserResponse(u *User) UserResponse {
	ut := u.UserType
	return UserResponse{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Phone:      u.Phone,
		Address:    u.Address,
		UserTypeID: u.UserTypeID,
		IsActive:   u.IsActive,
		Picture:    u.Picture,
		IsDeleted:  u.IsDeleted,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		UserType:   &ut,
	}
}

func ToDetailResponse(u *User) DetailResponse {
	return DetailResponse{
		UserResponse:      ToUserResponse(u),
		BankName:          u.BankName,
		BankIFSCCode:      u.BankIFSCCode,
		BankAccountNumber: u.BankAccountNumber,
		BankAddress:       u.BankAddress,
	}
}

func ToProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Picture:   u.Picture,
		UserType:  u.Role(),
	}
}

// ToSummaryList flags each user holding a live session in loggedIn.
func ToSummaryList(users []User, loggedIn map[string]struct{}) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		_, online := loggedIn[u.ID]
		out = append(out, SummaryResponse{
			ID:         u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			RootDirID:  u.RootDirID,
			IsActive:   u.IsActive,
			IsDeleted:  u.IsDeleted,
			UserType:   u.Role(),
			IsLoggedIn: online,
		})
	}
	return out
}
