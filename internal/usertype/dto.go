// AngelaMos | 2026
// dto.go

package usertype

type CreateRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	IsActive *bool  `json:"isActive"`
}

type UpdateRequest struct {
	Name     *string `json:"name,omitempty"     validate:"omitempty,min=2,max=50"`
	IsActive *bool   `json:"isActive,omitempty"`
}
