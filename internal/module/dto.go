// AngelaMos | 2026
// dto.go

package module

type CreateRequest struct {
	Name        string  `json:"name"        validate:"required,min=1,max=100"`
	ParentID    *string `json:"parentId"    validate:"omitempty,uuid"`
	URLSlug     *string `json:"urlSlug"     validate:"omitempty,max=200"`
	ToolTip     *string `json:"toolTip"     validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"isActive"`
}

// UpdateRequest changes only the fields present. An empty parentId moves
// the module to the top level.
type UpdateRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=100"`
	ParentID    *string `json:"parentId"`
	URLSlug     *string `json:"urlSlug"     validate:"omitempty,max=200"`
	ToolTip     *string `json:"toolTip"     validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"isActive"`
}

type BulkUpdateRequest struct {
	ModuleIDs []string `json:"moduleIds" validate:"required,min=1,dive,uuid"`
	IsActive  *bool    `json:"isActive"  validate:"required"`
}

type GrantRequest struct {
	UserID   string `json:"userId"   validate:"required,uuid"`
	ModuleID string `json:"moduleId" validate:"required,uuid"`
}

type BulkGrantRequest struct {
	UserID    string   `json:"userId"    validate:"required,uuid"`
	ModuleIDs []string `json:"moduleIds" validate:"required,min=1,dive,uuid"`
}
