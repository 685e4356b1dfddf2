package request

// CreateTenant holds the request body for creating a tenant.
type CreateTenant struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CreateUser holds the request body for creating a user within a tenant.
type CreateUser struct {
	TenantID    string `json:"tenant_id" validate:"required,min=1,max=64"`
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
}
