package request

// IssueCredential holds the request body for issuing a credential within
// the caller's own tenant.
type IssueCredential struct {
	Family          string   `json:"family" validate:"omitempty,oneof=live test"`
	UserID          string   `json:"user_id" validate:"omitempty,max=64"`
	Scopes          []string `json:"scopes" validate:"required,min=1,dive,scope"`
	TTLDays         int      `json:"ttl_days" validate:"omitempty,min=1,max=365"`
	RateLimitPerMin int      `json:"rate_limit_per_min" validate:"omitempty,min=1,max=100000"`
}

// RevokeCredential holds the request body for revoking a credential.
type RevokeCredential struct {
	Reason string `json:"reason" validate:"required,min=1,max=255"`
}

// MintCredential is the admin-plane issue request: like IssueCredential
// but naming the target tenant explicitly.
type MintCredential struct {
	TenantID        string   `json:"tenant_id" validate:"required,min=1,max=64"`
	Family          string   `json:"family" validate:"omitempty,oneof=live test"`
	UserID          string   `json:"user_id" validate:"omitempty,max=64"`
	Scopes          []string `json:"scopes" validate:"required,min=1,dive,scope"`
	TTLDays         int      `json:"ttl_days" validate:"omitempty,min=1,max=365"`
	RateLimitPerMin int      `json:"rate_limit_per_min" validate:"omitempty,min=1,max=100000"`
}
