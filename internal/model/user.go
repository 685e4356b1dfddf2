package model

import "time"

// User is a human principal within a tenant. Credentials may reference a
// user or stand alone as service credentials.
type User struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
