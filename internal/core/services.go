package core

type Services struct {
	Credential *CredentialService
	Tenant     *TenantService
	User       *UserService
	Audit      *AuditService
}

func NewServices(db DB) *Services {
	return &Services{
		Credential: NewCredentialService(db),
		Tenant:     NewTenantService(db),
		User:       NewUserService(db),
		Audit:      NewAuditService(db),
	}
}
