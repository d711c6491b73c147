package identity

// LoginInput is the login form
type LoginInput struct {
	TenantID string `json:"tenant_id" validate:"required,tenant"`
	UserID   string `json:"user_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the registration form
type RegisterInput struct {
	TenantID string `json:"tenant_id" validate:"required,tenant"`
	UserID   string `json:"user_id" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=4"`
}
