package dto

type RegisterRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,max=72"`
	CompanyID string `json:"companyId" binding:"required"`
	RoleID    string `json:"roleId" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	UserID      string `json:"userId" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,max=72"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required,max=72"`
	NewPassword string `json:"newPassword" binding:"required,max=72"`
}

// AuthResponse is returned by register, login and refresh. Tokens travel in
// cookies only.
type AuthResponse struct {
	Success   bool          `json:"success"`
	User      *UserResponse `json:"user,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
}

type MeResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

type SessionListResponse struct {
	Success  bool              `json:"success"`
	Sessions []SessionResponse `json:"sessions"`
}
