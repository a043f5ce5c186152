package dto

import (
	"time"

	"github.com/Payphone-Digital/lms/internal/model"
)

// UserResponse is the public profile. It never carries the password hash.
type UserResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	CompanyID     string     `json:"companyId"`
	CompanyName   string     `json:"companyName,omitempty"`
	RoleID        string     `json:"roleId"`
	RoleName      string     `json:"roleName,omitempty"`
	PasswordSetAt *time.Time `json:"passwordSetAt"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		CompanyID:     u.CompanyID,
		CompanyName:   u.Company.Name,
		RoleID:        u.RoleID,
		RoleName:      u.Role.Name,
		PasswordSetAt: u.PasswordSetAt,
	}
}

type SessionResponse struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current"`
}

func NewSessionResponse(s *model.Session, currentID string) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		UserAgent: s.UserAgent,
		IP:        s.IP,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Current:   s.ID == currentID,
	}
}
