package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Payphone-Digital/lms/internal/constants"
	apperrors "github.com/Payphone-Digital/lms/internal/errors"
	"github.com/Payphone-Digital/lms/internal/metrics"
	"github.com/Payphone-Digital/lms/internal/model"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"gorm.io/gorm"
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ReferencesExist(ctx context.Context, roleID, companyID string) (bool, error)
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, setAt time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	SetRefreshTokenHash(ctx context.Context, id string, hash string) error
	Revoke(ctx context.Context, id string, reason string) (bool, error)
	RevokeAllByUser(ctx context.Context, userID string, reason string) (int64, error)
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]model.Session, error)
}

type ResetStore interface {
	Upsert(ctx context.Context, reset *model.PasswordReset) error
	GetByUserID(ctx context.Context, userID string) (*model.PasswordReset, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

type TokenCodec interface {
	SignAccess(sub TokenSubject, sessionID string) (string, error)
	SignRefresh(sub TokenSubject, sessionID string) (string, error)
	VerifyRefresh(token string) (*Claims, error)
	RefreshTTL() time.Duration
}

// ClientInfo describes the device a session is opened from.
type ClientInfo struct {
	UserAgent string
	IP        string
}

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	CompanyID string
	RoleID    string
}

// AuthResult is a freshly issued token pair bound to a new session.
type AuthResult struct {
	User         *model.User
	SessionID    string
	AccessToken  string
	RefreshToken string
}

type AuthOptions struct {
	PasswordResetTTL time.Duration
	FrontendURL      string
}

type AuthService struct {
	users       UserStore
	sessions    SessionStore
	resets      ResetStore
	hasher      PasswordHasher
	tokenHasher *TokenHasher
	tokens      TokenCodec
	mailer      EmailSender
	opts        AuthOptions
	now         func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	resets ResetStore,
	hasher PasswordHasher,
	tokenHasher *TokenHasher,
	tokens TokenCodec,
	mailer EmailSender,
	opts AuthOptions,
) *AuthService {
	if opts.PasswordResetTTL <= 0 {
		opts.PasswordResetTTL = constants.DefaultPasswordResetTTL
	}
	return &AuthService{
		users:       users,
		sessions:    sessions,
		resets:      resets,
		hasher:      hasher,
		tokenHasher: tokenHasher,
		tokens:      tokens,
		mailer:      mailer,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Tests share one clock with the codec.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = func() time.Time { return now().UTC() }
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bcrypt ignores input past 72 bytes, so longer passwords are refused
// rather than silently truncated.
func validPasswordLength(p string) bool {
	return len(p) <= constants.MaxPasswordLength
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, client ClientInfo) (*AuthResult, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Register")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" || in.CompanyID == "" || in.RoleID == "" {
		metrics.RecordAuth("register", metrics.OutcomeFailure)
		return nil, apperrors.ErrValidation
	}
	if !validPasswordLength(in.Password) {
		metrics.RecordAuth("register", metrics.OutcomeFailure)
		return nil, apperrors.ErrInvalidPassword
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, s.internal(ctx, "register", "Failed to check email availability", err)
	}
	if exists {
		logger.InfoWithContext(ctx, "Registration rejected: email in use").Log()
		metrics.RecordAuth("register", metrics.OutcomeFailure)
		return nil, apperrors.ErrEmailExists
	}

	ok, err := s.users.ReferencesExist(ctx, in.RoleID, in.CompanyID)
	if err != nil {
		return nil, s.internal(ctx, "register", "Failed to verify role and company", err)
	}
	if !ok {
		metrics.RecordAuth("register", metrics.OutcomeFailure)
		return nil, apperrors.ErrUnknownRoleOrCompany
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "register", "Failed to hash password", err)
	}

	now := s.now()
	user := &model.User{
		Name:          in.Name,
		Email:         in.Email,
		PasswordHash:  &digest,
		PasswordSetAt: &now,
		RoleID:        in.RoleID,
		CompanyID:     in.CompanyID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.RecordAuth("register", metrics.OutcomeFailure)
			return nil, apperrors.ErrEmailExists
		}
		return nil, s.internal(ctx, "register", "Failed to create user", err)
	}

	// reload for role and company names
	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, s.internal(ctx, "register", "Failed to reload user", err)
	}

	result, err := s.issueSession(ctx, created, client)
	if err != nil {
		return nil, s.internal(ctx, "register", "Failed to issue session", err)
	}

	ctx = ctxutil.WithUserID(ctx, created.ID)
	logger.InfoWithContext(ctx, "User registered").
		String("session_id", result.SessionID).
		Log()
	metrics.RecordAuth("register", metrics.OutcomeSuccess)

	return result, nil
}

// Login fails identically for an unknown email, a user without a password
// and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Login")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.RecordAuth("login", metrics.OutcomeFailure)
		return nil, apperrors.ErrValidation
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.InfoWithContext(ctx, "Login failed: unknown email").Log()
			metrics.RecordAuth("login", metrics.OutcomeFailure)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "login", "Failed to get user for authentication", err)
	}

	ctx = ctxutil.WithUserID(ctx, user.ID)

	if !user.HasPassword() {
		logger.InfoWithContext(ctx, "Login failed: no password set").Log()
		metrics.RecordAuth("login", metrics.OutcomeFailure)
		return nil, apperrors.ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "login", "Failed to verify password", err)
	}
	if !match {
		logger.InfoWithContext(ctx, "Login failed: wrong password").Log()
		metrics.RecordAuth("login", metrics.OutcomeFailure)
		return nil, apperrors.ErrInvalidCredentials
	}

	result, err := s.issueSession(ctx, user, client)
	if err != nil {
		return nil, s.internal(ctx, "login", "Failed to issue session", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		logger.WarnWithContext(ctx, "Failed to update last login").
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "Login successful").
		String("session_id", result.SessionID).
		Log()
	metrics.RecordAuth("login", metrics.OutcomeSuccess)

	return result, nil
}

// Refresh rotates a refresh token. Presenting a token that was already rotated
// away, or one that does not match its session, revokes every session of the
// user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResult, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Refresh")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if refreshToken == "" {
		metrics.RecordAuth("refresh", metrics.OutcomeFailure)
		return nil, apperrors.ErrMissingToken
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		logger.InfoWithContext(ctx, "Refresh rejected: token verification failed").Log()
		metrics.RecordAuth("refresh", metrics.OutcomeFailure)
		return nil, apperrors.ErrInvalidToken
	}

	ctx = ctxutil.WithUserID(ctx, claims.UserID())
	sessionID := claims.SessionID()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuth("refresh", metrics.OutcomeFailure)
			return nil, apperrors.ErrSessionInvalid
		}
		return nil, s.internal(ctx, "refresh", "Failed to load session", err)
	}

	if session.UserID != claims.UserID() {
		logger.WarnWithContext(ctx, "Refresh rejected: session owner mismatch").
			String("session_id", sessionID).
			Log()
		metrics.RecordAuth("refresh", metrics.OutcomeFailure)
		return nil, apperrors.ErrSessionInvalid
	}

	if session.Revoked {
		if session.RevokedReason == constants.RevokeReasonRotated {
			return nil, s.reuseDetected(ctx, session.UserID, sessionID)
		}
		metrics.RecordAuth("refresh", metrics.OutcomeFailure)
		return nil, apperrors.ErrSessionInvalid
	}

	if session.IsExpired(s.now()) || session.RefreshTokenHash == nil {
		metrics.RecordAuth("refresh", metrics.OutcomeFailure)
		return nil, apperrors.ErrSessionInvalid
	}

	if !s.tokenHasher.Verify(refreshToken, *session.RefreshTokenHash) {
		return nil, s.reuseDetected(ctx, session.UserID, sessionID)
	}

	won, err := s.sessions.Revoke(ctx, session.ID, constants.RevokeReasonRotated)
	if err != nil {
		return nil, s.internal(ctx, "refresh", "Failed to revoke rotated session", err)
	}
	if !won {
		logger.WarnWithContext(ctx, "Refresh lost rotation race").
			String("session_id", sessionID).
			Log()
		metrics.RecordAuth("refresh", metrics.OutcomeFailure)
		return nil, apperrors.ErrSessionInvalid
	}
	metrics.RecordRevoked(constants.RevokeReasonRotated, 1)

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuth("refresh", metrics.OutcomeFailure)
			return nil, apperrors.ErrUnauthorized
		}
		return nil, s.internal(ctx, "refresh", "Failed to load user", err)
	}

	result, err := s.issueSession(ctx, user, client)
	if err != nil {
		return nil, s.internal(ctx, "refresh", "Failed to issue session", err)
	}

	logger.InfoWithContext(ctx, "Refresh token rotated").
		String("old_session_id", sessionID).
		String("session_id", result.SessionID).
		Log()
	metrics.RecordAuth("refresh", metrics.OutcomeSuccess)

	return result, nil
}

func (s *AuthService) reuseDetected(ctx context.Context, userID, sessionID string) error {
	n, err := s.sessions.RevokeAllByUser(ctx, userID, constants.RevokeReasonReuseDetected)
	if err != nil {
		return s.internal(ctx, "refresh", "Failed to revoke sessions after token reuse", err)
	}

	logger.WarnWithContext(ctx, "Refresh token reuse detected, all sessions revoked").
		String("session_id", sessionID).
		Int64("revoked_count", n).
		Log()
	metrics.RecordRevoked(constants.RevokeReasonReuseDetected, n)
	metrics.RecordAuth("refresh", metrics.OutcomeReuse)

	return apperrors.ErrTokenReuse
}

// Logout revokes the session behind the refresh token if it can be
// identified. It never fails; the caller clears cookies regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Logout")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if refreshToken == "" {
		metrics.RecordAuth("logout", metrics.OutcomeSuccess)
		return
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		logger.InfoWithContext(ctx, "Logout with unverifiable refresh token").Log()
		metrics.RecordAuth("logout", metrics.OutcomeSuccess)
		return
	}

	ctx = ctxutil.WithUserID(ctx, claims.UserID())

	session, err := s.sessions.GetByID(ctx, claims.SessionID())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.ErrorWithContext(ctx, "Logout failed to load session").
				Err(err).
				Log()
			metrics.RecordAuth("logout", metrics.OutcomeError)
			return
		}
		metrics.RecordAuth("logout", metrics.OutcomeSuccess)
		return
	}
	if session.UserID != claims.UserID() {
		metrics.RecordAuth("logout", metrics.OutcomeSuccess)
		return
	}

	revoked, err := s.sessions.Revoke(ctx, session.ID, constants.RevokeReasonLogout)
	if err != nil {
		logger.ErrorWithContext(ctx, "Logout failed to revoke session").
			String("session_id", session.ID).
			Err(err).
			Log()
		metrics.RecordAuth("logout", metrics.OutcomeError)
		return
	}
	if revoked {
		metrics.RecordRevoked(constants.RevokeReasonLogout, 1)
	}

	logger.InfoWithContext(ctx, "Logged out").
		String("session_id", session.ID).
		Bool("revoked", revoked).
		Log()
	metrics.RecordAuth("logout", metrics.OutcomeSuccess)
}

// Me reads the caller's profile fresh from the store.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Me")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, s.internal(ctx, "me", "Failed to load user", err)
	}
	return user, nil
}

// RequestPasswordReset answers the same way whether or not the email is
// registered. Delivery problems are logged and not reported to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RequestPasswordReset")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	email = normalizeEmail(email)
	if email == "" {
		return apperrors.ErrValidation
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.InfoWithContext(ctx, "Password reset requested for unknown email").Log()
			metrics.RecordAuth("password_reset_request", metrics.OutcomeSuccess)
			return nil
		}
		return s.internal(ctx, "password_reset_request", "Failed to look up user", err)
	}

	ctx = ctxutil.WithUserID(ctx, user.ID)

	rawToken, err := newResetToken()
	if err != nil {
		return s.internal(ctx, "password_reset_request", "Failed to generate reset token", err)
	}

	reset := &model.PasswordReset{
		UserID:    user.ID,
		TokenHash: s.tokenHasher.Hash(rawToken),
		ExpiresAt: s.now().Add(s.opts.PasswordResetTTL),
	}
	if err := s.resets.Upsert(ctx, reset); err != nil {
		return s.internal(ctx, "password_reset_request", "Failed to store reset token", err)
	}

	if err := s.sendResetEmail(ctx, user, rawToken); err != nil {
		logger.ErrorWithContext(ctx, "Failed to deliver password reset email").
			Err(err).
			Log()
		metrics.RecordAuth("password_reset_request", metrics.OutcomeError)
		return nil
	}

	logger.InfoWithContext(ctx, "Password reset email sent").Log()
	metrics.RecordAuth("password_reset_request", metrics.OutcomeSuccess)
	return nil
}

func (s *AuthService) sendResetEmail(ctx context.Context, user *model.User, rawToken string) error {
	link, err := BuildResetLink(s.opts.FrontendURL, rawToken, user.ID)
	if err != nil {
		return err
	}
	msg, err := RenderResetEmail(user.Email, user.Name, link, s.opts.PasswordResetTTL)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func newResetToken() (string, error) {
	buf := make([]byte, constants.ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ConfirmPasswordReset sets a new password with a reset token and signs the
// user out everywhere. A wrong token leaves the stored reset in place.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, userID, rawToken, newPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ConfirmPasswordReset")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = ctxutil.WithUserID(ctx, userID)

	if userID == "" || rawToken == "" || newPassword == "" {
		return apperrors.ErrValidation
	}
	if !validPasswordLength(newPassword) {
		return apperrors.ErrInvalidPassword
	}

	reset, err := s.resets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuth("password_reset_confirm", metrics.OutcomeFailure)
			return apperrors.ErrResetInvalidOrExpired
		}
		return s.internal(ctx, "password_reset_confirm", "Failed to load reset token", err)
	}

	if reset.IsExpired(s.now()) {
		if err := s.resets.DeleteByUserID(ctx, userID); err != nil {
			logger.WarnWithContext(ctx, "Failed to delete expired reset token").
				Err(err).
				Log()
		}
		metrics.RecordAuth("password_reset_confirm", metrics.OutcomeFailure)
		return apperrors.ErrResetInvalidOrExpired
	}

	if !s.tokenHasher.Verify(rawToken, reset.TokenHash) {
		logger.WarnWithContext(ctx, "Password reset rejected: token mismatch").Log()
		metrics.RecordAuth("password_reset_confirm", metrics.OutcomeFailure)
		return apperrors.ErrResetTokenInvalid
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal(ctx, "password_reset_confirm", "Failed to hash password", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, digest, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuth("password_reset_confirm", metrics.OutcomeFailure)
			return apperrors.ErrResetInvalidOrExpired
		}
		return s.internal(ctx, "password_reset_confirm", "Failed to update password", err)
	}

	if err := s.resets.DeleteByUserID(ctx, userID); err != nil {
		return s.internal(ctx, "password_reset_confirm", "Failed to consume reset token", err)
	}

	n, err := s.sessions.RevokeAllByUser(ctx, userID, constants.RevokeReasonPasswordReset)
	if err != nil {
		return s.internal(ctx, "password_reset_confirm", "Failed to revoke sessions", err)
	}
	metrics.RecordRevoked(constants.RevokeReasonPasswordReset, n)

	logger.InfoWithContext(ctx, "Password reset completed").
		Int64("revoked_count", n).
		Log()
	metrics.RecordAuth("password_reset_confirm", metrics.OutcomeSuccess)
	return nil
}

// ChangePassword verifies the current password, stores the new one and
// revokes every session of the user, including the caller's.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ChangePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = ctxutil.WithUserID(ctx, userID)

	if oldPassword == "" || newPassword == "" {
		return apperrors.ErrValidation
	}
	if !validPasswordLength(newPassword) {
		return apperrors.ErrInvalidPassword
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return s.internal(ctx, "change_password", "Failed to load user", err)
	}

	if !user.HasPassword() {
		metrics.RecordAuth("change_password", metrics.OutcomeFailure)
		return apperrors.ErrPasswordNotSet
	}

	match, err := s.hasher.Verify(oldPassword, *user.PasswordHash)
	if err != nil {
		return s.internal(ctx, "change_password", "Failed to verify password", err)
	}
	if !match {
		logger.WarnWithContext(ctx, "Change password rejected: old password incorrect").Log()
		metrics.RecordAuth("change_password", metrics.OutcomeFailure)
		return apperrors.ErrIncorrectPassword
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal(ctx, "change_password", "Failed to hash password", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, digest, s.now()); err != nil {
		return s.internal(ctx, "change_password", "Failed to update password", err)
	}

	n, err := s.sessions.RevokeAllByUser(ctx, userID, constants.RevokeReasonPasswordChanged)
	if err != nil {
		return s.internal(ctx, "change_password", "Failed to revoke sessions", err)
	}
	metrics.RecordRevoked(constants.RevokeReasonPasswordChanged, n)

	logger.InfoWithContext(ctx, "Password changed").
		Int64("revoked_count", n).
		Log()
	metrics.RecordAuth("change_password", metrics.OutcomeSuccess)
	return nil
}

// ListSessions returns the caller's live sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ListSessions")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = ctxutil.WithUserID(ctx, userID)

	sessions, err := s.sessions.ListActiveByUser(ctx, userID, s.now())
	if err != nil {
		return nil, s.internal(ctx, "list_sessions", "Failed to list sessions", err)
	}
	return sessions, nil
}

// RevokeSession signs out one of the caller's devices. Sessions owned by
// someone else are reported as not found.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeSession")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = ctxutil.WithUserID(ctx, userID)

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSessionNotFound
		}
		return s.internal(ctx, "revoke_session", "Failed to load session", err)
	}
	if session.UserID != userID {
		return apperrors.ErrSessionNotFound
	}

	revoked, err := s.sessions.Revoke(ctx, sessionID, constants.RevokeReasonUserRevoked)
	if err != nil {
		return s.internal(ctx, "revoke_session", "Failed to revoke session", err)
	}
	if revoked {
		metrics.RecordRevoked(constants.RevokeReasonUserRevoked, 1)
	}

	logger.InfoWithContext(ctx, "Session revoked by user").
		String("session_id", sessionID).
		Bool("revoked", revoked).
		Log()
	metrics.RecordAuth("revoke_session", metrics.OutcomeSuccess)
	return nil
}

// DeleteUser removes another user together with their sessions and any
// outstanding reset.
func (s *AuthService) DeleteUser(ctx context.Context, targetID, requesterID string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteUser")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")
	ctx = ctxutil.WithUserID(ctx, requesterID)

	if targetID == "" {
		return apperrors.ErrValidation
	}
	if targetID == requesterID {
		return apperrors.ErrSelfDeletion
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return s.internal(ctx, "delete_user", "Failed to delete user", err)
	}

	logger.InfoWithContext(ctx, "User deleted by admin").
		String("target_user_id", targetID).
		Log()
	metrics.RecordAuth("delete_user", metrics.OutcomeSuccess)
	return nil
}

// issueSession opens a session, signs both tokens against it and stores the
// refresh token digest.
func (s *AuthService) issueSession(ctx context.Context, user *model.User, client ClientInfo) (*AuthResult, error) {
	session := &model.Session{
		UserID:    user.ID,
		UserAgent: client.UserAgent,
		IP:        client.IP,
		ExpiresAt: s.now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	sub := TokenSubject{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role.Name,
		CompanyID: user.CompanyID,
	}

	accessToken, err := s.tokens.SignAccess(sub, session.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.SignRefresh(sub, session.ID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SetRefreshTokenHash(ctx, session.ID, s.tokenHasher.Hash(refreshToken)); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		SessionID:    session.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// internal logs the lower-layer failure and returns the generic error.
func (s *AuthService) internal(ctx context.Context, event, msg string, err error) error {
	logger.ErrorWithContext(ctx, msg).
		Err(err).
		Log()
	metrics.RecordAuth(event, metrics.OutcomeError)
	return apperrors.WrapError(apperrors.ErrInternal, err)
}
