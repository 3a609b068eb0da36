package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/redibo/rental-api/internal/infrastructure/google"
	"github.com/redibo/rental-api/internal/infrastructure/smtp"
	"github.com/redibo/rental-api/internal/pkg/code"
	"github.com/redibo/rental-api/internal/pkg/id"
	"github.com/redibo/rental-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TwoFactorRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"codigo" validate:"required,len=6"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type RecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"codigo" validate:"required,len=6"`
	NewPassword string `json:"nuevaContrasena" validate:"required,min=8,max=72"`
}

// LoginResult is what a successful credential check yields. When the account
// has two-step verification enabled no token is issued yet; the client must
// follow up with the emailed code.
type LoginResult struct {
	Token             string       `json:"token,omitempty"`
	TwoFactorRequired bool         `json:"requiere2Pasos"`
	User              *domain.User `json:"usuario,omitempty"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	VerifyTwoFactor(ctx context.Context, req TwoFactorRequest) (*LoginResult, error)
	GoogleSignIn(ctx context.Context, req GoogleSignInRequest) (*LoginResult, error)
	RequestPasswordRecovery(ctx context.Context, req RecoveryRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, userID, verType string) (*domain.Verification, error)
	Delete(ctx context.Context, userID, verType string) error
}

type jwtSigner interface {
	Sign(userID, email, fullName, role string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type service struct {
	users        userStore
	verification verificationStore
	mailer       smtp.Mailer
	jwtProvider  jwtSigner      // nil when no signing keys are configured
	google       googleVerifier // nil when Google sign-in is not configured
	codeTTL      time.Duration
}

type ServiceDeps struct {
	UserRepo         userStore
	VerificationRepo verificationStore
	Mailer           smtp.Mailer
	JWTProvider      jwtSigner
	GoogleVerifier   googleVerifier
	CodeTTL          time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:        deps.UserRepo,
		verification: deps.VerificationRepo,
		mailer:       deps.Mailer,
		jwtProvider:  deps.JWTProvider,
		google:       deps.GoogleVerifier,
		codeTTL:      deps.CodeTTL,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	if u.TwoFactorEnabled {
		if err := s.sendCode(ctx, u, domain.VerificationTwoFactor, "Código de verificación",
			"Tu código de verificación es: "); err != nil {
			return nil, err
		}
		return &LoginResult{TwoFactorRequired: true}, nil
	}

	return s.issueToken(u)
}

func (s *service) VerifyTwoFactor(ctx context.Context, req TwoFactorRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if err := s.consumeCode(ctx, u.UserID, domain.VerificationTwoFactor, req.Code); err != nil {
		return nil, err
	}
	return s.issueToken(u)
}

// GoogleSignIn verifies the Google ID token and signs the user in,
// provisioning an account on first use.
func (s *service) GoogleSignIn(ctx context.Context, req GoogleSignInRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in not configured: %w", domain.ErrBadRequest)
	}
	payload, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	if !payload.EmailVerified {
		return nil, fmt.Errorf("google email not verified: %w", domain.ErrUnauthorized)
	}

	u, err := s.users.GetByGoogleSub(ctx, payload.Sub)
	if err != nil {
		// Link by email if the account exists, otherwise provision one.
		u, err = s.users.GetByEmail(ctx, payload.Email)
		if err == nil {
			if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
				"google_sub": payload.Sub,
			}); err != nil {
				return nil, err
			}
		} else {
			now := time.Now().UTC()
			u = &domain.User{
				UserID:       id.New(),
				Email:        payload.Email,
				Role:         domain.RoleRenter,
				FirstName:    payload.FirstName,
				LastName:     payload.LastName,
				AuthProvider: "google",
				GoogleSub:    payload.Sub,
				Enable:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.users.Put(ctx, u); err != nil {
				return nil, err
			}
			slog.Info("auth: provisioned google account", "user_id", u.UserID)
		}
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	return s.issueToken(u)
}

// RequestPasswordRecovery emails a recovery code. It reports success for
// unknown addresses so the endpoint cannot be used to probe accounts.
func (s *service) RequestPasswordRecovery(ctx context.Context, req RecoveryRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		slog.Info("auth: recovery requested for unknown email")
		return nil
	}
	return s.sendCode(ctx, u, domain.VerificationRecovery, "Recuperación de contraseña",
		"Tu código de recuperación es: ")
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if err := s.consumeCode(ctx, u.UserID, domain.VerificationRecovery, req.Code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{
		"password_hash": string(hash),
	})
}

func (s *service) issueToken(u *domain.User) (*LoginResult, error) {
	if s.jwtProvider == nil {
		return nil, fmt.Errorf("jwt signer not configured")
	}
	token, err := s.jwtProvider.Sign(u.UserID, u.Email, u.FullName(), u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u}, nil
}

func (s *service) sendCode(ctx context.Context, u *domain.User, verType, subject, bodyPrefix string) error {
	c, err := code.Numeric(6)
	if err != nil {
		return err
	}
	v := &domain.Verification{
		UserID:    u.UserID,
		Type:      verType,
		Code:      c,
		ExpiresAt: time.Now().Add(s.codeTTL).Unix(),
	}
	if err := s.verification.Put(ctx, v); err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, subject, bodyPrefix+c)
}

func (s *service) consumeCode(ctx context.Context, userID, verType, c string) error {
	v, err := s.verification.Get(ctx, userID, verType)
	if err != nil {
		return fmt.Errorf("code not found: %w", domain.ErrUnauthorized)
	}
	if v.Code != c {
		return fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if v.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("code expired: %w", domain.ErrUnauthorized)
	}
	if err := s.verification.Delete(ctx, userID, verType); err != nil {
		slog.Warn("auth: failed to delete verification code", "user_id", userID, "err", err)
	}
	return nil
}
