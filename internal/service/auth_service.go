package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/notify"
	"fieldops/sales-crm/internal/otp"
	"fieldops/sales-crm/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid credentials")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrUnknownPhone         = errors.New("no account registered for this phone number")
	ErrOTPDelivery          = errors.New("failed to deliver one-time code")
)

// AuthService handles registration, password login and phone-code login.
type AuthService interface {
	Register(ctx context.Context, name, email, phone, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (token string, user *domain.User, err error)
	GetJWTSecret() string
}

type authService struct {
	userRepo      repository.UserRepository
	otpStore      otp.Store
	sender        *notify.Chain
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, otpStore otp.Store, sender *notify.Chain, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1
	}
	return &authService{
		userRepo:      userRepo,
		otpStore:      otpStore,
		sender:        sender,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, name, email, phone, password string, role domain.Role) (*domain.User, error) {
	if name == "" || email == "" || password == "" || role == "" {
		return nil, errors.New("name, email, password, and role cannot be empty")
	}

	// Check if user already exists
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashedPassword),
		Role:         role,
		// ID, CreatedAt, UpdatedAt are set by the repository layer
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	// Remove password hash before returning
	user.PasswordHash = ""
	return user, nil
}

// Login handles email/password authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	if email == "" || password == "" {
		err = errors.New("email and password cannot be empty")
		return
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
			return
		}
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		// Password mismatch maps to a general auth failure
		err = ErrAuthenticationFailed
		user = nil
		return
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// RequestOTP issues a one-time login code for the phone number and delivers
// it over the configured messaging channels.
func (s *authService) RequestOTP(ctx context.Context, phone string) error {
	if phone == "" {
		return errors.New("phone number cannot be empty")
	}

	// Only issue codes for registered accounts.
	_, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownPhone
		}
		return err
	}

	code, err := s.otpStore.Issue(ctx, phone)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Your login code is %s. It expires shortly.", code)
	if err := s.sender.Send(ctx, phone, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

// VerifyOTP exchanges a delivered code for a JWT. Codes are single-use.
func (s *authService) VerifyOTP(ctx context.Context, phone, code string) (token string, user *domain.User, err error) {
	if phone == "" || code == "" {
		err = errors.New("phone and code cannot be empty")
		return
	}

	if err = s.otpStore.Verify(ctx, phone, code); err != nil {
		if errors.Is(err, otp.ErrCodeMismatch) || errors.Is(err, otp.ErrCodeExpired) {
			err = ErrAuthenticationFailed
		}
		return
	}

	user, err = s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
		}
		return
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sales-crm",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication.
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
