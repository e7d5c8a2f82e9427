package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/port"
)

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// Claims represents the JWT claims with company context. CompanyID is nil
// for super admins.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID       `json:"uid"`
	CompanyID *uuid.UUID      `json:"cid,omitempty"`
	Role      domain.UserRole `json:"role"`
	Email     string          `json:"email"`
}

// Actor converts the claims into the caller identity services consume.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{UserID: c.UserID, CompanyID: c.CompanyID, Role: c.Role, Email: c.Email}
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginInput is the DTO for login requests.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshInput is the DTO for token refresh requests.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResult bundles the issued tokens with the user they belong to.
type LoginResult struct {
	TokenPair
	User *domain.User `json:"user"`
}

// AuthService defines the authentication contract.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(tokenString string) (*Claims, error)
	Profile(ctx context.Context, actor domain.Actor) (*domain.User, error)
}

type authService struct {
	userRepo    port.UserRepository
	companyRepo port.CompanyRepository
	cfg         config.JWTConfig
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(
	userRepo port.UserRepository,
	companyRepo port.CompanyRepository,
	cfg config.JWTConfig,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		cfg:         cfg,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if err := s.checkCompany(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{TokenPair: *pair, User: user}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.validateTokenString(refreshToken, audienceRefresh)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, nil, claims.UserID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if err := s.checkCompany(ctx, user); err != nil {
		return nil, err
	}

	return s.generateTokenPair(user)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	return s.validateTokenString(tokenString, audienceAccess)
}

func (s *authService) Profile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, actor.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) checkCompany(ctx context.Context, user *domain.User) error {
	if user.CompanyID == nil {
		return nil
	}
	company, err := s.companyRepo.GetByID(ctx, *user.CompanyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCompanyInactive
		}
		return fmt.Errorf("auth.checkCompany: %w", err)
	}
	if !company.IsActive {
		return domain.ErrCompanyInactive
	}
	return nil
}

func (s *authService) generateTokenPair(user *domain.User) (*TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(s.cfg.AccessTokenExpiry)

	accessToken, err := s.sign(user, now, accessExpiry, audienceAccess)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refreshToken, err := s.sign(user, now, now.Add(s.cfg.RefreshTokenExpiry), audienceRefresh)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiry,
	}, nil
}

func (s *authService) sign(user *domain.User, now, expiry time.Time, audience string) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{audience},
		},
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		Email:     user.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *authService) validateTokenString(tokenString, audience string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	aud, _ := claims.GetAudience()
	if !slices.Contains(aud, audience) {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
