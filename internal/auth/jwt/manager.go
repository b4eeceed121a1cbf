package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/config"
	apperrors "github.com/lumigente/lumigente-backend/pkg/errors"
)

// Claims carries the employee descriptor issued by the login service.
// Organizational fields are a snapshot at login time; services reload the
// account row when they need fresh data.
type Claims struct {
	jwt.RegisteredClaims
	UserID                int64  `json:"user_id"`
	RegistrationNumber    string `json:"registration_number,omitempty"`
	NationalID            string `json:"national_id,omitempty"`
	Name                  string `json:"name"`
	Role                  string `json:"role"`
	DepartmentCode        string `json:"department_code,omitempty"`
	DepartmentDescription string `json:"department_description,omitempty"`
	Branch                string `json:"branch,omitempty"`
}

// Subject converts the token snapshot into a hierarchy subject
func (c *Claims) Subject() domain.Subject {
	return domain.Subject{
		UserID:                c.UserID,
		RegistrationNumber:    c.RegistrationNumber,
		NationalID:            c.NationalID,
		Name:                  c.Name,
		Role:                  c.Role,
		DepartmentCode:        c.DepartmentCode,
		DepartmentDescription: c.DepartmentDescription,
		Branch:                c.Branch,
	}
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// UserInfo contains user information for token generation
type UserInfo struct {
	ID                    int64
	RegistrationNumber    string
	NationalID            string
	Name                  string
	Role                  string
	DepartmentCode        string
	DepartmentDescription string
	Branch                string
}

// GenerateAccessToken signs a short-lived HS256 access token.
// Production tokens come from the login service; this is used by the operator CLI and tests.
func (m *Manager) GenerateAccessToken(user *UserInfo) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.AccessExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:                user.ID,
		RegistrationNumber:    user.RegistrationNumber,
		NationalID:            user.NationalID,
		Name:                  user.Name,
		Role:                  user.Role,
		DepartmentCode:        user.DepartmentCode,
		DepartmentDescription: user.DepartmentDescription,
		Branch:                user.Branch,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, apperrors.TokenInvalid()
	}

	return claims, nil
}

// GetTokenExpiry returns the access token expiry duration
func (m *Manager) GetTokenExpiry() time.Duration {
	return m.config.AccessExpiry
}
