package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	"github.com/golang-jwt/jwt/v5"
)

// Credential states. A provisioned or bulk-created user starts in
// PendingFirstLogin and moves to Active once the password is replaced.
type CredentialState string

const (
	StatePendingFirstLogin CredentialState = "pending_first_login"
	StateActive            CredentialState = "active"
)

func StateOf(u *identity.User) CredentialState {
	if u.PasswordResetRequired {
		return StatePendingFirstLogin
	}
	return StateActive
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is what a successful authentication returns. Clients use
// PasswordResetRequired to route the user into the change-password flow
// before anything else.
type LoginResult struct {
	Tokens                AuthTokens `json:"tokens"`
	UserID                int64      `json:"user_id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"full_name"`
	Role                  string     `json:"role"`
	PasswordResetRequired bool       `json:"password_reset_required"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return j.generate(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return j.generate(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) generate(userID, email string, ttl time.Duration, secret []byte) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns its claims.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if claims, ok := token.Claims.(*Claims); ok {
			// Long-dated tokens were signed with the refresh secret.
			if time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
