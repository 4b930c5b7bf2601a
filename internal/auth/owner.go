package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"odil-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingSecret      = errors.New("JWT secret is not set")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid owner credentials")
	ErrOwnerDisabled      = errors.New("owner login is not configured")
)

const DefaultTokenTTL = 12 * time.Hour

type OwnerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Owner signs and verifies owner session tokens. There is one owner account;
// its bcrypt hash comes from configuration.
type Owner struct {
	secret       []byte
	passwordHash string
	ttl          time.Duration
	now          func() time.Time
}

func NewOwner(secret, passwordHash string, ttl time.Duration) *Owner {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Owner{
		secret:       []byte(secret),
		passwordHash: strings.TrimSpace(passwordHash),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Login checks the password and returns a signed token.
func (o *Owner) Login(password string) (string, time.Time, error) {
	if o.passwordHash == "" {
		return "", time.Time{}, ErrOwnerDisabled
	}
	if !CheckPasswordHash(password, o.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return o.GenerateJWT()
}

func (o *Owner) GenerateJWT() (string, time.Time, error) {
	if len(o.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}

	now := o.now()
	expires := now.Add(o.ttl)
	claims := OwnerClaims{
		Role: utils.RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   utils.RoleOwner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(o.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (o *Owner) ParseJWT(tokenStr string) (*OwnerClaims, error) {
	if len(o.secret) == 0 {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&OwnerClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return o.secret, nil
		},
		jwt.WithTimeFunc(o.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*OwnerClaims)
	if !ok || !token.Valid || claims.Role != utils.RoleOwner {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
