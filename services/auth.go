package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadPassword is returned when a login attempt carries the wrong board
// password.
var ErrBadPassword = errors.New("invalid password")

// AuthService guards the mutation endpoints behind a shared board
// password. When no password is configured the board is open and the
// middleware passes everything through.
type AuthService struct {
	password  string
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(password, jwtSecret string) *AuthService {
	return &AuthService{
		password:  password,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  7 * 24 * time.Hour,
	}
}

// Enabled reports whether a board password is configured.
func (s *AuthService) Enabled() bool {
	return s.password != ""
}

// Login checks the board password and mints a session token.
func (s *AuthService) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return "", ErrBadPassword
	}
	return s.CreateJWT()
}

// CreateJWT generates a signed session token.
func (s *AuthService) CreateJWT() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "board",
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyJWT checks a session token.
func (s *AuthService) VerifyJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
