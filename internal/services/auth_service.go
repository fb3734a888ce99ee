package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the token subject of the single site administrator.
const AdminSubject = "admin"

type TokenSigner func(subject string, ttl time.Duration) (string, error)

// AuthService checks the administrator password against a bcrypt hash and
// issues session tokens.
type AuthService struct {
	passHash  []byte
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token     string
	Subject   string
	ExpiresIn time.Duration
}

func NewAuthService(passHash string, signer TokenSigner, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{passHash: []byte(passHash), signToken: signer, tokenTTL: ttl}
}

// HashPassword returns the bcrypt hash stored in CLUBSITE_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", NewInvalidError("password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) Login(password string) (*AuthResult, error) {
	if strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("password required")
	}
	if len(s.passHash) == 0 {
		return nil, NewUnauthorizedError("admin login disabled")
	}
	if err := bcrypt.CompareHashAndPassword(s.passHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewInternalError("token signer not configured")
	}
	token, err := s.signToken(AdminSubject, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Subject: AdminSubject, ExpiresIn: s.tokenTTL}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
