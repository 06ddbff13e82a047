package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

// Manager signs and verifies the two token kinds this core touches: the
// per-order capability token issued at checkout, and the user auth token
// issued elsewhere and only verified here.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

type orderClaims struct {
	Email string `json:"email"`
	ID    string `json:"id"`
	jwt.RegisteredClaims
}

type userClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueOrderToken binds {owner, order id} into a signed capability token.
// The token is time-unbound: it stays valid for the order's whole life
// and must be treated as a secret-bearing credential.
func (m *Manager) IssueOrderToken(ref domain.OrderRef) (string, error) {
	claims := orderClaims{
		Email: ref.Owner,
		ID:    ref.OrderID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign order token: %w", err)
	}
	return signed, nil
}

// VerifyOrderToken checks the signature and returns the order reference.
// Every failure mode collapses to ErrUnauthorized; callers never learn why
// a token was rejected.
func (m *Manager) VerifyOrderToken(tokenString string) (*domain.OrderRef, error) {
	var claims orderClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if claims.Email == "" || claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	return &domain.OrderRef{Owner: claims.Email, OrderID: claims.ID}, nil
}

// VerifyUserToken validates a user session token and returns its identity
// and role.
func (m *Manager) VerifyUserToken(tokenString string) (email, role string, err error) {
	var claims userClaims
	_, err = jwt.ParseWithClaims(tokenString, &claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", domain.ErrUnauthorized
	}
	if claims.Email == "" {
		return "", "", domain.ErrUnauthorized
	}

	return claims.Email, claims.Role, nil
}

// IssueUserToken exists for tests and local tooling; session issuance is
// owned by the auth service in production.
func (m *Manager) IssueUserToken(email, role string) (string, error) {
	claims := userClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign user token: %w", err)
	}
	return signed, nil
}

func (m *Manager) keyFunc(*jwt.Token) (interface{}, error) {
	return m.secret, nil
}
