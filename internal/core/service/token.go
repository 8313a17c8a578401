package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

// TokenIssuer signs and verifies HS256 bearer tokens carrying the public
// principal projection.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type principalClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(p *domain.PrincipalView) (string, error) {
	now := t.now()
	claims := principalClaims{
		Username: p.Username,
		Role:     string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", domain.Unexpected("sign token", err)
	}
	return signed, nil
}

func (t *TokenIssuer) Verify(token string) (*domain.PrincipalView, error) {
	claims := &principalClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !tkn.Valid {
		return nil, domain.Authentication("invalid token")
	}
	role := domain.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, domain.Authentication("invalid token")
	}
	return &domain.PrincipalView{ID: claims.Subject, Username: claims.Username, Role: role}, nil
}
