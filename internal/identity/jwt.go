package identity

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/middleware/auth"
)

// RoleReviewer in the roles claim allows deciding verification cases.
const RoleReviewer = "reviewer"

// Claims are the access token claims the service reads.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider validates HS256 access tokens issued by the marketplace.
type JWTProvider struct {
	signingKey []byte
	issuer     string
}

func NewJWTProvider(signingKey, issuer string) *JWTProvider {
	return &JWTProvider{signingKey: []byte(signingKey), issuer: issuer}
}

// Issue signs a token. The marketplace issues tokens in production; this is
// used by tests and local tooling.
func (p *JWTProvider) Issue(user id.UserID, roles []string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.String(),
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    p.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(p.signingKey)
}

func (p *JWTProvider) Resolve(_ context.Context, creds auth.Credentials) (*auth.Identity, error) {
	if creds.BearerToken == "" {
		return nil, ErrNotApplicable
	}
	claims, err := p.validate(creds.BearerToken)
	if err != nil {
		return nil, err
	}
	user, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token carries no user")
	}
	return &auth.Identity{
		UserID:   user,
		Reviewer: slices.Contains(claims.Roles, RoleReviewer),
		Source:   "jwt",
	}, nil
}

func (p *JWTProvider) validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return p.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
