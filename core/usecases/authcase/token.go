package authcase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// claims is the bearer token payload. Subject is the user id and SessionID
// names the session row that backs the token.
type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (u *Usecase) signToken(userID, sessionID string, expiresAt time.Time) (string, error) {
	now := u.opts.now()
	c := claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    u.opts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(u.opts.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// parseToken verifies the signature, issuer and expiry of token. Time claims
// are checked against the use case clock.
func (u *Usecase) parseToken(token string) (claims, error) {
	var c claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return u.opts.secret, nil
	})
	if err != nil {
		return claims{}, err
	}

	if !c.VerifyIssuer(u.opts.issuer, true) {
		return claims{}, errors.New("unexpected issuer")
	}
	if !c.VerifyExpiresAt(u.opts.now(), true) {
		return claims{}, errors.New("token expired")
	}
	if c.Subject == "" || c.SessionID == "" {
		return claims{}, errors.New("token missing subject or session")
	}
	return c, nil
}
