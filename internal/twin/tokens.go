package twin

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = time.Hour

var errBadToken = errors.New("invalid token")

// issuer mints and verifies the HS256 credentials handed out by the auth twin.
type issuer struct {
	secret []byte
	now    func() time.Time
}

func (i issuer) mint(u *user) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":                u.ID,
		"preferred_username": u.Login,
		"role":               u.Role,
		"iat":                now.Unix(),
		"exp":                now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// subject returns the user id of a valid token.
func (i issuer) subject(raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", errBadToken
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errBadToken
	}
	return sub, nil
}
