package user

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	NowFunc = time.Now // mockable

	signingMethod = jwt.SigningMethodHS256

	// errors
	ErrInvalidToken = errors.New("invalid token")
)

// tokenClaims are carried by every token key. Keys do not expire: a key stays valid
// for as long as its row exists in the token store.
type tokenClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role,omitempty"`
}

// makeTokenKey generates a signed key for the given User.
func makeTokenKey(usr User, issuer string, secret []byte) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   issuer,
			Subject:  strconv.FormatInt(usr.ID, 10),
			IssuedAt: jwt.NewNumericDate(NowFunc()),
		},
		Role: usr.Role,
	}
	key, err := jwt.NewWithClaims(signingMethod, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return key, nil
}

// parseTokenKey checks the signature of key and returns the ID of the User it was issued to.
func parseTokenKey(key string, secret []byte) (int64, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(
		key, &claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
	)
	if err != nil {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
