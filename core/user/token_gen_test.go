package user

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestMakeParseTokenKey(t *testing.T) {
	secret := []byte("secret")
	usr := User{ID: 42, Email: "t@test.test", Role: RoleStudent}

	validKey, err := makeTokenKey(usr, "Academia", secret)
	if err != nil {
		t.Fatalf("makeTokenKey() failed: %v", err)
	}
	otherSecretKey, err := makeTokenKey(usr, "Academia", []byte("other"))
	if err != nil {
		t.Fatalf("makeTokenKey() failed: %v", err)
	}
	noneKey, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "42"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}
	badSubjectKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "lol"}).
		SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}

	tests := []struct {
		name    string
		key     string
		wantID  int64
		wantErr error
	}{
		{name: "no key", wantErr: ErrInvalidToken},
		{name: "garbage", key: "lmaooolol", wantErr: ErrInvalidToken},
		{name: "wrong secret", key: otherSecretKey, wantErr: ErrInvalidToken},
		{name: "unsigned", key: noneKey, wantErr: ErrInvalidToken},
		{name: "non-numeric subject", key: badSubjectKey, wantErr: ErrInvalidToken},
		{name: "valid key", key: validKey, wantID: usr.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseTokenKey(tt.key, secret)
			if err != tt.wantErr {
				t.Errorf("parseTokenKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("parseTokenKey() id = %v, want %v", id, tt.wantID)
			}
		})
	}
}

func TestMakeTokenKey_unique(t *testing.T) {
	usr := User{ID: 1}
	k1, _ := makeTokenKey(usr, "Academia", []byte("secret"))
	k2, _ := makeTokenKey(usr, "Academia", []byte("secret"))
	if k1 == k2 {
		t.Error("makeTokenKey() returned the same key twice")
	}
}
