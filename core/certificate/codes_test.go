package certificate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeVerifyCode(t *testing.T) {
	secret := []byte("secret")
	cert := Certificate{
		ID:         "8a0c2b64-8d59-4c59-9c8f-0c4a1b2f6b55",
		UserID:     "u1",
		CourseID:   "c1",
		DateIssued: time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC),
	}
	validCode := makeCode(cert, secret)

	id, err := parseCode(validCode)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, id)

	other := cert
	other.UserID = "u2"
	otherCode := makeCode(other, secret)

	tests := []struct {
		name    string
		cert    Certificate
		code    string
		secret  []byte
		wantErr error
	}{
		{name: "no code", cert: cert, secret: secret, wantErr: errInvalidCode},
		{name: "no signature", cert: cert, code: "OGEwYzJi", secret: secret, wantErr: errInvalidCode},
		{name: "tampered signature", cert: cert, code: validCode[:len(validCode)-2] + "xx", secret: secret, wantErr: errInvalidCode},
		{name: "code of another certificate", cert: cert, code: otherCode, secret: secret, wantErr: errInvalidCode},
		{name: "other secret", cert: cert, code: validCode, secret: []byte("lol"), wantErr: errInvalidCode},
		{name: "valid code", cert: cert, code: validCode, secret: secret},
		{name: "valid code, padded", cert: cert, code: "  " + validCode + "\n", secret: secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, verifyCode(tt.cert, tt.code, tt.secret))
		})
	}
}

func Test_parseCode(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "empty", code: ""},
		{name: "no separator", code: "lmaooolol"},
		{name: "empty id", code: ".sig"},
		{name: "invalid base64", code: "@@@.sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCode(tt.code)
			assert.Equal(t, errInvalidCode, err)
		})
	}
}
