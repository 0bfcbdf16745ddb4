package certificate

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	salt = []byte("coursehub.core.certificate.codes")

	errInvalidCode = errors.New("invalid code")
)

const sigLen = 16 // bytes of the HMAC kept in a code

// makeCode generates the verification code printed on a Certificate: <base64 ID>.<signature>.
func makeCode(cert Certificate, secret []byte) string {
	uid := base64.RawURLEncoding.EncodeToString([]byte(cert.ID))
	return uid + "." + sign(hashValue(cert), secret)
}

// parseCode extracts the certificate ID from a verification code.
func parseCode(code string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(code), ".", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", errInvalidCode
	}
	idBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", errInvalidCode
	}
	return string(idBytes), nil
}

// verifyCode checks that code was generated for cert and has not been tampered with.
func verifyCode(cert Certificate, code string, secret []byte) error {
	if code == "" {
		return errInvalidCode
	}
	want := makeCode(cert, secret)
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.TrimSpace(code))) == 0 {
		return errInvalidCode
	}
	return nil
}

func sign(val, secret []byte) string {
	keyData := make([]byte, 0, len(salt)+len(secret))
	keyData = append(keyData, salt...)
	keyData = append(keyData, secret...)
	key := sha256.Sum256(keyData)

	h := hmac.New(sha256.New, key[:])
	_, _ = h.Write(val)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:sigLen])
}

func hashValue(cert Certificate) []byte {
	var val bytes.Buffer
	val.WriteString(cert.ID)
	val.WriteString(cert.UserID)
	val.WriteString(cert.CourseID)
	val.WriteString(strconv.FormatInt(cert.DateIssued.UTC().Unix(), 10))
	return val.Bytes()
}
