package user

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/lms/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newValidate() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func TestLoadCommonPasswords(t *testing.T) {
	LoadCommonPasswords(nopLogger{})
	require.NotEmpty(t, commonPasswords)
	assert.True(t, core.ContainsString(commonPasswords, "p@ssw0rd1"))
}

func Test_validatePassword(t *testing.T) {
	LoadCommonPasswords(nopLogger{})
	validate, _ := newValidate()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefgh1", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefgh1!", wantTag: pwdComplexityTag},
		{name: "similar to name", pwd: "Gracehopp3r!", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd1", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Vx7#qLm92!z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				FullName:        "Grace Hopper",
				Email:           "grace@test.dev",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, vErrs, 1)
			assert.Equal(t, "password", vErrs[0].Field())
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestNewUser_Validate_requiredFields(t *testing.T) {
	validate, translator := newValidate()

	nu := NewUser{FullName: "  ", Email: "not-an-email", Role: "ROOT"}
	err := nu.Validate(context.Background(), validate, nil)
	require.Error(t, err)

	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	fields := core.TranslateValidationErrors(vErrs, translator)
	assert.Equal(t, "this field is required", fields["fullName"])
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "role")
	assert.Equal(t, "this field is required", fields["password"])
}

func TestUser_Password(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("Vx7#qLm92!z"))
	assert.NoError(t, usr.CheckPassword("Vx7#qLm92!z"))
	assert.Error(t, usr.CheckPassword("nope"))
}
