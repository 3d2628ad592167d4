package user

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/academia/core"
)

func Test_checkPassword(t *testing.T) {
	LoadCommonPasswords(nil)

	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Zq7#vL", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Zq7# vLm9pW", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "3141592653", want: pwdNotAllNumTag},
		{name: "similar to email", pwd: "adaexample", attrs: []string{"Ada", "ada@example.com"}, want: pwdAttrSimTag},
		{name: "similar to name", pwd: "AdaLovelace", attrs: []string{"Ada Lovelace"}, want: pwdAttrSimTag},
		{name: "common", pwd: "Password123", want: pwdNoCommonTag},
		{name: "common (case insensitive)", pwd: "QWERTYUIOP", want: pwdNoCommonTag},
		{name: "empty attrs are skipped", pwd: "Zq7#vLm9pW", attrs: []string{"", ""}},
		{name: "valid", pwd: "Zq7#vLm9pW", attrs: []string{"Ada", "ada@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPassword(tt.pwd, tt.attrs...))
		})
	}
}

func Test_validatePassword(t *testing.T) {
	LoadCommonPasswords(nil)

	err := validatePassword("short")
	var vErr *core.ValidationError
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, pwdMinLenText, vErr.Error())
		assert.Equal(t, []core.FieldError{{Field: "password", Error: pwdMinLenText}}, vErr.Fields)
	}

	assert.NoError(t, validatePassword("Zq7#vLm9pW", "Ada"))
}
