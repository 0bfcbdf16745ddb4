package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	errGone := NewError(KindNotFound, "gone")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain", err: errors.New("lol"), want: 0},
		{name: "domain", err: errGone, want: KindNotFound},
		{name: "wrapped domain", err: errors.Wrap(errors.Wrap(errGone, "a"), "b"), want: KindNotFound},
		{name: "validation", err: NewValidationError(nil, FieldError{Field: "answers", Error: "this field is required"}), want: KindValidation},
		{name: "wrapped storage", err: errors.Wrap(NewStorageError(errors.New("conn reset"), "updating progress"), "marking lecture"), want: KindStorage},
		{name: "shutdown", err: NewShutdownError("bye"), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNewStorageError(t *testing.T) {
	assert.Nil(t, NewStorageError(nil, "op"))

	err := NewStorageError(errors.New("conn reset"), "updating progress")
	assert.EqualError(t, err, "updating progress: conn reset")
	assert.Equal(t, "StorageError", KindOf(err).String())
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "", ValidationError{}.Error())
	assert.Equal(t, "answers: this field is required",
		ValidationError{Fields: []FieldError{{Field: "answers", Error: "this field is required"}}}.Error())
	assert.Equal(t, "bad", ValidationError{Err: errors.New("bad")}.Error())
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("integrity"), "x")))
	assert.False(t, IsShutdown(errors.New("x")))
}
