package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionSettings struct {
	Prefix      string `validate:"required"`
	Concurrency int    `validate:"gte=1,lte=256"`
	Backend     string `validate:"oneof=redis etcd memory"`
}

func TestValidStruct(t *testing.T) {
	v := New()
	err := v.Struct(&sessionSettings{Prefix: "session:", Concurrency: 8, Backend: "redis"})
	assert.NoError(t, err)
}

func TestValidationErrors(t *testing.T) {
	err := Validate.Struct(&sessionSettings{Concurrency: 0, Backend: "mysql"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve *ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 3)

	tags := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		tags[f.Field] = f.Tag
		assert.NotEmpty(t, f.Message)
	}
	assert.Equal(t, "required", tags["sessionSettings.Prefix"])
	assert.Equal(t, "gte", tags["sessionSettings.Concurrency"])
	assert.Equal(t, "oneof", tags["sessionSettings.Backend"])
}

func TestNilTarget(t *testing.T) {
	assert.Error(t, New().Struct(nil))
	assert.False(t, IsValidationError(New().Struct(nil)))
}
