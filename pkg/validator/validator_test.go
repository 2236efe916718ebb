package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(&sampleRequest{Name: "Ann", Email: "ann@x.com", Password: "pw123456"})
	require.NoError(t, err)
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&sampleRequest{Email: "not-an-email", Password: "pw"})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 3)

	fields := make(map[string]string, len(ve))
	for _, failure := range ve {
		fields[failure.Field] = failure.Tag
	}
	require.Equal(t, "required", fields["name"])
	require.Equal(t, "email", fields["email"])
	require.Equal(t, "min", fields["password"])
}

func TestValidationErrorsMessage(t *testing.T) {
	err := ValidationErrors{
		{Field: "password", Tag: "min", Param: "6"},
		{Field: "name", Tag: "required"},
	}
	require.Equal(t, "password failed on min=6; name failed on required", err.Error())

	require.Equal(t, "validation failed", ValidationErrors{}.Error())
}
