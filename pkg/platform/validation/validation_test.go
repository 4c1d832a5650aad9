package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docverify/pkg/domain-errors"
)

type sample struct {
	Name    string `json:"name" validate:"required,notblank,min=2"`
	DOB     string `json:"dateOfBirth" validate:"required,isodate"`
	Gender  string `json:"gender" validate:"required,oneof=Male Female Other"`
	Aadhaar string `json:"aadhaarNumber" validate:"omitempty,aadhaar"`
}

func TestValidate(t *testing.T) {
	valid := sample{Name: "Ramesh Kumar", DOB: "1985-08-15", Gender: "Male"}

	t.Run("accepts a valid struct", func(t *testing.T) {
		assert.NoError(t, Validate(valid))
	})

	cases := []struct {
		name    string
		mutate  func(*sample)
		message string
	}{
		{"blank name", func(s *sample) { s.Name = "   " }, "name must not be blank"},
		{"short name", func(s *sample) { s.Name = "R" }, "name must be at least 2 characters"},
		{"display date", func(s *sample) { s.DOB = "15/08/1985" }, "dateOfBirth must be a date in YYYY-MM-DD format"},
		{"impossible date", func(s *sample) { s.DOB = "1985-02-30" }, "dateOfBirth must be a date in YYYY-MM-DD format"},
		{"gender", func(s *sample) { s.Gender = "male" }, "gender must be one of [Male Female Other]"},
		{"aadhaar", func(s *sample) { s.Aadhaar = "1234 5678 9012" }, "aadhaarNumber must be exactly 12 digits"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := Validate(s)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tc.message, err.Error())
		})
	}
}
