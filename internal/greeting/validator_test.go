package greeting

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() GreetingRequest {
	return GreetingRequest{
		To:      "test",
		From:    "testa",
		Heading: "Merry Christmas",
		Message: "Happy new year",
		Created: time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC),
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*GreetingRequest)
		wantFields []string
	}{
		{
			name:   "valid",
			mutate: func(*GreetingRequest) {},
		},
		{
			name:   "bounds are inclusive",
			mutate: func(r *GreetingRequest) { r.To = strings.Repeat("x", 20); r.Message = strings.Repeat("m", 50) },
		},
		{
			name:   "multibyte characters counted once",
			mutate: func(r *GreetingRequest) { r.From = strings.Repeat("é", 20) },
		},
		{
			name:       "to too long",
			mutate:     func(r *GreetingRequest) { r.To = strings.Repeat("t", 34) },
			wantFields: []string{"to"},
		},
		{
			name:       "empty from",
			mutate:     func(r *GreetingRequest) { r.From = "" },
			wantFields: []string{"from"},
		},
		{
			name:       "heading and message too long",
			mutate:     func(r *GreetingRequest) { r.Heading = strings.Repeat("h", 51); r.Message = strings.Repeat("m", 51) },
			wantFields: []string{"heading", "message"},
		},
		{
			name:       "missing created",
			mutate:     func(r *GreetingRequest) { r.Created = time.Time{} },
			wantFields: []string{"created"},
		},
		{
			name:       "external reference too long",
			mutate:     func(r *GreetingRequest) { r.ExternalReference = strings.Repeat("r", 37) },
			wantFields: []string{"externalReference"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := ValidateRequest(req)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Len(t, validationErr.Fields, len(tt.wantFields))
			for _, field := range tt.wantFields {
				assert.True(t, validationErr.HasField(field), "expected %s to be reported", field)
				assert.Contains(t, err.Error(), field)
			}
		})
	}
}

func TestValidateRequest_ReportsConstraint(t *testing.T) {
	req := validRequest()
	req.To = strings.Repeat("t", 34)

	var validationErr *ValidationError
	require.ErrorAs(t, ValidateRequest(req), &validationErr)
	assert.Equal(t, FieldError{Field: "to", Constraint: "max", Param: "20"}, validationErr.Fields[0])
}
