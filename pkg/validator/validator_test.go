package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncInput struct {
	Room   string  `json:"room" validate:"required,max=128"`
	Action string  `json:"action" validate:"oneof=play pause"`
	Time   float64 `json:"time" validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		input  syncInput
		fields []string
		codes  []string
	}{
		{name: "valid", input: syncInput{Room: "r1", Action: "play", Time: 1.5}},
		{name: "missing room", input: syncInput{Action: "pause"}, fields: []string{"room"}, codes: []string{"REQUIRED"}},
		{name: "bad action and time", input: syncInput{Room: "r1", Action: "stop", Time: -1}, fields: []string{"action", "time"}, codes: []string{"ONEOF", "GTE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, ok := v.Validate(tt.input)
			if tt.fields == nil {
				require.True(t, ok)
				assert.Empty(t, errs)
				return
			}

			require.False(t, ok)
			fields := make([]string, 0, len(errs))
			codes := make([]string, 0, len(errs))
			for _, e := range errs {
				fields = append(fields, e.Field)
				codes = append(codes, e.Code)
				assert.NotEmpty(t, e.Message)
			}
			assert.Equal(t, tt.fields, fields)
			assert.Equal(t, tt.codes, codes)
		})
	}
}
