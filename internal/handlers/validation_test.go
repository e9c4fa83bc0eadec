package handlers

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	username := strings.Repeat("u", 5000)

	tests := []struct {
		name      string
		req       LoginEventRequest
		wantField string
		wantMsg   string
	}{
		{"empty request", LoginEventRequest{}, "", ""},
		{"valid event id", LoginEventRequest{EventID: "3f2c1e58-4c1a-4b7e-9a55-0f6d3a9b2c11"}, "", ""},
		{"bad event id", LoginEventRequest{EventID: "1234"}, "event_id", "must be a valid UUID"},
		{"bad event id uppercase garbage", LoginEventRequest{EventID: "NOT-A-UUID"}, "event_id", "must be a valid UUID"},
		{"long fields accepted", LoginEventRequest{Username: &username, IPAddress: strings.Repeat("1", 5000), UserAgent: strings.Repeat("a", 50000)}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantField, fe.Field)
			assert.Equal(t, tt.wantMsg, fe.Message)
		})
	}
}
