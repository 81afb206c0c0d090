package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: tournament 3", services.ErrNotFound), want: http.StatusNotFound},
		{err: services.ErrDrawNotAllowed, want: http.StatusUnprocessableEntity},
		{err: services.ErrTeamNotEligible, want: http.StatusUnprocessableEntity},
		{err: services.ErrAlreadyCompleted, want: http.StatusConflict},
		{err: services.ErrIntegrityConflict, want: http.StatusConflict},
		{err: services.ErrCapacity, want: http.StatusConflict},
		{err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		TeamID int `json:"team_id"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"team_id": 4}`},
		{name: "empty", body: ``, wantErr: "must not be empty"},
		{name: "unknown field", body: `{"team": 4}`, wantErr: "unknown key"},
		{name: "wrong type", body: `{"team_id": "x"}`, wantErr: "incorrect JSON type"},
		{name: "two values", body: `{"team_id": 1}{"team_id": 2}`, wantErr: "single JSON value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, dst.TeamID)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://scores.example"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req), "same-origin requests carry no Origin header")

	req.Header.Set("Origin", "https://scores.example")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
