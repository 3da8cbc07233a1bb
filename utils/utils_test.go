package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("s3cret", "Eng@Example.com", true, time.Minute)
	require.NoError(t, err)

	claims, err := ValidateJWT("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "eng@example.com", claims.Email)
	assert.True(t, claims.Admin)

	_, err = ValidateJWT("other", token)
	assert.Error(t, err)
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWT("s3cret", "a@b.c", false, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT("s3cret", token)
	assert.Error(t, err)
}

func TestHandleAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", NewAppError(http.StatusConflict, ErrCodeRowVersionConflict, "stale", nil), http.StatusConflict, ErrCodeRowVersionConflict},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAppError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PRIVILEGED_EMAILS", " lead@firm.ca , boss@firm.ca,")
	t.Setenv("AWS_TIMEOUT", "5s")
	t.Setenv("FLATTEN_MODE", "")
	t.Setenv("REPORT_RETENTION_DAYS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.AWSTimeout)
	assert.Equal(t, FlattenLocal, cfg.FlattenMode)
	assert.Equal(t, []string{"lead@firm.ca", "boss@firm.ca"}, cfg.PrivilegedEmails)
	assert.True(t, cfg.IsPrivileged("LEAD@firm.ca"))
	assert.False(t, cfg.IsPrivileged("intern@firm.ca"))
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FLATTEN_MODE", "remote")
	t.Setenv("FLATTEN_URL", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("FLATTEN_MODE", "local")
	t.Setenv("PORT", "http")
	_, err = LoadConfig()
	assert.Error(t, err)
}
