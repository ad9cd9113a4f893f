package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
)

func TestPanelService_Login(t *testing.T) {
	svc := NewPanelService("1234", "test-secret", time.Hour)

	token, session, err := svc.Login("1234", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Len(t, session.ID, 12)
	assert.Equal(t, "10.0.0.1", session.IP)
	assert.NotEqual(t, token, session.TokenHash)

	got, ok := svc.ValidateSession(token)
	require.True(t, ok)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, 1, svc.Count())
}

func TestPanelService_LoginErrors(t *testing.T) {
	tests := []struct {
		name string
		pin  string
		try  string
		code apperrors.ErrorCode
	}{
		{"disabled", "", "1234", apperrors.ErrCodeForbidden},
		{"missing pin", "1234", "", apperrors.ErrCodeMissingRequired},
		{"wrong pin", "1234", "0000", apperrors.ErrCodeInvalidPIN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPanelService(tt.pin, "secret", time.Hour)
			_, _, err := svc.Login(tt.try, "")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
			assert.Zero(t, svc.Count())
		})
	}
}

func TestPanelService_BcryptPIN(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("4321"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewPanelService(string(hash), "secret", time.Hour)

	_, _, err = svc.Login("4321", "")
	assert.NoError(t, err)
	_, _, err = svc.Login(string(hash), "")
	assert.Error(t, err)
}

func TestPanelService_Logout(t *testing.T) {
	svc := NewPanelService("1234", "secret", time.Hour)
	token, _, err := svc.Login("1234", "")
	require.NoError(t, err)

	svc.Logout(token)
	_, ok := svc.ValidateSession(token)
	assert.False(t, ok)

	_, ok = svc.ValidateSession("")
	assert.False(t, ok)
}

func TestPanelService_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := NewPanelService("1234", "secret", time.Hour)
	svc.now = func() time.Time { return now }

	first, _, err := svc.Login("1234", "")
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)
	second, _, err := svc.Login("1234", "")
	require.NoError(t, err)

	now = now.Add(40 * time.Minute)
	_, ok := svc.ValidateSession(first)
	assert.False(t, ok, "expired session must be rejected")
	_, ok = svc.ValidateSession(second)
	assert.True(t, ok)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, svc.DeleteExpired())
	assert.Zero(t, svc.Count())
}
