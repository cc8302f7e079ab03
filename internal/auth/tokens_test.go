package auth

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRolesAcceptArrayOrCommaString(t *testing.T) {
	var fromArray, fromString, fromOther struct {
		Roles Roles `json:"roles"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"roles":["Admin","accountant"]}`), &fromArray))
	require.NoError(t, json.Unmarshal([]byte(`{"roles":"admin, Auditor,,admin"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"roles":42}`), &fromOther))

	require.Equal(t, Roles{"admin", "accountant"}, fromArray.Roles)
	require.Equal(t, Roles{"admin", "auditor"}, fromString.Roles)
	require.Empty(t, fromOther.Roles)
}

func TestTokensExpire(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret", "backoffice", time.Hour).WithNow(func() time.Time { return now })
	raw, expires, err := tokens.Issue(User{ID: 5, Roles: []string{"auditor"}})
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), expires)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	require.False(t, claims.Principal().IsAdmin())
	require.Equal(t, int64(5), claims.Principal().UserID)

	now = now.Add(2 * time.Hour)
	_, err = tokens.Parse(raw)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokensCheckIssuer(t *testing.T) {
	raw, _, err := NewTokens("secret", "elsewhere", time.Hour).Issue(User{ID: 1})
	require.NoError(t, err)

	_, err = NewTokens("secret", "backoffice", time.Hour).Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeUnverifiedReadsClaims(t *testing.T) {
	raw, _, err := NewTokens("secret", "", time.Hour).Issue(User{ID: 3, Email: "x@bank.hn", Roles: []string{"admin"}})
	require.NoError(t, err)

	claims, err := DecodeUnverified(raw)
	require.NoError(t, err)
	require.Equal(t, "x@bank.hn", claims.Email)
	require.True(t, claims.Principal().IsAdmin())

	_, err = DecodeUnverified("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
