package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("super-secret", 7*24*time.Hour)
	tok, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	subject, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}

func TestIssueSetsSevenDayExpiry(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("k", 7*24*time.Hour).WithClock(func() time.Time { return fixed })

	tok, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, "a@x.com", claims.Subject)
}

func TestParseExpired(t *testing.T) {
	t.Parallel()

	issued := time.Now().Add(-8 * 24 * time.Hour)
	old := NewIssuer("k", 7*24*time.Hour).WithClock(func() time.Time { return issued })
	tok, err := old.Issue("a@x.com")
	require.NoError(t, err)

	_, err = NewIssuer("k", 7*24*time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer("right-secret", time.Hour).Issue("a@x.com")
	require.NoError(t, err)

	_, err = NewIssuer("wrong-secret", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer("k", time.Hour).Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueEmptySubject(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer("k", time.Hour).Issue(" ")
	assert.Error(t, err)
}
