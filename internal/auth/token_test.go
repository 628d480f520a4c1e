package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LoginAndVerify(t *testing.T) {
	m, err := NewManager("s3cret", "signing-key", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := m.Login("s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.NotEmpty(t, claims.ID, "tokens carry a unique id")
}

func TestManager_TokensAreUnique(t *testing.T) {
	m, err := NewManager("s3cret", "k", time.Hour)
	require.NoError(t, err)

	a, _, err := m.Issue()
	require.NoError(t, err)
	b, _, err := m.Issue()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestManager_Login_WrongSecret(t *testing.T) {
	m, err := NewManager("s3cret", "k", time.Hour)
	require.NoError(t, err)

	_, _, err = m.Login("guess")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, _, err = m.Login("")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestManager_Login_DisabledWithoutSecret(t *testing.T) {
	m, err := NewManager("", "k", time.Hour)
	require.NoError(t, err)

	assert.False(t, m.Enabled())
	_, _, err = m.Login("")
	assert.True(t, errors.Is(err, ErrInvalidCredentials), "empty secret must never log in")
}

func TestManager_Verify_Expired(t *testing.T) {
	m, err := NewManager("s3cret", "k", time.Minute)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue()
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_Verify_OtherKey(t *testing.T) {
	issuerMgr, err := NewManager("s3cret", "key-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewManager("s3cret", "key-b", time.Hour)
	require.NoError(t, err)

	token, _, err := issuerMgr.Issue()
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_RandomKeyPerInstance(t *testing.T) {
	a, err := NewManager("s3cret", "", time.Hour)
	require.NoError(t, err)
	b, err := NewManager("s3cret", "", time.Hour)
	require.NoError(t, err)

	token, _, err := a.Issue()
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.NoError(t, err)
	_, err = b.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_Verify_RejectsGarbageAndNone(t *testing.T) {
	m, err := NewManager("s3cret", "k", time.Hour)
	require.NoError(t, err)

	_, err = m.Verify("")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = m.Verify("not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "credicambios",
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(unsigned)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_Verify_WrongSubject(t *testing.T) {
	m, err := NewManager("s3cret", "k", time.Hour)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "credicambios",
		Subject:   "cajero",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m, err := NewManager("s3cret", "k", 0)
	require.NoError(t, err)

	_, expiresAt, err := m.Issue()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), expiresAt, 5*time.Second)
	assert.Equal(t, 3, len(strings.Split(mustIssue(t, m), ".")))
}

func mustIssue(t *testing.T, m *Manager) string {
	t.Helper()
	token, _, err := m.Issue()
	require.NoError(t, err)
	return token
}
