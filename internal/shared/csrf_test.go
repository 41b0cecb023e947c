package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSRFTokenLifecycle(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := &Session{ID: "abc"}

	assert.ErrorIs(t, m.VerifyToken(sess, "anything"), ErrCSRFTokenMissing)

	token := m.EnsureToken(sess)
	assert.NotEmpty(t, token)
	assert.Equal(t, token, m.EnsureToken(sess), "token is stable within a session")

	assert.NoError(t, m.VerifyToken(sess, token))
	assert.ErrorIs(t, m.VerifyToken(sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(nil, token), ErrCSRFTokenMissing)
}

func TestCSRFTokensDifferAcrossSessions(t *testing.T) {
	m := NewCSRFManager("secret")
	a := m.EnsureToken(&Session{ID: "one"})
	b := m.EnsureToken(&Session{ID: "two"})
	assert.NotEqual(t, a, b)
}
