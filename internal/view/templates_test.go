package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octabox/octabox/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderShowsFlash(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/landing.html", TemplateData{
		Title: "OCTABOX",
		Flash: &shared.FlashMessage{Kind: shared.FlashError, Title: "Access Denied", Message: "You don't have admin privileges."},
	})
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "Access Denied")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/missing.html", TemplateData{}))
}
