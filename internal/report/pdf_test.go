package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maleon-core-poc/server/internal/agent/model"
)

func newRenderer(t *testing.T) (*PDFRenderer, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := NewPDFRenderer(Config{StaticDir: dir, ReportsDir: "reportes", URLPrefix: "/static", ChartImage: "missing.png"})
	require.NoError(t, err)
	return r, dir
}

func TestRenderWritesPDF(t *testing.T) {
	t.Parallel()
	r, dir := newRenderer(t)

	url, err := r.Render(context.Background(), model.Document{
		Title:        "ANALISIS ESTRATEGICO: SEGURIDAD EN TEKAX",
		Body:         "Diagnóstico: **alto** riesgo.\n\n# Estrategia\nCapacitación y vigilancia.\n\nConclusión: modernización.",
		IncludeChart: true,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/static/reportes/reporte_"), url)
	require.True(t, strings.HasSuffix(url, ".pdf"))

	name := strings.TrimPrefix(url, "/static/reportes/")
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(name, "reporte_"), ".pdf"), 8)

	data, err := os.ReadFile(filepath.Join(dir, "reportes", name))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	t.Parallel()
	r, _ := newRenderer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Render(ctx, model.Document{Title: "x", Body: "y"})
	assert.Error(t, err)
}
