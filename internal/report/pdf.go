// Package report renders analyst reports as PDF documents under the static dir.
package report

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/maleon-core-poc/server/internal/agent/model"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

type Config struct {
	StaticDir  string `envconfig:"STATIC_DIR" default:"static"`
	ReportsDir string `envconfig:"REPORTS_SUBDIR" default:"reportes"`
	URLPrefix  string `envconfig:"STATIC_URL_PREFIX" default:"/static"`
	LeftLogo   string `envconfig:"REPORT_LEFT_LOGO" default:"IMET_LOGO.png"`
	RightLogo  string `envconfig:"REPORT_RIGHT_LOGO" default:"TECHMALEON_LOGO.png"`
	ChartImage string `envconfig:"REPORT_CHART_IMAGE" default:"grafico_impacto_ssp.png"`
}

// PDFRenderer implements model.DocumentRenderer.
type PDFRenderer struct {
	cfg Config
	now func() time.Time
}

var _ model.DocumentRenderer = (*PDFRenderer)(nil)

func NewPDFRenderer(cfg Config) (*PDFRenderer, error) {
	if err := os.MkdirAll(filepath.Join(cfg.StaticDir, cfg.ReportsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &PDFRenderer{cfg: cfg, now: time.Now}, nil
}

func (r *PDFRenderer) asset(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	p := filepath.Join(r.cfg.StaticDir, name)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Render writes the report and returns its public path. Missing logos or
// chart images are skipped.
func (r *PDFRenderer) Render(ctx context.Context, doc model.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if p, ok := r.asset(r.cfg.LeftLogo); ok {
		pdf.ImageOptions(p, 10, 8, 30, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	if p, ok := r.asset(r.cfg.RightLogo); ok {
		pdf.ImageOptions(p, 160, 8, 40, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	pdf.Ln(35)

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Fecha: "+r.now().Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 11)
	body := strings.NewReplacer("*", "", "#", "").Replace(doc.Body)
	pdf.MultiCell(0, 7, tr(body), "", "", false)
	pdf.Ln(10)

	if doc.IncludeChart {
		if p, ok := r.asset(r.cfg.ChartImage); ok {
			pdf.AddPage()
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 10, tr("ANEXO VISUAL: IMPACTO ESTRATEGIA SSP"), "", 1, "C", false, 0, "")
			pdf.ImageOptions(p, 10, pdf.GetY(), 190, 0, true, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	name := "reporte_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8] + ".pdf"
	out := filepath.Join(r.cfg.StaticDir, r.cfg.ReportsDir, name)
	if err := pdf.OutputFileAndClose(out); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	logx.Info().Str("file", out).Bool("chart", doc.IncludeChart).Msg("report written")
	return path.Join(r.cfg.URLPrefix, r.cfg.ReportsDir, name), nil
}
