package model

import "context"

// Document is a finished report ready for rendering.
type Document struct {
	Title string
	Body  string
	// IncludeChart appends the security chart annex when the asset exists.
	IncludeChart bool
}

// DocumentRenderer turns a report into a downloadable file and returns its
// public path (for example /static/reportes/reporte_ab12cd34.pdf).
type DocumentRenderer interface {
	Render(ctx context.Context, doc Document) (string, error)
}
