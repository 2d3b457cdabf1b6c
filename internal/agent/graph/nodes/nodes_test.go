package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maleon-core-poc/server/internal/agent/knowledge"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{"Hazme un reporte de seguridad en Tekax", RouteReport},
		{"quiero un ANÁLISIS de mi negocio", RouteReport},
		{"reporte", RouteReport},
		{"dame el mapa de seguridad", RouteSecurityMap},
		{"un reporte con el mapa de la SSP", RouteSecurityMap},
		{"muéstrame el mapa de servicios", RouteServicesMap},
		{"el mapa del municipio", RouteServicesMap},
		{"me gusta el mapa", RouteChat},
		{"hola, ¿cómo estás?", RouteChat},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestReportTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ANALISIS ESTRATEGICO: HAZME UN REPORTE", ReportTitle("hazme un reporte"))
	long := "genera un análisis del crecimiento económico de Valladolid y Tizimín"
	title := ReportTitle(long)
	assert.Equal(t, "ANALISIS ESTRATEGICO: GENERA UN ANÁLISIS DEL CRECIMIENTO ECONÓ", title)
}

func TestIncludeChart(t *testing.T) {
	t.Parallel()

	assert.True(t, IncludeChart("reporte del impacto de la policía"))
	assert.False(t, IncludeChart("reporte de servicios"))
}

func TestAnnotateUserText(t *testing.T) {
	t.Parallel()

	kb := knowledge.New(map[string]knowledge.VIP{
		"daniel": {Name: "Daniel Pérez", Aliases: []string{"daniel"}},
	}, "")

	assert.Equal(t, "hola", AnnotateUserText(kb, "hola", ""))
	assert.Equal(t, "hola [Hora: 10:00]", AnnotateUserText(kb, "hola", "10:00"))
	assert.Equal(t, "soy daniel\n[VIP: Daniel Pérez] [Hora: 10:00]", AnnotateUserText(kb, "soy daniel", "10:00"))
}

func TestReplies(t *testing.T) {
	t.Parallel()

	assert.Contains(t, ReportReadyReply("/static/reportes/reporte_1.pdf"), "href='/static/reportes/reporte_1.pdf'")
	assert.Contains(t, SecurityMapReply("/static/mapa.html"), "VER MAPA DE INTELIGENCIA")
	assert.Contains(t, ServicesMapReply("/static/mapa.html"), "VER MAPA DE SERVICIOS")
}
