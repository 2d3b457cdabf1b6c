package nodes

import "fmt"

const (
	ReplyReportClarify  = "¡Ay mare! Con gusto le ayudo, pero dígame ¿sobre qué tema en específico quiere que prepare el reporte, nené?"
	ReplyReportPDFError = "¡Ay fo! Hubo un problema al crear el archivo PDF."
	ReplyReportStuck    = "¡Ay mare! Se me trabó el sistema al generar ese documento."

	FallbackReport = "No se encontró información específica en los archivos internos, pero aquí presento un análisis general basado en estándares del sector:\n\n" +
		"1. Diagnóstico: Se requiere fortalecer la infraestructura tecnológica.\n" +
		"2. Estrategia: Implementación de sistemas de vigilancia inteligente y capacitación.\n" +
		"3. Conclusión: La modernización es clave para el desarrollo regional."

	linkStyle = "display: inline-block; padding: 10px 20px; background-color: %s; color: white; text-decoration: none; border-radius: 5px; font-weight: bold;"
)

func button(href, color, label string) string {
	return fmt.Sprintf("<a href='%s' target='_blank' style='%s'>%s</a>", href, fmt.Sprintf(linkStyle, color), label)
}

// ReportReadyReply links the rendered report.
func ReportReadyReply(path string) string {
	return "Listo nené, ya terminé el análisis profundo sobre ese tema. Aquí tiene el documento para su revisión.<br><br>" +
		button(path, "#28a745", "📥 DESCARGAR REPORTE PDF")
}

// SecurityMapReply links the SSP intelligence map.
func SecurityMapReply(path string) string {
	return "¡Claro! Aquí tiene el mapa de inteligencia de la SSP.<br><br>" +
		button(path, "#007bff", "VER MAPA DE INTELIGENCIA")
}

// ServicesMapReply links the municipal services map.
func ServicesMapReply(path string) string {
	return "Mare, aquí tiene el mapa de servicios en los municipios.<br><br>" +
		button(path, "#17a2b8", "VER MAPA DE SERVICIOS")
}
