package nodes

import (
	"strings"

	"github.com/maleon-core-poc/server/internal/textmatch"
)

const (
	RouteReport      = "report"
	RouteSecurityMap = "map_security"
	RouteServicesMap = "map_services"
	RouteChat        = "chat"
)

var (
	reportTriggers      = []string{"reporte", "plan de", "propuesta", "documento", "analisis", "hazme un", "genera un"}
	securityMapKeywords = []string{"seguridad", "ssp", "inteligencia"}
	servicesMapKeywords = []string{"servicios", "potencial", "municipio"}
	chartKeywords       = []string{"seguridad", "ssp", "impacto", "policia"}
)

// Classify picks the branch for a message. Matching is accent-insensitive.
// A report request that mentions "mapa" is treated as a map request, and a
// map request without a known topic falls through to chat.
func Classify(text string) string {
	mentionsMap := textmatch.ContainsAny(text, []string{"mapa"})
	if !mentionsMap && textmatch.ContainsAny(text, reportTriggers) {
		return RouteReport
	}
	if mentionsMap {
		if textmatch.ContainsAny(text, securityMapKeywords) {
			return RouteSecurityMap
		}
		if textmatch.ContainsAny(text, servicesMapKeywords) {
			return RouteServicesMap
		}
	}
	return RouteChat
}

// ReportTitle builds the document title from the first 40 characters of the request.
func ReportTitle(request string) string {
	r := []rune(request)
	if len(r) > 40 {
		r = r[:40]
	}
	return "ANALISIS ESTRATEGICO: " + strings.ToUpper(string(r))
}

// IncludeChart reports whether the security chart annex belongs in the report.
func IncludeChart(request string) bool {
	return textmatch.ContainsAny(request, chartKeywords)
}
