package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/maleon-core-poc/server/internal/intel"
)

const (
	ToolPredictGrowth  = "predecir_crecimiento"
	ToolSearchServices = "buscar_servicios"
	ToolCheckSecurity  = "consultar_seguridad"
)

// ===================================
// Tool schemas bound to the persona model
// ===================================

func muniParam(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type:     "string",
		Desc:     desc,
		Required: true,
	}
}

// ToolInfos returns the schemas of every lookup the persona model may request.
// The agent never executes them; the dispatcher does.
func ToolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolPredictGrowth,
			Desc: "Usa CatBoost para calcular el potencial de un negocio.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"codigo": {Type: "string", Desc: "Código SCIAN de la actividad del negocio.", Required: true},
				"muni":   muniParam("Municipio de Yucatán, o YUCATAN si no se mencionó uno."),
				"v1":     {Type: "number", Desc: "Escala estimada del negocio (variable 1).", Required: true},
				"v2":     {Type: "number", Desc: "Escala estimada del negocio (variable 2).", Required: true},
				"v3":     {Type: "number", Desc: "Escala estimada del negocio (variable 3).", Required: true},
			}),
		},
		{
			Name: ToolSearchServices,
			Desc: "Busca servicios mapeados en el CSV.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"muni": muniParam("Municipio de Yucatán."),
			}),
		},
		{
			Name: ToolCheckSecurity,
			Desc: "Consulta el nivel de riesgo y negocios aislados en un municipio.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"muni": muniParam("Municipio de Yucatán."),
			}),
		},
	}
}

// PillarOf maps a tool name to the report pillar it feeds.
func PillarOf(name string) (intel.Pillar, bool) {
	switch name {
	case ToolPredictGrowth:
		return intel.PillarGrowth, true
	case ToolSearchServices:
		return intel.PillarServices, true
	case ToolCheckSecurity:
		return intel.PillarSecurity, true
	}
	return "", false
}

// ===================================
// Argument coercion
// ===================================

// MuniArgs are the arguments of the single-municipality lookups.
type MuniArgs struct {
	Muni string `json:"muni"`
}

// GrowthArgs are the arguments of predecir_crecimiento after coercion.
type GrowthArgs struct {
	Code string  `json:"codigo"`
	Muni string  `json:"muni"`
	V1   float64 `json:"v1"`
	V2   float64 `json:"v2"`
	V3   float64 `json:"v3"`
}

// Features converts the arguments into a classifier query.
func (a GrowthArgs) Features() intel.GrowthFeatures {
	return intel.GrowthFeatures{Code: a.Code, Municipality: a.Muni, V1: a.V1, V2: a.V2, V3: a.V3}
}

// ParseMuni coerces the arguments of buscar_servicios and consultar_seguridad.
// A missing or non-string muni becomes its printed form (or "").
func ParseMuni(arguments string) (MuniArgs, error) {
	m, err := decode(arguments)
	if err != nil {
		return MuniArgs{}, err
	}
	return MuniArgs{Muni: stringArg(m, "muni")}, nil
}

// ParseGrowth coerces the arguments of predecir_crecimiento. Numbers may come
// as JSON numbers or numeric strings; every numeric field is required.
func ParseGrowth(arguments string) (GrowthArgs, error) {
	m, err := decode(arguments)
	if err != nil {
		return GrowthArgs{}, err
	}
	out := GrowthArgs{Code: stringArg(m, "codigo"), Muni: stringArg(m, "muni")}
	for key, dst := range map[string]*float64{"v1": &out.V1, "v2": &out.V2, "v3": &out.V3} {
		v, err := numberArg(m, key)
		if err != nil {
			return GrowthArgs{}, err
		}
		*dst = v
	}
	return out, nil
}

func decode(arguments string) (map[string]any, error) {
	m := map[string]any{}
	if strings.TrimSpace(arguments) == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	return m, nil
}

func stringArg(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch vv := v.(type) {
	case string:
		return strings.TrimSpace(vv)
	case float64:
		// codes such as 461110 arrive as numbers
		return strconv.FormatFloat(vv, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func numberArg(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch vv := v.(type) {
	case float64:
		return vv, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q is not a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q has type %T", key, v)
	}
}
