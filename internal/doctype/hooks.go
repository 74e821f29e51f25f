package doctype

import (
	"fmt"
	"strconv"
	"strings"
)

// EstudioTitulosHook flags missing core data and summarizes liens and owners.
func EstudioTitulosHook(record map[string]any) (map[string]any, []string) {
	out := shallowCopy(record)
	var warnings []string

	if str(object(out, "inmueble")["matricula_inmobiliaria"]) == "" {
		warnings = append(warnings, "No se encontro matricula inmobiliaria en el documento")
	}
	if len(list(out, "tradicion")) == 0 {
		warnings = append(warnings, "No se encontraron anotaciones de tradicion")
	}

	gravamenes := list(out, "gravamenes")
	vigentes, cancelados := 0, 0
	for _, g := range gravamenes {
		switch strings.ToLower(str(asObject(g)["estado"])) {
		case "vigente":
			vigentes++
		case "cancelado":
			cancelados++
		}
	}
	out["_resumen_gravamenes"] = map[string]any{
		"total":      len(gravamenes),
		"vigentes":   vigentes,
		"cancelados": cancelados,
	}

	propietarios := list(out, "propietarios")
	if len(propietarios) == 0 {
		warnings = append(warnings, "No se encontraron propietarios en el documento")
	}
	total := 0.0
	for _, p := range propietarios {
		pct := str(asObject(p)["porcentaje_propiedad"])
		pct = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(pct, "%", ""), ",", "."))
		if v, err := strconv.ParseFloat(pct, 64); err == nil {
			total += v
		}
	}
	out["_resumen_propietarios"] = map[string]any{
		"total":            len(propietarios),
		"porcentaje_total": strconv.FormatFloat(total, 'f', -1, 64) + "%",
	}
	return out, warnings
}

// MinutaCancelacionHook checks creditor and obligation data and summarizes
// what the deed releases.
func MinutaCancelacionHook(record map[string]any) (map[string]any, []string) {
	out := shallowCopy(record)
	var warnings []string

	acreedor := object(out, "acreedor")
	if str(acreedor["nombre"]) == "" {
		warnings = append(warnings, "No se identifico el nombre del acreedor")
	}
	if str(acreedor["nit_cc"]) == "" {
		warnings = append(warnings, "No se encontro NIT/CC del acreedor")
	}
	obligacion := object(out, "obligacion")
	if str(obligacion["escritura_constitucion"]) == "" {
		warnings = append(warnings, "No se encontro la escritura de constitucion original")
	}
	inmuebles := list(out, "inmuebles")
	if len(inmuebles) == 0 {
		warnings = append(warnings, "No se encontraron inmuebles en la cancelacion")
	}
	cancelacion := object(out, "cancelacion")

	resumen := map[string]any{
		"acreedor":             orDefault(acreedor["nombre"], "No identificado"),
		"cantidad_deudores":    len(list(out, "deudores")),
		"cantidad_inmuebles":   len(inmuebles),
		"tipo_obligacion":      orDefault(obligacion["tipo"], "No especificado"),
		"monto_original":       orDefault(obligacion["monto_original"], "No especificado"),
		"motivo_cancelacion":   orDefault(cancelacion["motivo"], "Pago total"),
		"matriculas_liberadas": matriculas(inmuebles),
	}
	fechaPago := str(cancelacion["fecha_pago_total"])
	fechaEscritura := str(object(out, "metadata")["fecha"])
	if fechaPago != "" && fechaEscritura != "" {
		resumen["fecha_pago"] = fechaPago
		resumen["fecha_escritura"] = fechaEscritura
	}
	out["_resumen_cancelacion"] = resumen
	return out, warnings
}

// MinutaConstitucionHook checks creditor, credit and collateral data and
// summarizes the mortgage, including an estimated loan-to-value ratio.
func MinutaConstitucionHook(record map[string]any) (map[string]any, []string) {
	out := shallowCopy(record)
	var warnings []string

	acreedor := object(out, "acreedor")
	if str(acreedor["nombre"]) == "" {
		warnings = append(warnings, "No se identifico el nombre del acreedor hipotecario")
	}
	if str(acreedor["nit"]) == "" {
		warnings = append(warnings, "No se encontro NIT del acreedor")
	}

	credito := object(out, "credito")
	var faltantes []string
	for _, f := range []string{"monto_credito", "plazo_meses", "tasa_interes"} {
		if str(credito[f]) == "" {
			faltantes = append(faltantes, f)
		}
	}
	if len(faltantes) > 0 {
		warnings = append(warnings, "Campos de credito faltantes: "+strings.Join(faltantes, ", "))
	}

	inmuebles := list(out, "inmuebles")
	if len(inmuebles) == 0 {
		warnings = append(warnings, "No se encontraron inmuebles a hipotecar")
	}
	for i, inm := range inmuebles {
		if str(asObject(inm)["matricula_inmobiliaria"]) == "" {
			warnings = append(warnings, fmt.Sprintf("Inmueble %d: sin matricula inmobiliaria", i+1))
		}
	}

	deudores := list(out, "deudores")
	if len(deudores) == 0 {
		warnings = append(warnings, "No se encontraron deudores en el documento")
	}
	var principales []map[string]any
	codeudores := 0
	for _, d := range deudores {
		m := asObject(d)
		if es, _ := m["es_codeudor"].(bool); es {
			codeudores++
			continue
		}
		principales = append(principales, m)
	}
	nombres := make([]any, 0, len(principales))
	for _, d := range principales {
		if n := str(d["nombre"]); n != "" {
			nombres = append(nombres, n)
		}
	}

	condiciones := object(out, "condiciones_garantia")
	plazo := orDefault(credito["plazo_meses"], "")
	if plazo == "" {
		plazo = orDefault(credito["plazo_anos"], "No especificado")
	}

	resumen := map[string]any{
		"acreedor":                      orDefault(acreedor["nombre"], "No identificado"),
		"tipo_entidad":                  orDefault(acreedor["tipo_entidad"], "Banco"),
		"cantidad_deudores_principales": len(principales),
		"cantidad_codeudores":           codeudores,
		"cantidad_inmuebles":            len(inmuebles),
		"monto_credito":                 orDefault(credito["monto_credito"], "No especificado"),
		"plazo":                         plazo,
		"tasa_interes":                  orDefault(credito["tasa_interes"], "No especificada"),
		"destino_credito":               orDefault(credito["destino_credito"], "No especificado"),
		"tipo_garantia":                 orDefault(condiciones["tipo_garantia"], "Hipoteca"),
		"grado_hipoteca":                orDefault(condiciones["grado_hipoteca"], "Primer grado"),
		"matriculas_hipotecadas":        matriculas(inmuebles),
		"deudores_nombres":              nombres,
	}

	avaluo := 0.0
	for _, inm := range inmuebles {
		if v, ok := parseMoney(str(asObject(inm)["avaluo_comercial"])); ok {
			avaluo += v
		}
	}
	if monto, ok := parseMoney(str(credito["monto_credito"])); ok && avaluo > 0 {
		resumen["ltv_estimado"] = fmt.Sprintf("%.2f%%", monto/avaluo*100)
	}

	seguros := []any{}
	if b, _ := condiciones["seguro_incendio_terremoto"].(bool); b {
		seguros = append(seguros, "Incendio y Terremoto")
	}
	if b, _ := condiciones["seguro_vida_deudores"].(bool); b {
		seguros = append(seguros, "Vida Deudores")
	}
	resumen["seguros_requeridos"] = seguros

	out["_resumen_constitucion"] = resumen
	return out, warnings
}

func shallowCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func object(m map[string]any, key string) map[string]any {
	return asObject(m[key])
}

func list(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

// str returns the trimmed string form of v, or "" for nil and non-strings.
func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func orDefault(v any, def string) string {
	if s := str(v); s != "" {
		return s
	}
	return def
}

func matriculas(inmuebles []any) []any {
	out := []any{}
	for _, inm := range inmuebles {
		if m := str(asObject(inm)["matricula_inmobiliaria"]); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// parseMoney reads amounts such as "$150.000.000" or "150,000,000"; every
// dot and comma is taken as a thousands separator.
func parseMoney(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", ".", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
