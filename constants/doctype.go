package constants

import (
	"strings"
)

// DocumentType names a family of legal documents that share a schema,
// extraction instructions and post-merge checks.
type DocumentType string

const (
	EstudioTitulos     DocumentType = "estudio_titulos"
	MinutaCancelacion  DocumentType = "minuta_cancelacion"
	MinutaConstitucion DocumentType = "minuta_constitucion"
)

var allDocumentTypes = []DocumentType{
	EstudioTitulos,
	MinutaCancelacion,
	MinutaConstitucion,
}

func DocumentTypesAsStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// CanonicalDocumentType maps user input (folder names, CLI flags, request
// fields) onto a known document type.
func CanonicalDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	synonyms := map[string]DocumentType{
		"estudio_de_titulos":              EstudioTitulos,
		"estudio_titulo":                  EstudioTitulos,
		"titulos":                         EstudioTitulos,
		"minuta_de_cancelacion":           MinutaCancelacion,
		"cancelacion":                     MinutaCancelacion,
		"cancelacion_hipoteca":            MinutaCancelacion,
		"minuta_de_constitucion":          MinutaConstitucion,
		"constitucion":                    MinutaConstitucion,
		"constitucion_hipoteca":           MinutaConstitucion,
		"minuta_de_constitucion_hipoteca": MinutaConstitucion,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocumentTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}

	return "", false
}
