package llm

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt wraps the caller's instructions with the output rules
// every extraction shares.
func BuildSystemPrompt(instructions string) string {
	parts := []string{
		strings.TrimSpace(instructions),
		"Responde UNICAMENTE con un objeto JSON que cumpla el JSON Schema proporcionado, sin texto adicional.",
		"Si un campo no aparece en el texto, usa null; para listas sin elementos usa [].",
		"Manten los formatos de fecha, numeros y montos tal como aparecen en el documento.",
	}
	return strings.Join(nonEmpty(parts), "\n\n")
}

// BuildUserPrompt composes the user message for one chunk. total is the
// number of chunks in the document; with total <= 1 no fragment note is added.
func BuildUserPrompt(text, schemaJSON string, index, total int) string {
	var b strings.Builder
	b.WriteString("Analiza el siguiente documento y extrae la informacion estructurada segun el schema JSON proporcionado.\n\n")
	if total > 1 {
		fmt.Fprintf(&b, "Este texto es el fragmento %d de %d de un documento mas largo. "+
			"Extrae solo lo que aparece en este fragmento; los demas campos deben ser null.\n\n", index+1, total)
	}
	b.WriteString("## DOCUMENTO:\n")
	b.WriteString(text)
	b.WriteString("\n\n## SCHEMA JSON ESPERADO:\n")
	b.WriteString(schemaJSON)
	b.WriteString("\n\n## INSTRUCCIONES:\n")
	b.WriteString("1. Extrae TODA la informacion relevante que coincida con los campos del schema.\n")
	b.WriteString("2. Para listas, incluye todos los elementos encontrados.\n")
	b.WriteString("3. Responde UNICAMENTE con el JSON estructurado.\n\n")
	b.WriteString("## RESPUESTA JSON:\n")
	return b.String()
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
