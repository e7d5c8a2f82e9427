package extraction

import (
	"strings"

	"facturaia/internal/domain"
)

// ExtractorContext is the system context sent with every extraction prompt.
const ExtractorContext = "Eres un extractor de datos de PDF. Devuelve EXCLUSIVAMENTE el JSON, sin comentarios ni explicaciones."

const promptTemplate = `Extrae la información de esta factura en formato JSON exacto.
Texto de la factura:
{{text}}

Responde ÚNICAMENTE con un objeto JSON con esta estructura:
{
  "numero": "string",
  "emisorNombre": "string",
  "clienteNombre": "string",
  "fecha": "YYYY-MM-DD",
  "total": number,
  "moneda": "string",
  "categoria": "{{categories}}",
  "items": [{"descripcion": "string", "cantidad": number, "precio": number}]
}`

// BuildPrompt interpolates the extracted PDF text into the extraction
// instruction. The text is not truncated.
func BuildPrompt(text string) string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.NewReplacer(
		"{{text}}", text,
		"{{categories}}", strings.Join(names, "|"),
	).Replace(promptTemplate)
}
