package llm

import "strings"

const systemTemplate = `Eres un asistente experto en contabilidad y finanzas para el sistema de facturas.
Usa la siguiente información del sistema para responder preguntas con precisión:
{{context}}

Responde de forma concisa y profesional. Si no sabes algo basado en el contexto, indícalo.`

// SystemPrompt wraps caller-provided context into the assistant instructions.
func SystemPrompt(context string) string {
	return strings.Replace(systemTemplate, "{{context}}", strings.TrimSpace(context), 1)
}

// Flatten joins system and user prompts for backends that take a single
// prompt string.
func Flatten(req Request) string {
	if req.System == "" {
		return req.Prompt
	}
	return req.System + "\n\nUsuario: " + req.Prompt
}
