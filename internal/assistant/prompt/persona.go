package prompt

import "strings"

const defaultPersona = `Eres {{name}}, el asistente virtual de la web de una agencia de desarrollo web.
Respondes en español, con un tono cercano y profesional, en pocas frases.
Ayudas a los visitantes a conocer los servicios, los precios orientativos y el proceso de trabajo,
y les animas a usar el formulario de contacto cuando quieren un presupuesto cerrado.
Si no sabes algo, lo dices y ofreces alternativas. No inventes precios: usa la calculadora de presupuesto.`

// Persona renders the system persona with the assistant's display name.
// An empty template selects the built-in one.
func Persona(name, template string) string {
	if strings.TrimSpace(template) == "" {
		template = defaultPersona
	}
	if strings.TrimSpace(name) == "" {
		name = "Websy"
	}
	return strings.ReplaceAll(template, "{{name}}", name)
}
