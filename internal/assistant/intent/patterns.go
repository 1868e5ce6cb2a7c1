package intent

import (
	"regexp"
	"strings"
)

const leadIn = `^(?:(?:por favor|oye|hola|hey|websy)[\s,]+)*`

// Navigation templates, tried in order. Group 1 is the destination phrase.
var navigationTemplates = compileAll(
	leadIn+`(?:¿\s*)?(?:llévame|llevame|llévanos|llevanos|lléveme|lleveme)\s+(?:a|al|hasta|hacia)\s+(.+)$`,
	leadIn+`(?:¿\s*)?(?:puedes|podrías|podrias|me puedes|me podrías|me podrias)\s+(?:llevarme|llevar|mostrarme|enseñarme)\s+(?:a|al|hasta)?\s*(.+)$`,
	leadIn+`(?:ve|vete|vamos|ir|navega|navegar|desplázate|desplazate|baja|sube|salta)\s+(?:a|al|hasta|hacia)\s+(.+)$`,
	leadIn+`(?:quiero ver|quiero ir a|quisiera ver|necesito ver)\s+(?:al\s+)?(.+)$`,
	leadIn+`(?:muéstrame|muestrame|enséñame|enseñame|muestra|enseña)\s+(.+)$`,
	leadIn+`(?:go to|take me to|show me|scroll to|navigate to|jump to)\s+(.+)$`,
)

var sectionListPatterns = compileAll(
	`(?:qué|que|cuáles|cuales)\s+secciones\s+(?:hay|tiene|tienes|existen|puedo ver|tiene la página|tiene la web)`,
	`(?:qué|que)\s+(?:hay|se ve|veo|aparece|se muestra)\s+en\s+(?:la\s+)?(?:pantalla|página|pagina|web)`,
	`(?:lista|listar|enumera|dime)\s+(?:las\s+|todas las\s+)?secciones`,
	`what\s+sections\s+(?:are there|do you have|exist)`,
	`what(?:'s| is)\s+on\s+(?:the\s+)?(?:screen|page)`,
)

var (
	priceVocabulary   = regexp.MustCompile(`\b(?:precio|precios|cuesta|cuestan|costo|costos|coste|costaría|costaria|presupuesto|cotización|cotizacion|tarifa|tarifas|cuánto vale|cuanto vale|price|prices|pricing|cost|costs|budget|quote|estimate)\b`)
	serviceVocabulary = regexp.MustCompile(`\b(?:desarrollo|servicio|servicios|web|página web|pagina web|sitio|app|apps|aplicación|aplicacion|tienda online|ecommerce|e-commerce|seo|diseño|landing|mantenimiento|branding|development|service|services|website|design|maintenance)\b`)
)

var (
	// articles and "la sección de"-style fillers before the destination
	targetPrefix = regexp.MustCompile(`^(?:(?:el|la|los|las|the|a|al|del|de)\s+)*(?:(?:sección|seccion|secciones|apartado|parte|página|pagina|zona|área|area|section|page|part)\s+(?:de\s+|del\s+|of\s+)?)?(?:(?:el|la|los|las|the|nuestro|nuestros|nuestra|nuestras|vuestro|vuestros|tus|sus|our|your)\s+)*`)
	targetSuffix = regexp.MustCompile(`(?:\s+(?:section|sección|seccion|page|página|pagina))?(?:[\s,]+(?:por favor|porfa|please|gracias))?[\s\?\.\!¡¿,;:]*$`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func matchNavigation(folded string) (Intent, bool) {
	for _, re := range navigationTemplates {
		m := re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		if target := cleanTarget(m[1]); target != "" {
			return Intent{Kind: Navigation, RawTarget: target}, true
		}
	}
	return Intent{}, false
}

func matchSectionList(folded string) (Intent, bool) {
	for _, re := range sectionListPatterns {
		if re.MatchString(folded) {
			return Intent{Kind: SectionList}, true
		}
	}
	return Intent{}, false
}

func matchPricing(folded string) (Intent, bool) {
	if priceVocabulary.MatchString(folded) && serviceVocabulary.MatchString(folded) {
		return Intent{Kind: Pricing}, true
	}
	return Intent{}, false
}

func cleanTarget(raw string) string {
	t := strings.TrimSpace(raw)
	t = targetSuffix.ReplaceAllString(t, "")
	t = strings.TrimSpace(targetPrefix.ReplaceAllString(t, ""))
	if fillerWords[t] {
		return ""
	}
	return t
}

var fillerWords = map[string]bool{
	"el": true, "la": true, "los": true, "las": true, "the": true, "a": true, "al": true,
	"de": true, "del": true, "sección": true, "seccion": true, "section": true,
	"página": true, "pagina": true, "page": true, "aquí": true, "aqui": true, "here": true,
}
