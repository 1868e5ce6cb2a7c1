package sections

import "strings"

// theme groups the words a visitor may use for one kind of section with the
// anchor ids pages commonly give it. Keys are matched against the normalized
// target, so they are written without diacritics.
type theme struct {
	name     string
	keys     []string
	variants []string
}

var themes = []theme{
	{
		name:     "services",
		keys:     []string{"service", "servicio"},
		variants: []string{"services", "services-section", "our-services", "servicios", "what-we-do"},
	},
	{
		name:     "contact",
		keys:     []string{"contact", "escribir", "hablar"},
		variants: []string{"contact", "contact-section", "contact-us", "contacto", "get-in-touch"},
	},
	{
		name:     "about",
		keys:     []string{"about", "nosotros", "sobre", "acerca", "quienes", "empresa"},
		variants: []string{"about", "about-section", "about-us", "nosotros", "sobre-nosotros", "who-we-are"},
	},
	{
		name:     "pricing",
		keys:     []string{"pricing", "price", "precio", "tarifa", "presupuesto", "plan"},
		variants: []string{"pricing", "pricing-section", "prices", "precios", "plans", "tarifas"},
	},
	{
		name:     "home",
		keys:     []string{"home", "inicio", "hero", "principal", "portada", "arriba"},
		variants: []string{"home", "hero", "hero-section", "inicio", "top"},
	},
	{
		name:     "process",
		keys:     []string{"process", "proceso", "metodologia", "como-trabaj"},
		variants: []string{"process", "process-section", "our-process", "proceso", "how-we-work"},
	},
	{
		name:     "testimonials",
		keys:     []string{"testimonial", "testimonio", "opinion", "review", "resena"},
		variants: []string{"testimonials", "testimonials-section", "reviews", "testimonios", "opiniones"},
	},
	{
		name:     "team",
		keys:     []string{"team", "equipo"},
		variants: []string{"team", "team-section", "our-team", "equipo"},
	},
	{
		name:     "technologies",
		keys:     []string{"technolog", "tecnolog", "stack", "herramienta"},
		variants: []string{"technologies", "technologies-section", "tech-stack", "tecnologias", "stack"},
	},
	{
		name:     "projects",
		keys:     []string{"project", "proyecto", "portfolio", "portafolio", "trabajo"},
		variants: []string{"projects", "projects-section", "portfolio", "proyectos", "our-work", "work"},
	},
	{
		name:     "clients",
		keys:     []string{"client", "cliente"},
		variants: []string{"clients", "clients-section", "clientes", "partners"},
	},
}

// matchingThemes returns, in table order, every theme with a key inside t.
func matchingThemes(t string) []theme {
	var out []theme
	for _, th := range themes {
		for _, k := range th.keys {
			if strings.Contains(t, k) {
				out = append(out, th)
				break
			}
		}
	}
	return out
}

// sharedKeys returns the keys of the matched themes that occur in t.
func sharedKeys(t string, matched []theme) []string {
	var out []string
	for _, th := range matched {
		for _, k := range th.keys {
			if strings.Contains(t, k) {
				out = append(out, k)
			}
		}
	}
	return out
}
