package pricing

type Service string

const (
	WebDevelopment Service = "webDevelopment"
	Ecommerce      Service = "ecommerce"
	MobileApp      Service = "mobileApp"
	SEO            Service = "seo"
	UIUXDesign     Service = "uiuxDesign"
	Maintenance    Service = "maintenance"
)

// Services is the fixed display order.
var Services = []Service{WebDevelopment, Ecommerce, MobileApp, SEO, UIUXDesign, Maintenance}

type Complexity string

const (
	Basic    Complexity = "basic"
	Standard Complexity = "standard"
	Premium  Complexity = "premium"
)

type Timeline string

const (
	Normal Timeline = "normal"
	Urgent Timeline = "urgent"
)

// Rates holds the whole-unit price per service and tier.
type Rates map[Service]map[Complexity]int

func DefaultRates() Rates {
	return Rates{
		WebDevelopment: {Basic: 800, Standard: 1200, Premium: 2000},
		Ecommerce:      {Basic: 1500, Standard: 2500, Premium: 4000},
		MobileApp:      {Basic: 2000, Standard: 3500, Premium: 6000},
		SEO:            {Basic: 300, Standard: 500, Premium: 900},
		UIUXDesign:     {Basic: 600, Standard: 1000, Premium: 1800},
		Maintenance:    {Basic: 150, Standard: 300, Premium: 500},
	}
}

var serviceLabels = map[Service]string{
	WebDevelopment: "desarrollo web",
	Ecommerce:      "tienda online",
	MobileApp:      "aplicación móvil",
	SEO:            "posicionamiento SEO",
	UIUXDesign:     "diseño UI/UX",
	Maintenance:    "mantenimiento",
}

var complexityLabels = map[Complexity]string{
	Basic:    "básica",
	Standard: "estándar",
	Premium:  "premium",
}
