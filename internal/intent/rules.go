package intent

import (
	"regexp"
	"strings"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/catalog"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

// Rule matches normalized text. Rules are evaluated in table order and the
// first match wins, so more specific rules come first.
type Rule struct {
	Name   string
	Intent model.Intent
	Match  func(normalized string) bool
}

type Result struct {
	Intent     model.Intent `json:"intent"`
	Rule       string       `json:"rule,omitempty"`
	Normalized string       `json:"normalized"`
}

// words builds a predicate matching any of the given words or phrases on
// word boundaries of normalized text.
func words(terms ...string) func(string) bool {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	re := regexp.MustCompile(`(^| )(` + strings.Join(quoted, "|") + `)( |$)`)
	return re.MatchString
}

// unlessNegated wraps a words predicate so a term directly preceded by "no"
// does not count as a match.
func unlessNegated(terms ...string) func(string) bool {
	match := words(terms...)
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	negated := regexp.MustCompile(`(^| )no (` + strings.Join(quoted, "|") + `)( |$)`)
	return func(s string) bool {
		return match(s) && !negated.MatchString(s)
	}
}

func exact(terms ...string) func(string) bool {
	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
	}
	return func(s string) bool {
		_, ok := set[s]
		return ok
	}
}

var DefaultRules = []Rule{
	{
		Name:   "handoff",
		Intent: model.IntentHandoffRequest,
		Match: words(
			"asesor", "asesora", "humano", "persona real", "vendedor", "vendedora",
			"hablar con alguien", "agente", "encargado", "encargada",
		),
	},
	{
		Name:   "reject-negated",
		Intent: model.IntentRejection,
		Match: words(
			"no lo quiero", "no la quiero", "no los quiero", "no las quiero",
			"no quiero", "ya no", "no gracias", "mejor no", "no me interesa",
		),
	},
	{
		Name:   "payment",
		Intent: model.IntentPaymentConfirmation,
		Match: unlessNegated(
			"sinpe", "ya pague", "ya le pague", "transferencia", "comprobante",
			"pago", "pagar", "lo quiero", "la quiero", "los quiero", "las quiero",
			"confirmo", "me lo llevo", "me la llevo", "apartar", "apartelo", "apartemelo",
		),
	},
	{
		Name:   "reject-exact",
		Intent: model.IntentRejection,
		Match:  exact("no", "nop", "nel"),
	},
	{
		Name:   "reject",
		Intent: model.IntentRejection,
		Match: words(
			"muy caro", "muy cara", "otra cosa", "otro modelo", "otra opcion", "otras opciones",
		),
	},
	{
		Name:   "confirm-short",
		Intent: model.IntentPaymentConfirmation,
		Match:  exact("si", "sii", "sip", "dale", "claro", "de una", "si claro", "si senor", "si senora"),
	},
	{
		Name:   "hours",
		Intent: model.IntentStoreHours,
		Match: words(
			"horario", "horarios", "a que hora", "que hora", "abren", "cierran",
			"abierto", "abiertos", "cerrado",
		),
	},
	{
		Name:   "category",
		Intent: model.IntentCategorySelection,
		Match: func(s string) bool {
			return len(catalog.Match(s)) > 0
		},
	},
	{
		Name:   "price",
		Intent: model.IntentPriceInquiry,
		Match:  words("precio", "precios", "cuanto", "cuesta", "cuestan", "vale", "valen", "costo"),
	},
	{
		Name:   "delivery",
		Intent: model.IntentDeliveryMethod,
		Match: words(
			"envio", "envios", "envian", "enviar", "entrega", "entregas", "correos",
			"recoger", "retiro", "retirar", "pasar por", "ubicacion", "direccion", "donde estan",
		),
	},
	{
		Name:   "greeting",
		Intent: model.IntentGreeting,
		Match: words(
			"hola", "buenas", "buenos dias", "buenas tardes", "buenas noches",
			"saludos", "hey", "que tal", "pura vida",
		),
	},
}

type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

func (c *Classifier) Rules() []Rule {
	return c.rules
}

func (c *Classifier) Classify(text string) Result {
	normalized := NormalizeText(text)
	if normalized == "" {
		return Result{Intent: model.IntentUnrecognized}
	}
	for _, rule := range c.rules {
		if rule.Match(normalized) {
			return Result{Intent: rule.Intent, Rule: rule.Name, Normalized: normalized}
		}
	}
	return Result{Intent: model.IntentUnrecognized, Normalized: normalized}
}

// Classify uses the default rule table.
func Classify(text string) Result {
	return defaultClassifier.Classify(text)
}

var defaultClassifier = NewClassifier(DefaultRules)
