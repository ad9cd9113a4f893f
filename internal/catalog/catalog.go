package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

type StoreType string

const (
	StorePickup   StoreType = "pickup"
	StoreShipping StoreType = "shipping"
	StoreBoth     StoreType = "both"
)

func (t StoreType) Valid() bool {
	return t == StorePickup || t == StoreShipping || t == StoreBoth
}

func (t StoreType) Ships() bool {
	return t == StoreShipping || t == StoreBoth
}

func (t StoreType) Pickup() bool {
	return t == StorePickup || t == StoreBoth
}

// ShippingFee is the flat nationwide fee in colones.
const ShippingFee int64 = 2500

type Item struct {
	Name  string
	Sizes []string
	Price int64
}

type Category struct {
	Name     string
	Label    string
	Keywords []string
	Items    []Item

	match func(string) bool
}

var Categories = []*Category{
	{
		Name:     "dama",
		Label:    "Dama",
		Keywords: []string{"dama", "damas", "mujer", "mujeres", "senora", "senoras", "chica", "femenino"},
		Items: []Item{
			{Name: "Blusa", Sizes: []string{"S", "M", "L", "XL"}, Price: 8500},
			{Name: "Jeans", Sizes: []string{"26", "28", "30", "32", "34"}, Price: 14900},
			{Name: "Vestido", Sizes: []string{"S", "M", "L"}, Price: 16500},
		},
	},
	{
		Name:     "caballero",
		Label:    "Caballero",
		Keywords: []string{"caballero", "caballeros", "hombre", "hombres", "senor", "senores", "masculino"},
		Items: []Item{
			{Name: "Camisa", Sizes: []string{"S", "M", "L", "XL", "XXL"}, Price: 9900},
			{Name: "Jeans", Sizes: []string{"28", "30", "32", "34", "36", "38"}, Price: 15900},
			{Name: "Polo", Sizes: []string{"M", "L", "XL"}, Price: 7500},
		},
	},
	{
		Name:     "ninos",
		Label:    "Niños",
		Keywords: []string{"nino", "ninos", "nina", "ninas", "infantil", "bebe", "bebes", "chiquito", "chiquita"},
		Items: []Item{
			{Name: "Camiseta", Sizes: []string{"2", "4", "6", "8", "10", "12"}, Price: 4500},
			{Name: "Short", Sizes: []string{"2", "4", "6", "8", "10"}, Price: 5200},
			{Name: "Conjunto", Sizes: []string{"2", "4", "6", "8"}, Price: 9800},
		},
	},
}

func init() {
	for _, c := range Categories {
		quoted := make([]string, len(c.Keywords))
		for i, k := range c.Keywords {
			quoted[i] = regexp.QuoteMeta(k)
		}
		c.match = regexp.MustCompile(`(^| )(` + strings.Join(quoted, "|") + `)( |$)`).MatchString
	}
}

// Lookup returns a category by name.
func Lookup(name string) (*Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Match returns every category mentioned in normalized text, in catalog order.
// A bare menu number ("1", "2", "3") selects the matching category.
func Match(normalized string) []*Category {
	var out []*Category
	for i, c := range Categories {
		if c.match(normalized) || normalized == fmt.Sprintf("%d", i+1) {
			out = append(out, c)
		}
	}
	return out
}

// Quote prices a category: the subtotal is the lowest item price ("desde"),
// shipping is added when the store ships.
func Quote(c *Category, storeType StoreType, now time.Time, ttl time.Duration) model.PendingQuote {
	items := make([]model.QuoteItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, model.QuoteItem{
			Name:  it.Name,
			Sizes: append([]string(nil), it.Sizes...),
			Price: it.Price,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })

	var subtotal int64
	if len(items) > 0 {
		subtotal = items[0].Price
	}
	var shipping int64
	if storeType.Ships() {
		shipping = ShippingFee
	}

	return model.PendingQuote{
		Category:  c.Name,
		Items:     items,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal + shipping,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func Menu() string {
	var b strings.Builder
	b.WriteString("¿Qué estás buscando? Respondé con una opción:\n")
	for i, c := range Categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Label)
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatQuote(q model.PendingQuote) string {
	label := q.Category
	if c, ok := Lookup(q.Category); ok {
		label = c.Label
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Cotización %s:\n", label)
	for _, it := range q.Items {
		fmt.Fprintf(&b, "• %s (tallas %s): %s\n", it.Name, strings.Join(it.Sizes, ", "), Colones(it.Price))
	}
	fmt.Fprintf(&b, "Desde %s", Colones(q.Subtotal))
	if q.Shipping > 0 {
		fmt.Fprintf(&b, " + envío %s = %s", Colones(q.Shipping), Colones(q.Total))
	}
	b.WriteString("\n\n¿Lo querés? Respondé *sí, lo quiero* para pasarte con una vendedora, o *no* para ver otras opciones.")
	return b.String()
}

// Colones formats an amount as "₡14 900".
func Colones(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return "₡" + strings.Join(parts, " ")
}
