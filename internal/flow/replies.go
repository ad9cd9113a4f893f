package flow

import (
	"fmt"
	"strings"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/catalog"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

func welcomeReply(storeName string) string {
	return fmt.Sprintf("¡Hola! 👋 Bienvenid@ a %s.\n\n%s", storeName, catalog.Menu())
}

func narrowReply(matches []*catalog.Category) string {
	labels := make([]string, len(matches))
	for i, c := range matches {
		labels[i] = c.Label
	}
	return fmt.Sprintf("Tenemos opciones para %s. ¿Cuál te interesa primero?", strings.Join(labels, " y "))
}

func priceHintReply() string {
	return "Los precios dependen de la sección 😊\n\n" + catalog.Menu()
}

func quoteFirstReply() string {
	return "¡Con gusto! Primero decime qué buscás para darte el precio.\n\n" + catalog.Menu()
}

func alternativeReply() string {
	return "Entiendo, no hay problema. Tenemos más opciones para vos 👇\n\n" + catalog.Menu()
}

func repeatQuoteReply(q *model.PendingQuote) string {
	if q == nil {
		return catalog.Menu()
	}
	return catalog.FormatQuote(*q)
}

func deliveryReply(storeType catalog.StoreType) string {
	switch storeType {
	case catalog.StorePickup:
		return "Podés recoger tu pedido en la tienda 🏬. Por ahora no hacemos envíos."
	case catalog.StoreShipping:
		return fmt.Sprintf("Hacemos envíos a todo el país por Correos de Costa Rica 📦 (%s). Trabajamos solo con envíos.",
			catalog.Colones(catalog.ShippingFee))
	default:
		return fmt.Sprintf("Podés recoger en la tienda 🏬 o te lo enviamos por Correos de Costa Rica 📦 (%s).",
			catalog.Colones(catalog.ShippingFee))
	}
}

func hoursReply(describe string, open bool) string {
	status := "Ahora estamos abiertos ✅"
	if !open {
		status = "En este momento estamos cerrados 🌙"
	}
	return fmt.Sprintf("Nuestro horario es de %s. %s", describe, status)
}

func confirmReply() string {
	return "¡Excelente! 🙌 Una vendedora te va a escribir en breve para coordinar el pago y la entrega."
}

func handoffReply() string {
	return "Listo, te paso con una persona de nuestro equipo. En un momento te atienden 🙋‍♀️"
}

func fallbackReply() string {
	return "Disculpá, no te entendí 🙈. Podés escribirme la sección que buscás (dama, caballero o niños), " +
		"preguntar por envíos u horario, o escribir *asesor* para hablar con una persona."
}

func closedNotice(describe string) string {
	return fmt.Sprintf("⏰ Estamos fuera de horario (%s). Te respondemos en cuanto abramos.", describe)
}
