package flow

import (
	"time"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/catalog"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/intent"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

const (
	AnswerCategory = "categoria"
	AnswerDelivery = "entrega"
)

type HoursOracle interface {
	IsOpen(t time.Time) bool
	Describe() string
}

// Tables holds the static inputs of the router.
type Tables struct {
	Classifier  *intent.Classifier
	Transitions Table
	Hours       HoursOracle
	StoreType   catalog.StoreType
	StoreName   string
	QuoteTTL    time.Duration
}

type Input struct {
	Session model.Session
	Text    string
	Now     time.Time
}

type Decision struct {
	Session     model.Session      `json:"session"`
	Patch       model.SessionPatch `json:"-"`
	Intent      model.Intent       `json:"intent"`
	Rule        string             `json:"rule,omitempty"`
	Action      Action             `json:"action"`
	Replies     []string           `json:"replies"`
	Counted     bool               `json:"counted"`
	QuoteIssued bool               `json:"quoteIssued"`
	Confirmed   bool               `json:"confirmed"`
	HandedOff   bool               `json:"handedOff"`
	Silent      bool               `json:"silent"`
}

// Decide computes the next session state and the replies for one inbound
// message. It performs no I/O.
func Decide(in Input, t Tables) Decision {
	if t.Classifier == nil {
		t.Classifier = intent.NewClassifier(nil)
	}
	if t.Transitions == nil {
		t.Transitions = Transitions
	}

	current := in.Session
	if !current.Valid() {
		current = model.NewSession(current.ContactKey, in.Now)
	}

	result := t.Classifier.Classify(in.Text)
	tr, ok := t.Transitions.Lookup(current.State, result.Intent)
	if !ok {
		tr = Transition{Next: current.State, Action: ActionFallback}
	}
	if result.Intent == model.IntentHandoffRequest && current.State != model.StateHandedOff {
		tr = Transition{Next: model.StateHandedOff, Action: ActionHandoff}
	}

	d := Decision{
		Intent: result.Intent,
		Rule:   result.Rule,
		Action: tr.Action,
	}
	patch := model.SessionPatch{}
	next := tr.Next

	open := true
	describe := ""
	if t.Hours != nil {
		open = t.Hours.IsOpen(in.Now)
		describe = t.Hours.Describe()
	}

	switch tr.Action {
	case ActionWelcome:
		d.Replies = append(d.Replies, welcomeReply(t.StoreName))
		if result.Intent == model.IntentStoreHours {
			d.Replies = append(d.Replies, hoursReply(describe, open))
		}
		patch.ClearQuote = true

	case ActionMenu:
		d.Replies = append(d.Replies, catalog.Menu())

	case ActionQuote:
		matches := catalog.Match(result.Normalized)
		switch {
		case len(matches) == 1:
			q := catalog.Quote(matches[0], t.StoreType, in.Now, t.QuoteTTL)
			patch.Quote = &q
			patch.Answers = map[string]string{AnswerCategory: matches[0].Name}
			d.Replies = append(d.Replies, catalog.FormatQuote(q))
			d.QuoteIssued = true
		default:
			next = current.State
			d.Replies = append(d.Replies, narrowReply(matches))
		}

	case ActionQuoteFirst:
		d.Replies = append(d.Replies, quoteFirstReply())

	case ActionRepeatQuote:
		d.Replies = append(d.Replies, repeatQuoteReply(current.Quote))

	case ActionPriceHint:
		d.Replies = append(d.Replies, priceHintReply())

	case ActionDelivery:
		d.Replies = append(d.Replies, deliveryReply(t.StoreType))
		if method := deliveryPreference(result.Normalized, t.StoreType); method != "" {
			patch.Answers = map[string]string{AnswerDelivery: method}
		}

	case ActionHours:
		d.Replies = append(d.Replies, hoursReply(describe, open))

	case ActionConfirm:
		d.Replies = append(d.Replies, confirmReply())
		d.Confirmed = true

	case ActionAlternative:
		d.Replies = append(d.Replies, alternativeReply())
		patch.ClearQuote = true

	case ActionHandoff:
		d.Replies = append(d.Replies, handoffReply())

	case ActionFallback:
		d.Replies = append(d.Replies, fallbackReply())

	case ActionSilent:
		d.Silent = true
	}

	if next == model.StateHandedOff && current.State != model.StateHandedOff {
		d.HandedOff = true
		at := in.Now
		patch.HandedOffAt = &at
	}
	patch.State = model.StatePtr(next)

	if !open && result.Intent != model.IntentStoreHours && len(d.Replies) > 0 {
		d.Replies = append(d.Replies, closedNotice(describe))
	}

	d.Counted = result.Intent != model.IntentUnrecognized && !d.Silent
	d.Patch = patch
	d.Session = patch.Apply(current)
	d.Session.LastActivity = in.Now
	return d
}

func deliveryPreference(normalized string, storeType catalog.StoreType) string {
	switch {
	case storeType == catalog.StorePickup:
		return "retiro"
	case storeType == catalog.StoreShipping:
		return "envio"
	case mentionsPickup(normalized):
		return "retiro"
	case mentionsShipping(normalized):
		return "envio"
	}
	return ""
}

var (
	mentionsPickup   = wordMatcher("recoger", "retiro", "retirar", "pasar por", "tienda")
	mentionsShipping = wordMatcher("envio", "envios", "envian", "enviar", "correos")
)
