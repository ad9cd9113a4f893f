package flow

import (
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

type Action string

const (
	ActionWelcome     Action = "welcome"
	ActionMenu        Action = "menu"
	ActionQuote       Action = "quote"
	ActionQuoteFirst  Action = "quote_first"
	ActionRepeatQuote Action = "repeat_quote"
	ActionPriceHint   Action = "price_hint"
	ActionDelivery    Action = "delivery"
	ActionHours       Action = "hours"
	ActionConfirm     Action = "confirm"
	ActionAlternative Action = "alternative"
	ActionHandoff     Action = "handoff"
	ActionFallback    Action = "fallback"
	ActionSilent      Action = "silent"
)

// Transition is the entry for one (state, intent) pair. ActionQuote may keep
// the current state when the selection is ambiguous; every other action always
// lands on Next.
type Transition struct {
	Next   model.SessionState
	Action Action
}

type Table map[model.SessionState]map[model.Intent]Transition

func (t Table) Lookup(state model.SessionState, intent model.Intent) (Transition, bool) {
	row, ok := t[state]
	if !ok {
		return Transition{}, false
	}
	tr, ok := row[intent]
	return tr, ok
}

type Pair struct {
	State  model.SessionState
	Intent model.Intent
}

// Pairs enumerates every (state, intent) combination the router can see.
func Pairs() []Pair {
	out := make([]Pair, 0, len(model.SessionStates)*len(model.Intents))
	for _, s := range model.SessionStates {
		for _, i := range model.Intents {
			out = append(out, Pair{State: s, Intent: i})
		}
	}
	return out
}

var (
	newState     = model.StateNew
	awaitingCat  = model.StateAwaitingCategory
	awaitingConf = model.StateAwaitingSellerConfirmation
	handedOff    = model.StateHandedOff
)

// Transitions is the fixed router table.
var Transitions = Table{
	newState: {
		model.IntentGreeting:            {awaitingCat, ActionWelcome},
		model.IntentCategorySelection:   {awaitingCat, ActionWelcome},
		model.IntentPriceInquiry:        {awaitingCat, ActionWelcome},
		model.IntentDeliveryMethod:      {awaitingCat, ActionWelcome},
		model.IntentPaymentConfirmation: {awaitingCat, ActionWelcome},
		model.IntentRejection:           {awaitingCat, ActionWelcome},
		model.IntentHandoffRequest:      {handedOff, ActionHandoff},
		model.IntentStoreHours:          {awaitingCat, ActionWelcome},
		model.IntentUnrecognized:        {awaitingCat, ActionWelcome},
	},
	awaitingCat: {
		model.IntentGreeting:            {awaitingCat, ActionMenu},
		model.IntentCategorySelection:   {awaitingConf, ActionQuote},
		model.IntentPriceInquiry:        {awaitingCat, ActionPriceHint},
		model.IntentDeliveryMethod:      {awaitingCat, ActionDelivery},
		model.IntentPaymentConfirmation: {awaitingCat, ActionQuoteFirst},
		model.IntentRejection:           {awaitingCat, ActionAlternative},
		model.IntentHandoffRequest:      {handedOff, ActionHandoff},
		model.IntentStoreHours:          {awaitingCat, ActionHours},
		model.IntentUnrecognized:        {awaitingCat, ActionFallback},
	},
	awaitingConf: {
		model.IntentGreeting:            {awaitingConf, ActionRepeatQuote},
		model.IntentCategorySelection:   {awaitingConf, ActionQuote},
		model.IntentPriceInquiry:        {awaitingConf, ActionRepeatQuote},
		model.IntentDeliveryMethod:      {awaitingConf, ActionDelivery},
		model.IntentPaymentConfirmation: {handedOff, ActionConfirm},
		model.IntentRejection:           {awaitingCat, ActionAlternative},
		model.IntentHandoffRequest:      {handedOff, ActionHandoff},
		model.IntentStoreHours:          {awaitingConf, ActionHours},
		model.IntentUnrecognized:        {awaitingConf, ActionFallback},
	},
	handedOff: {
		model.IntentGreeting:            {handedOff, ActionSilent},
		model.IntentCategorySelection:   {handedOff, ActionSilent},
		model.IntentPriceInquiry:        {handedOff, ActionSilent},
		model.IntentDeliveryMethod:      {handedOff, ActionSilent},
		model.IntentPaymentConfirmation: {handedOff, ActionSilent},
		model.IntentRejection:           {handedOff, ActionSilent},
		model.IntentHandoffRequest:      {handedOff, ActionSilent},
		model.IntentStoreHours:          {handedOff, ActionSilent},
		model.IntentUnrecognized:        {handedOff, ActionSilent},
	},
}
