package model

type SessionState string

const (
	StateNew                        SessionState = "NEW"
	StateAwaitingCategory           SessionState = "ESPERANDO_GENERO"
	StateAwaitingSellerConfirmation SessionState = "ESPERANDO_CONFIRMACION_VENDEDOR"
	StateHandedOff                  SessionState = "HANDED_OFF"
)

var SessionStates = []SessionState{
	StateNew,
	StateAwaitingCategory,
	StateAwaitingSellerConfirmation,
	StateHandedOff,
}

func (s SessionState) Valid() bool {
	for _, v := range SessionStates {
		if s == v {
			return true
		}
	}
	return false
}

type Intent string

const (
	IntentGreeting            Intent = "greeting"
	IntentCategorySelection   Intent = "category_selection"
	IntentPriceInquiry        Intent = "price_inquiry"
	IntentDeliveryMethod      Intent = "delivery_method"
	IntentPaymentConfirmation Intent = "payment_confirmation"
	IntentRejection           Intent = "rejection"
	IntentHandoffRequest      Intent = "handoff_request"
	IntentStoreHours          Intent = "store_hours"
	IntentUnrecognized        Intent = "unrecognized"
)

var Intents = []Intent{
	IntentGreeting,
	IntentCategorySelection,
	IntentPriceInquiry,
	IntentDeliveryMethod,
	IntentPaymentConfirmation,
	IntentRejection,
	IntentHandoffRequest,
	IntentStoreHours,
	IntentUnrecognized,
}

type Direction string

const (
	DirectionInbound  Direction = "in"
	DirectionOutbound Direction = "out"
	DirectionManual   Direction = "manual"
)

type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionAwaitingQR   ConnectionStatus = "qr"
)
