// Package feed connects to the PumpPortal WebSocket feed, classifies
// inbound messages, and records trades for tracked tokens.
package feed

import "pumpstream/internal/domain"

// Kind identifies the category of an inbound feed message.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindTrade
	KindNewToken
	KindSubscriptionAck
	KindServerError
)

// String returns the metrics label for the kind.
func (k Kind) String() string {
	switch k {
	case KindTrade:
		return "trade"
	case KindNewToken:
		return "new_token"
	case KindSubscriptionAck:
		return "subscription_ack"
	case KindServerError:
		return "server_error"
	default:
		return "unrecognized"
	}
}

// Message is a classified inbound feed message. Exactly one of Trade
// and Token is set, depending on Kind.
type Message struct {
	Kind  Kind
	Trade *domain.TokenTrade
	Token *domain.NewTokenEvent

	// Text carries the server's acknowledgement or error detail.
	Text string
}

// Subscription directive methods understood by the feed.
const (
	methodSubscribeNewToken     = "subscribeNewToken"
	methodSubscribeTokenTrade   = "subscribeTokenTrade"
	methodUnsubscribeTokenTrade = "unsubscribeTokenTrade"
)

// directive is an outbound subscription control message.
type directive struct {
	Method string   `json:"method"`
	Keys   []string `json:"keys,omitempty"`
}
