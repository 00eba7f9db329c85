package feed

import (
	"encoding/json"
	"strings"

	"pumpstream/internal/domain"
)

// ackMarker appears in the server's subscription confirmations.
const ackMarker = "Successfully subscribed"

// Classify inspects a raw feed payload and returns its classified form.
// Classification is by field presence: a txType of buy or sell together
// with a signature and mint makes a trade, a txType of create makes a
// token discovery, the ack marker in the message field makes an
// acknowledgement, and a type of error makes a server error. Anything
// else, including payloads that are not JSON objects, is unrecognized.
// Classify never fails; unknown shapes are not errors.
func Classify(raw []byte) Message {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Message{Kind: KindUnrecognized}
	}

	switch txType := strField(fields, "txType"); txType {
	case "buy", "sell":
		signature := strField(fields, "signature")
		mint := strField(fields, "mint")
		if signature == "" || mint == "" {
			break
		}
		return Message{
			Kind: KindTrade,
			Trade: &domain.TokenTrade{
				Signature:       signature,
				Mint:            mint,
				TraderPublicKey: strField(fields, "traderPublicKey"),
				TxType:          domain.Direction(txType),
				TokenAmount:     numField(fields, "tokenAmount"),
				SolAmount:       numField(fields, "solAmount"),
				TokensInPool:    numField(fields, "tokensInPool"),
				SolInPool:       numField(fields, "solInPool"),
				MarketCapSol:    numField(fields, "marketCapSol"),
				Pool:            strField(fields, "pool"),
			},
		}
	case "create":
		mint := strField(fields, "mint")
		if mint == "" {
			break
		}
		return Message{
			Kind: KindNewToken,
			Token: &domain.NewTokenEvent{
				Mint:   mint,
				Name:   strField(fields, "name"),
				Symbol: strField(fields, "symbol"),
			},
		}
	}

	if text := strField(fields, "message"); strings.Contains(text, ackMarker) {
		return Message{Kind: KindSubscriptionAck, Text: text}
	}

	if strField(fields, "type") == "error" {
		text := strField(fields, "message")
		if text == "" {
			text = string(raw)
		}
		return Message{Kind: KindServerError, Text: text}
	}

	return Message{Kind: KindUnrecognized}
}

func strField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func numField(fields map[string]json.RawMessage, key string) float64 {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return f
}
