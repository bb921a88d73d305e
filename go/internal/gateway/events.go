package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/oscarnight/go/internal/collections"
)

// Message is the envelope for every frame sent or received on /ws
type Message struct {
	Event     string          `json:"event"`
	Ack       string          `json:"ack,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	EventUserRegister = "user:register"
	EventUserUUID     = "user:uuid"
	EventUserUpdate   = "user:update"

	EventCategoryUpdate         = "category:update"
	EventCategoryStartCountdown = "category:startCountdown"

	EventBuzzerBuzz      = "buzzer:buzz"
	EventBuzzerUnbuzz    = "buzzer:unbuzz"
	EventBuzzerReset     = "buzzer:reset"
	EventBuzzerAllBuzzes = "buzzer:allBuzzes"

	EventTVQRString        = "tv:QRString"
	EventTVViewName        = "tv:viewName"
	EventTVNetworkInfo     = "tv:networkInfo"
	EventTVCategory        = "tv:category"
	EventTVLeaderboardName = "tv:leaderboardName"
)

// Delivery selects the recipients of a broadcast
type Delivery string

const (
	// DeliverOthers sends to every connection except the one that caused the event
	DeliverOthers Delivery = "others"
	// DeliverAll sends to every connection
	DeliverAll Delivery = "all"
)

// Broadcast is one fan-out produced by a handler
type Broadcast struct {
	Event    string
	Delivery Delivery
	Data     any
}

// Outcome is what a handler asks the engine to do after a successful mutation.
// Reply is sent only when the inbound frame carried an ack id.
type Outcome struct {
	Reply      any
	Broadcasts []Broadcast
	Persist    []collections.Key
}

func newMessage(event string, data any) (Message, error) {
	msg := Message{Event: event, Timestamp: time.Now().UTC()}
	if data == nil {
		return msg, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		msg.Data = raw
		return msg, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	msg.Data = encoded
	return msg, nil
}
