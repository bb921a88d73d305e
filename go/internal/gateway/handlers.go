package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/oscarnight/go/internal/collections"
	"github.com/mcdev12/oscarnight/go/internal/countdown"
	"github.com/mcdev12/oscarnight/go/internal/models"
)

var errBadPayload = errors.New("malformed event payload")

type handlerFunc func(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error)

func defaultHandlers() map[string]handlerFunc {
	handlers := map[string]handlerFunc{
		EventUserRegister:           handleUserRegister,
		EventUserUUID:               handleUserUUID,
		EventUserUpdate:             handleUserUpdate,
		EventCategoryUpdate:         handleCategoryUpdate,
		EventCategoryStartCountdown: handleStartCountdown,
		EventBuzzerBuzz:             handleBuzz,
		EventBuzzerUnbuzz:           handleUnbuzz,
		EventBuzzerReset:            handleBuzzerReset,
	}

	// Television relays carry no state of their own
	for _, event := range []string{
		EventTVQRString,
		EventTVViewName,
		EventTVNetworkInfo,
		EventTVCategory,
		EventTVLeaderboardName,
	} {
		handlers[event] = relay(event)
	}
	return handlers
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload: %w", errBadPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%v: %w", err, errBadPayload)
	}
	return nil
}

func handleUserRegister(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	var name string
	if err := decodePayload(payload, &name); err != nil {
		return Outcome{}, err
	}

	user, created, err := e.store.RegisterOrFetch(name)
	if err != nil {
		return Outcome{}, err
	}
	c.Bind(user.UUID)

	outcome := Outcome{Reply: user}
	if created {
		outcome.Broadcasts = []Broadcast{{Event: EventUserUpdate, Delivery: DeliverAll, Data: e.store.Users()}}
		outcome.Persist = []collections.Key{collections.KeyUsers}
	}
	return outcome, nil
}

func handleUserUUID(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	var id string
	if err := decodePayload(payload, &id); err != nil {
		return Outcome{}, err
	}

	// Unknown ids reply null
	if user, ok := e.store.UserByUUID(id); ok {
		return Outcome{Reply: user}, nil
	}
	return Outcome{}, nil
}

func handleUserUpdate(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	users, err := collections.DecodeOneOrMany[models.User](payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("%v: %w", err, errBadPayload)
	}
	if err := e.store.UpdateUsers(users); err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Broadcasts: []Broadcast{{Event: EventUserUpdate, Delivery: DeliverOthers, Data: payload}},
		Persist:    []collections.Key{collections.KeyUsers},
	}, nil
}

func handleCategoryUpdate(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	categories, err := collections.DecodeOneOrMany[models.Category](payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("%v: %w", err, errBadPayload)
	}
	if err := e.store.UpdateCategories(categories); err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Broadcasts: []Broadcast{{Event: EventCategoryUpdate, Delivery: DeliverOthers, Data: payload}},
		Persist:    []collections.Key{collections.KeyCategories},
	}, nil
}

type startCountdownRequest struct {
	CategoryName string          `json:"categoryName"`
	SecondsDelay json.RawMessage `json:"secondsDelay"`
}

// CountdownStarted is the reply to category:startCountdown
type CountdownStarted struct {
	CategoryName string    `json:"categoryName"`
	LocksAt      time.Time `json:"locksAt"`
}

func handleStartCountdown(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	var req startCountdownRequest
	if err := decodePayload(payload, &req); err != nil {
		return Outcome{}, err
	}

	category, ok := e.store.Category(req.CategoryName)
	if !ok {
		return Outcome{}, fmt.Errorf("category %q: %w", req.CategoryName, collections.ErrNotFound)
	}
	if category.Locked {
		return Outcome{}, fmt.Errorf("category %q: %w", req.CategoryName, collections.ErrCategoryLocked)
	}

	seconds, err := parseSeconds(req.SecondsDelay)
	if err != nil {
		return Outcome{}, err
	}
	delay, err := countdown.DelayFromSeconds(seconds)
	if err != nil {
		return Outcome{}, err
	}

	deadline, err := e.countdown.Start(e.ctx, category.Name, delay)
	if err != nil {
		return Outcome{}, fmt.Errorf("category %q: %w", category.Name, err)
	}

	return Outcome{
		Reply:      CountdownStarted{CategoryName: category.Name, LocksAt: deadline.UTC()},
		Broadcasts: []Broadcast{{Event: EventCategoryStartCountdown, Delivery: DeliverAll, Data: payload}},
	}, nil
}

// parseSeconds accepts a JSON number or a numeric string
func parseSeconds(raw json.RawMessage) (float64, error) {
	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err == nil {
		return seconds, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("secondsDelay %s: %w", string(raw), countdown.ErrInvalidDelay)
}

func handleBuzz(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	var id string
	if err := decodePayload(payload, &id); err != nil {
		return Outcome{}, err
	}

	queue, err := e.store.Buzz(id)
	if err != nil {
		return Outcome{}, err
	}
	return buzzesOutcome(queue), nil
}

func handleUnbuzz(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	var id string
	if err := decodePayload(payload, &id); err != nil {
		return Outcome{}, err
	}
	return buzzesOutcome(e.store.Unbuzz(id)), nil
}

func handleBuzzerReset(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
	return buzzesOutcome(e.store.ResetBuzzes()), nil
}

func buzzesOutcome(queue []string) Outcome {
	return Outcome{
		Reply:      queue,
		Broadcasts: []Broadcast{{Event: EventBuzzerAllBuzzes, Delivery: DeliverAll, Data: queue}},
		Persist:    []collections.Key{collections.KeyBuzzes},
	}
}

func relay(event string) handlerFunc {
	return func(e *Engine, c *Connection, payload json.RawMessage) (Outcome, error) {
		return Outcome{
			Broadcasts: []Broadcast{{Event: event, Delivery: DeliverAll, Data: payload}},
		}, nil
	}
}
