// Package notifier は決済イベントを外部に流す。
package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope はブローカーに流すメッセージの形
type Envelope struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func encode(event string, payload any, now time.Time) (Envelope, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env := Envelope{
		ID:         uuid.NewString(),
		Event:      event,
		OccurredAt: now.UTC(),
		Payload:    raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return env, body, nil
}
