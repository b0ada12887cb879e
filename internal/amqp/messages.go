package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementComputedMessage announces that an event's settlement plan
// was recomputed. It carries only the headline numbers; consumers fetch
// the transfer list from the API if they need it.
type SettlementComputedMessage struct {
	EventID       string          `json:"event_id"`
	TransferCount int             `json:"transfer_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Residual      decimal.Decimal `json:"residual"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewSettlementComputedMessage creates an announcement stamped with the
// current time.
func NewSettlementComputedMessage(eventID string, transferCount int, totalAmount, residual decimal.Decimal) *SettlementComputedMessage {
	return &SettlementComputedMessage{
		EventID:       eventID,
		TransferCount: transferCount,
		TotalAmount:   totalAmount,
		Residual:      residual,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SettlementComputedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SettlementComputedMessageFromJSON creates a message from JSON bytes.
func SettlementComputedMessageFromJSON(data []byte) (*SettlementComputedMessage, error) {
	var msg SettlementComputedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
