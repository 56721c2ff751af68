package amqp

import (
	"encoding/json"
	"time"
)

// PaymentSyncMessage is the lightweight message queued when a payment needs
// syncing to the statement sheet. It carries only the ID and version; the
// worker fetches the full payment from the database.
type PaymentSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPaymentSyncMessage(id, version int64) *PaymentSyncMessage {
	return &PaymentSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *PaymentSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PaymentSyncMessageFromJSON(data []byte) (*PaymentSyncMessage, error) {
	var msg PaymentSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
