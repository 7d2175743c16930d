package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

const EventTransactionCreated = "transaction.created"

// TransactionEvent announces a stored transaction. It carries identifiers only;
// consumers load the transaction itself from the database.
type TransactionEvent struct {
	Event         string    `json:"event"`
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionCreatedEvent(transactionID, userID, txType string) *TransactionEvent {
	return &TransactionEvent{
		Event:         EventTransactionCreated,
		TransactionID: transactionID,
		UserID:        userID,
		Type:          txType,
		Version:       1,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and checks the identifiers every handler relies on.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TransactionID == "" || msg.UserID == "" {
		return nil, errors.New("event missing transaction or user id")
	}
	return &msg, nil
}
