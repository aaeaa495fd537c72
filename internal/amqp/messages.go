package amqp

import (
	"encoding/json"
	"time"
)

// Mutation ops carried by sync messages.
const (
	OpAdd    = "add"
	OpDelete = "delete"
)

// RecordSyncMessage tells the mirror worker that a record changed. It
// carries only the id and operation; the worker fetches the row itself.
type RecordSyncMessage struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordSyncMessage(id int64, op string) *RecordSyncMessage {
	return &RecordSyncMessage{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
