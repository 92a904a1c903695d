package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionRecordedType is the AMQP message type of TransactionRecordedMessage.
const TransactionRecordedType = "transaction.recorded"

// TransactionRecordedMessage announces a committed transaction. It carries ids
// only; consumers read the ledger for the rest.
type TransactionRecordedMessage struct {
	MessageID     string    `json:"message_id"`
	AccountID     int64     `json:"account_id"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(accountID, transactionID int64, at time.Time) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		MessageID:     uuid.NewString(),
		AccountID:     accountID,
		TransactionID: transactionID,
		Timestamp:     at.UTC(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes and checks a message body.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.AccountID <= 0 || msg.TransactionID <= 0 {
		return nil, errors.New("message is missing account or transaction id")
	}
	return &msg, nil
}
