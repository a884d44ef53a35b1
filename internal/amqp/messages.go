package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEvent is the message published after every successful ledger
// write. It carries identifiers only; consumers that need the record
// fetch it from the store.
type LedgerEvent struct {
	Op        string    `json:"op"` // created | updated | deleted
	TxID      string    `json:"txId"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(op, txID, owner string, at time.Time) *LedgerEvent {
	return &LedgerEvent{Op: op, TxID: txID, Owner: owner, Timestamp: at}
}

// ToJSON converts the event to JSON bytes.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
