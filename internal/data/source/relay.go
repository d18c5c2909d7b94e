package source

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// RelayMessage is one pushed update. Either Name/Value carry a single
// variable change or Values carries several at once.
type RelayMessage struct {
	Name   string             `json:"name,omitempty"`
	Value  *float64           `json:"value,omitempty"`
	Values map[string]float64 `json:"values,omitempty"`
}

// DecodeRelayMessage parses one JSON update.
func DecodeRelayMessage(data []byte) (RelayMessage, error) {
	var msg RelayMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("invalid update: %w", err)
	}
	if msg.Name == "" && len(msg.Values) == 0 {
		return msg, fmt.Errorf("invalid update: no name or values")
	}
	if msg.Name != "" && msg.Value == nil {
		return msg, fmt.Errorf("invalid update: %q carries no value", msg.Name)
	}
	return msg, nil
}

// Apply publishes every value carried by msg.
func (m *Mailbox) Apply(msg RelayMessage) error {
	if msg.Name != "" {
		if msg.Value == nil {
			return fmt.Errorf("%q carries no value", msg.Name)
		}
		if err := m.Publish(msg.Name, *msg.Value); err != nil {
			return err
		}
	}
	if len(msg.Values) > 0 {
		return m.PublishAll(msg.Values)
	}
	return nil
}
