package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind identifies one variant of the event envelope.
type Kind string

const (
	KindStatus        Kind = "status"
	KindVendResponse  Kind = "vend-response"
	KindVendComplete  Kind = "vend-complete"
	KindBackendStatus Kind = "backend-status"
	KindUnknown       Kind = "unknown"
)

// Event is one decoded inbound frame. Raw returns the frame verbatim so the
// relay can forward it downstream without re-encoding.
type Event interface {
	Kind() Kind
	Raw() []byte
}

type envelope struct {
	raw []byte
}

func (e envelope) Raw() []byte { return e.raw }

// StatusEvent reports the machine state ("idle" or "vending").
type StatusEvent struct {
	envelope
	Status      string  `json:"status"`
	Items       []int   `json:"items,omitempty"`
	Message     string  `json:"message,omitempty"`
	ElapsedTime float64 `json:"elapsedTime,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

func (StatusEvent) Kind() Kind { return KindStatus }

// VendResponseEvent is the controller's verdict on a vend command.
type VendResponseEvent struct {
	envelope
	Success       bool    `json:"success"`
	Message       string  `json:"message,omitempty"`
	Items         []int   `json:"items,omitempty"`
	EstimatedTime float64 `json:"estimatedTime,omitempty"`
}

func (VendResponseEvent) Kind() Kind { return KindVendResponse }

// VendCompleteEvent signals that the physical dispense finished.
type VendCompleteEvent struct {
	envelope
	Status      string `json:"status,omitempty"`
	Message     string `json:"message"`
	VendedItems []int  `json:"vendedItems"`
	Timestamp   string `json:"timestamp,omitempty"`
}

func (VendCompleteEvent) Kind() Kind { return KindVendComplete }

// BackendStatusEvent is the relay-originated connectivity ack sent once per
// new downstream connection. It never originates from the VMC.
type BackendStatusEvent struct {
	envelope
	Message string `json:"message"`
}

func (BackendStatusEvent) Kind() Kind { return KindBackendStatus }

// UnknownEvent carries a well-formed frame whose type is outside the
// vocabulary. Consumers must ignore it without changing state.
type UnknownEvent struct {
	envelope
	Type string
}

func (UnknownEvent) Kind() Kind { return KindUnknown }

// DecodeEvent decodes one inbound JSON frame into its envelope variant.
// Malformed JSON yields an error; a well-formed frame with an unrecognized
// (or absent) type yields an UnknownEvent.
func DecodeEvent(data []byte) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch Kind(probe.Type) {
	case KindStatus:
		var ev StatusEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode status event: %w", err)
		}
		ev.raw = data
		return ev, nil
	case KindVendResponse:
		var ev VendResponseEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode vend-response event: %w", err)
		}
		ev.raw = data
		return ev, nil
	case KindVendComplete:
		var ev VendCompleteEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode vend-complete event: %w", err)
		}
		ev.raw = data
		return ev, nil
	case KindBackendStatus:
		var ev BackendStatusEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode backend-status event: %w", err)
		}
		ev.raw = data
		return ev, nil
	default:
		return UnknownEvent{envelope: envelope{raw: data}, Type: probe.Type}, nil
	}
}

// EncodeBackendStatus builds the relay-originated connectivity ack frame.
func EncodeBackendStatus(message string) ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: string(KindBackendStatus), Message: message})
}
