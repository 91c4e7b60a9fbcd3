// Package gateway normalizes calls to the external WhatsApp messaging API.
// Retry policy lives entirely in the callers; this layer performs exactly one
// outbound call per operation and reports delivery failures as values.
package gateway

import (
	"context"
	"time"
)

// SendResult reports one delivery attempt. Err is a human-readable reason and
// is set whenever Success is false; transport errors, timeouts and provider
// rejections all surface the same way.
type SendResult struct {
	Success   bool
	MessageID string
	RemoteJID string
	Err       string
}

// InboundMessage is one message received by the gateway instance.
type InboundMessage struct {
	ProviderMessageID string
	RemoteJID         string
	FromMe            bool
	IsGroup           bool
	Content           string
	PushName          string
	Timestamp         int64
}

// State describes the gateway instance connection.
type State string

const (
	StateReady        State = "ready"
	StateConnecting   State = "connecting"
	StateDisconnected State = "disconnected"
	StateError        State = "error"
)

// Gateway is the single messaging capability the engine depends on. One
// concrete implementation is selected at startup; the engine never branches
// on backend identity.
type Gateway interface {
	// SendText delivers one text message. It never returns a Go error:
	// failures are values in the result.
	SendText(ctx context.Context, number, text string) SendResult

	// FetchIncoming returns up to limit recently received messages,
	// newest ones included. Transport errors abort the whole call.
	FetchIncoming(ctx context.Context, limit int) ([]InboundMessage, error)

	// ConnectionState reports whether the instance is connected.
	ConnectionState(ctx context.Context) (State, error)
}

const (
	sendTimeout  = 15 * time.Second
	pollTimeout  = 10 * time.Second
	stateTimeout = 5 * time.Second
)
