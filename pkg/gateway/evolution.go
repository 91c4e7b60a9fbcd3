package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
)

// EvolutionClient talks to an Evolution API instance.
type EvolutionClient struct {
	httpClient *resty.Client
	baseURL    string
	instance   string
}

func NewEvolutionClient(cfg environments.GatewayConfig) *EvolutionClient {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", cfg.APIKey)

	return &EvolutionClient{
		httpClient: client,
		baseURL:    cfg.URL,
		instance:   cfg.Instance,
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendTextResponse struct {
	Key struct {
		ID        string `json:"id"`
		RemoteJID string `json:"remoteJid"`
	} `json:"key"`
}

type apiError struct {
	Message any `json:"message"`
}

func (e *apiError) text() string {
	switch m := e.Message.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func (c *EvolutionClient) SendText(ctx context.Context, number, text string) SendResult {
	if number == "" {
		return SendResult{Success: false, Err: "invalid phone number"}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	var (
		body   sendTextResponse
		apiErr apiError
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(sendTextRequest{Number: number, Text: text}).
		SetResult(&body).
		SetError(&apiErr).
		Post("/message/sendText/" + c.instance)
	if err != nil {
		return SendResult{Success: false, Err: err.Error()}
	}

	if resp.IsError() {
		reason := apiErr.text()
		if reason == "" {
			reason = fmt.Sprintf("gateway returned status %d", resp.StatusCode())
		}
		return SendResult{Success: false, Err: reason}
	}

	logger.Infof("Gateway: message sent to %s", number)

	return SendResult{
		Success:   true,
		MessageID: body.Key.ID,
		RemoteJID: body.Key.RemoteJID,
	}
}

type findMessagesRequest struct {
	Where findMessagesWhere `json:"where"`
	Limit int               `json:"limit"`
}

type findMessagesWhere struct {
	Key map[string]any `json:"key"`
}

type findMessagesResponse struct {
	Messages struct {
		Records []inboundRecord `json:"records"`
	} `json:"messages"`
}

type inboundRecord struct {
	Key struct {
		ID        string `json:"id"`
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`
	PushName         string         `json:"pushName"`
	MessageTimestamp int64          `json:"messageTimestamp"`
	Message          inboundContent `json:"message"`
}

type inboundContent struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
	ImageMessage *struct {
		Caption string `json:"caption"`
	} `json:"imageMessage"`
	VideoMessage *struct {
		Caption string `json:"caption"`
	} `json:"videoMessage"`
	AudioMessage    *struct{} `json:"audioMessage"`
	DocumentMessage *struct{} `json:"documentMessage"`
}

// text flattens the provider's polymorphic message payload into a single
// line, with a placeholder for media without a caption.
func (m *inboundContent) text() string {
	switch {
	case m.Conversation != "":
		return m.Conversation
	case m.ExtendedTextMessage != nil && m.ExtendedTextMessage.Text != "":
		return m.ExtendedTextMessage.Text
	case m.ImageMessage != nil && m.ImageMessage.Caption != "":
		return m.ImageMessage.Caption
	case m.VideoMessage != nil && m.VideoMessage.Caption != "":
		return m.VideoMessage.Caption
	case m.ImageMessage != nil:
		return "[image]"
	case m.VideoMessage != nil:
		return "[video]"
	case m.AudioMessage != nil:
		return "[audio]"
	case m.DocumentMessage != nil:
		return "[document]"
	default:
		return "[message]"
	}
}

func (c *EvolutionClient) FetchIncoming(ctx context.Context, limit int) ([]InboundMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	var body findMessagesResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(findMessagesRequest{
			Where: findMessagesWhere{Key: map[string]any{"fromMe": false}},
			Limit: limit,
		}).
		SetResult(&body).
		Post("/chat/findMessages/" + c.instance)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incoming messages: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway returned status %d fetching incoming messages", resp.StatusCode())
	}

	messages := make([]InboundMessage, 0, len(body.Messages.Records))
	for _, rec := range body.Messages.Records {
		messages = append(messages, InboundMessage{
			ProviderMessageID: rec.Key.ID,
			RemoteJID:         rec.Key.RemoteJID,
			FromMe:            rec.Key.FromMe,
			IsGroup:           strings.HasSuffix(rec.Key.RemoteJID, "@g.us"),
			Content:           rec.Message.text(),
			PushName:          rec.PushName,
			Timestamp:         rec.MessageTimestamp,
		})
	}

	return messages, nil
}

type connectionStateResponse struct {
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
}

func (c *EvolutionClient) ConnectionState(ctx context.Context) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, stateTimeout)
	defer cancel()

	var body connectionStateResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/instance/connectionState/" + c.instance)
	if err != nil {
		return StateError, fmt.Errorf("failed to get connection state: %w", err)
	}
	if resp.IsError() {
		return StateError, fmt.Errorf("gateway returned status %d for connection state", resp.StatusCode())
	}

	// Evolution API states: open, connecting, close.
	switch body.Instance.State {
	case "open":
		return StateReady, nil
	case "connecting":
		return StateConnecting, nil
	default:
		return StateDisconnected, nil
	}
}

type connectResponse struct {
	Base64 string `json:"base64"`
	Code   string `json:"code"`
}

// Connect asks the instance for a pairing QR code (base64 image) and an
// optional pairing code.
func (c *EvolutionClient) Connect(ctx context.Context) (qrCode, pairingCode string, err error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	var body connectResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/instance/connect/" + c.instance)
	if err != nil {
		return "", "", fmt.Errorf("failed to connect instance: %w", err)
	}
	if resp.IsError() {
		return "", "", fmt.Errorf("gateway returned status %d connecting instance", resp.StatusCode())
	}

	return body.Base64, body.Code, nil
}

// Logout disconnects the instance from WhatsApp.
func (c *EvolutionClient) Logout(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Delete("/instance/logout/" + c.instance)
	if err != nil {
		return fmt.Errorf("failed to logout instance: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("gateway returned status %d on logout", resp.StatusCode())
	}

	logger.Infof("Gateway: instance %s logged out", c.instance)
	return nil
}

// Restart reboots the gateway instance.
func (c *EvolutionClient) Restart(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(struct{}{}).
		Put("/instance/restart/" + c.instance)
	if err != nil {
		return fmt.Errorf("failed to restart instance: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gateway returned status %d on restart", resp.StatusCode())
	}

	logger.Infof("Gateway: instance %s restarted", c.instance)
	return nil
}
