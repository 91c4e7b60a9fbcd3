package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*EvolutionClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewEvolutionClient(environments.GatewayConfig{
		URL:      server.URL,
		APIKey:   "test-key",
		Instance: "test-instance",
	})

	return client, server
}

func TestSendText_Success(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key": {"id": "wamid-abc", "remoteJid": "5541998712446@s.whatsapp.net"}}`))
	})

	result := client.SendText(context.Background(), "5541998712446", "Ola Ana!")

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Err)
	}
	if result.MessageID != "wamid-abc" {
		t.Errorf("expected message id wamid-abc, got %q", result.MessageID)
	}
	if result.RemoteJID != "5541998712446@s.whatsapp.net" {
		t.Errorf("unexpected remote jid %q", result.RemoteJID)
	}

	if gotPath != "/message/sendText/test-instance" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("expected apikey header, got %q", gotAPIKey)
	}
	if gotBody["number"] != "5541998712446" || gotBody["text"] != "Ola Ana!" {
		t.Errorf("unexpected request body %v", gotBody)
	}
}

func TestSendText_APIErrorNeverReturnsGoError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": ["number not on whatsapp"]}`))
	})

	result := client.SendText(context.Background(), "5541998712446", "oi")

	if result.Success {
		t.Fatalf("expected failure")
	}
	if result.Err != "number not on whatsapp" {
		t.Errorf("expected array error message flattened, got %q", result.Err)
	}
}

func TestSendText_StringErrorMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "invalid api key"}`))
	})

	result := client.SendText(context.Background(), "5541998712446", "oi")

	if result.Success || result.Err != "invalid api key" {
		t.Errorf("expected string error message, got %+v", result)
	}
}

func TestSendText_EmptyNumber(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected for empty number")
	})

	result := client.SendText(context.Background(), "", "oi")
	if result.Success {
		t.Fatalf("expected failure for empty number")
	}
}

func TestFetchIncoming_FlattensContentVariants(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/findMessages/test-instance" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"messages": {
				"records": [
					{
						"key": {"id": "m1", "remoteJid": "5541998712446@s.whatsapp.net", "fromMe": false},
						"pushName": "Ana",
						"messageTimestamp": 1757000000,
						"message": {"conversation": "Oi, tudo bem?"}
					},
					{
						"key": {"id": "m2", "remoteJid": "5541998712446@s.whatsapp.net", "fromMe": false},
						"messageTimestamp": 1757000001,
						"message": {"extendedTextMessage": {"text": "resposta longa"}}
					},
					{
						"key": {"id": "m3", "remoteJid": "123456@g.us", "fromMe": false},
						"messageTimestamp": 1757000002,
						"message": {"imageMessage": {"caption": ""}}
					},
					{
						"key": {"id": "m4", "remoteJid": "5541998712446@s.whatsapp.net", "fromMe": true},
						"messageTimestamp": 1757000003,
						"message": {"audioMessage": {}}
					}
				]
			}
		}`))
	})

	messages, err := client.FetchIncoming(context.Background(), 20)
	if err != nil {
		t.Fatalf("FetchIncoming returned error: %v", err)
	}

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}

	if messages[0].Content != "Oi, tudo bem?" || messages[0].PushName != "Ana" {
		t.Errorf("unexpected first message %+v", messages[0])
	}
	if messages[1].Content != "resposta longa" {
		t.Errorf("expected extended text flattened, got %q", messages[1].Content)
	}
	if !messages[2].IsGroup {
		t.Errorf("expected group jid flagged")
	}
	if messages[2].Content != "[image]" {
		t.Errorf("expected image placeholder, got %q", messages[2].Content)
	}
	if !messages[3].FromMe {
		t.Errorf("expected fromMe preserved")
	}
	if messages[3].Content != "[audio]" {
		t.Errorf("expected audio placeholder, got %q", messages[3].Content)
	}
}

func TestFetchIncoming_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.FetchIncoming(context.Background(), 20); err == nil {
		t.Fatalf("expected error on server failure")
	}
}

func TestConnectionState(t *testing.T) {
	tests := []struct {
		apiState string
		want     State
	}{
		{"open", StateReady},
		{"connecting", StateConnecting},
		{"close", StateDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.apiState, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"instance": {"state": "` + tt.apiState + `"}}`))
			})

			state, err := client.ConnectionState(context.Background())
			if err != nil {
				t.Fatalf("ConnectionState returned error: %v", err)
			}
			if state != tt.want {
				t.Errorf("expected %q, got %q", tt.want, state)
			}
		})
	}
}

func TestLogout_NotFoundTolerated(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("expected 404 tolerated on logout, got %v", err)
	}
}
