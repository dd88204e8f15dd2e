package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-assistant/assistant"
	"order-assistant/middlewares"
	"order-assistant/models"
	"order-assistant/store"
)

type fakeChat struct {
	gotMessage string
	gotSession string
	reports    map[string]*assistant.StatusReport
}

func (f *fakeChat) Chat(_ context.Context, message, sessionID string) assistant.Reply {
	f.gotMessage = message
	f.gotSession = sessionID
	return assistant.Reply{Response: "Olá!", SessionID: sessionID}
}

func (f *fakeChat) Status(_ context.Context, sessionID string) (*assistant.StatusReport, error) {
	if r, ok := f.reports[sessionID]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func newApp(svc ChatService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	cc := NewChatController(svc)
	app.Post("/chat", cc.SendMessage)
	app.Get("/chat/status", cc.GetStatus)
	app.Get("/health", Health)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSendMessage_GeneratesSessionID(t *testing.T) {
	svc := &fakeChat{}
	status, body := do(t, newApp(svc), postJSON(`{"message":"  oi  "}`))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Olá!", body["response"])
	assert.Equal(t, false, body["order_complete"])
	assert.Nil(t, body["order_data"])
	assert.Equal(t, "oi", svc.gotMessage)
	assert.NotEmpty(t, svc.gotSession)
	assert.Equal(t, svc.gotSession, body["session_id"])
}

func TestSendMessage_NewSessionsAreDistinct(t *testing.T) {
	svc := &fakeChat{}
	app := newApp(svc)

	_, first := do(t, app, postJSON(`{"message":"oi"}`))
	_, second := do(t, app, postJSON(`{"message":"oi"}`))
	assert.NotEqual(t, first["session_id"], second["session_id"])
}

func TestSendMessage_KeepsSessionID(t *testing.T) {
	svc := &fakeChat{}
	_, body := do(t, newApp(svc), postJSON(`{"message":"oi","session_id":"sess-1"}`))
	assert.Equal(t, "sess-1", svc.gotSession)
	assert.Equal(t, "sess-1", body["session_id"])
}

func TestSendMessage_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing message", `{"session_id":"s"}`, "message"},
		{"blank message", `{"message":"   "}`, "message"},
		{"message too long", `{"message":"` + strings.Repeat("a", 1001) + `"}`, "message"},
		{"session id too long", `{"message":"oi","session_id":"` + strings.Repeat("s", 192) + `"}`, "session_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, newApp(&fakeChat{}), postJSON(tt.body))
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			errs, ok := body["errors"].(map[string]any)
			require.True(t, ok)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestSendMessage_MessageAtLimitAccepted(t *testing.T) {
	status, _ := do(t, newApp(&fakeChat{}), postJSON(`{"message":"`+strings.Repeat("é", 1000)+`"}`))
	assert.Equal(t, http.StatusOK, status)
}

func TestSendMessage_BadJSON(t *testing.T) {
	status, body := do(t, newApp(&fakeChat{}), postJSON(`{"message":`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid request body", body["message"])
}

func TestGetStatus(t *testing.T) {
	svc := &fakeChat{reports: map[string]*assistant.StatusReport{
		"sess-1": {Status: models.StatusCompleted, IsComplete: true, WebhookSent: true,
			OrderData: &models.Order{Cliente: models.Customer{Nome: "Ana"}}},
	}}
	app := newApp(svc)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/chat/status?session_id=sess-1", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, true, body["is_complete"])
	assert.Equal(t, true, body["webhook_sent"])
	order := body["order_data"].(map[string]any)
	assert.Equal(t, "Ana", order["cliente"].(map[string]any)["nome"])

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/chat/status?session_id=unknown", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "not_found"}, body)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/chat/status", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "session_id")
}

func TestHealth(t *testing.T) {
	status, body := do(t, newApp(&fakeChat{}), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
