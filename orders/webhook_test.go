package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-assistant/logger"
	"order-assistant/models"
)

func completedSession(t *testing.T) *models.Session {
	t.Helper()
	order, err := newExtractor().Extract(`{"cliente":{"nome":"Ana"},"tipo_atendimento":"retirada","itens":[{"nome_produto":"Pizza","quantidade":1}],"forma_pagamento":"pix"}`, "sess-1")
	require.NoError(t, err)

	s := models.NewSession("sess-1")
	require.NoError(t, s.Complete(order))
	return s
}

func TestDeliver_Success(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		raw, _ := io.ReadAll(r.Body)
		var got models.Order
		assert.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "Ana", got.Cliente.Nome)
		assert.Equal(t, "sess-1", got.Meta.WhatsappConversationID)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "secret", time.Second, logger.Discard())
	s := completedSession(t)

	assert.True(t, d.Deliver(context.Background(), s))
	assert.True(t, s.WebhookSent)
	assert.Equal(t, srv.URL, s.WebhookURL)

	// already delivered
	assert.False(t, d.Deliver(context.Background(), s))
	assert.EqualValues(t, 1, hits.Load())
}

func TestDeliver_FailureLeavesFlagFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "", time.Second, logger.Discard())
	s := completedSession(t)

	assert.False(t, d.Deliver(context.Background(), s))
	assert.False(t, s.WebhookSent)
	assert.Empty(t, s.WebhookURL)
}

func TestDeliver_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d := NewDispatcher(url, "", 200*time.Millisecond, logger.Discard())
	s := completedSession(t)

	assert.False(t, d.Deliver(context.Background(), s))
	assert.False(t, s.WebhookSent)
}

func TestDeliver_Skips(t *testing.T) {
	d := NewDispatcher("", "", 0, logger.Discard())
	assert.False(t, d.Enabled())
	assert.False(t, d.Deliver(context.Background(), completedSession(t)))

	open := models.NewSession("open")
	d = NewDispatcher("http://127.0.0.1:1", "", time.Second, logger.Discard())
	assert.False(t, d.Deliver(context.Background(), open))
}
