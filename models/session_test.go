package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pickupOrder() *Order {
	return &Order{
		Cliente:         Customer{Nome: "Ana"},
		TipoAtendimento: ServicePickup,
		Itens:           []OrderItem{{NomeProduto: "Pizza", Quantidade: 1}},
		FormaPagamento:  "pix",
	}
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession("sess-1")
	assert.False(t, s.IsCompleted())
	assert.False(t, s.HasOrder())
	assert.False(t, s.IsComplete())
	assert.ErrorIs(t, s.MarkDelivered("http://hooks.local"), ErrOrderMissing)
	assert.ErrorIs(t, s.Complete(nil), ErrOrderMissing)
	assert.False(t, s.IsCompleted())

	require.NoError(t, s.Complete(pickupOrder()))
	assert.True(t, s.IsCompleted())
	assert.True(t, s.HasOrder())
	assert.True(t, s.IsComplete())

	other := pickupOrder()
	other.Cliente.Nome = "Bruno"
	assert.ErrorIs(t, s.Complete(other), ErrAlreadyCompleted)

	order, err := s.Order()
	require.NoError(t, err)
	assert.Equal(t, "Ana", order.Cliente.Nome)

	require.NoError(t, s.MarkDelivered("http://hooks.local"))
	assert.True(t, s.WebhookSent)
	assert.Equal(t, "http://hooks.local", s.WebhookURL)
}

func TestSession_IsCompleteRequiresEssentials(t *testing.T) {
	order := pickupOrder()
	order.FormaPagamento = ""

	s := NewSession("sess-1")
	require.NoError(t, s.Complete(order))
	assert.True(t, s.IsCompleted())
	assert.False(t, s.IsComplete())
}
