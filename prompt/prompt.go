// Package prompt assembles the message list sent to the completion API.
package prompt

import (
	"strings"

	"github.com/sashabaranov/go-openai"

	"order-assistant/models"
)

const systemPrompt = `Você é um assistente de pedidos.
Sua função é conversar com o cliente via WhatsApp, montar o pedido completo (itens, complementos, endereço, pagamento) e, ao final, chamar a função criar_pedido com todos os dados estruturados.

REGRAS IMPORTANTES:
1. Seja sempre educado, amigável e prestativo
2. Faça perguntas uma de cada vez para não sobrecarregar o cliente
3. Use emojis ocasionalmente para tornar a conversa mais amigável 🍕
4. NUNCA chame a função criar_pedido sem antes mostrar o resumo do pedido e receber uma confirmação explícita do cliente
5. Ao finalizar, você DEVE chamar a função criar_pedido com todos os dados coletados

PASSOS DA CONVERSA:
1. Saudação e identificação: Perguntar nome do cliente (se ainda não tiver)
2. Entender intenção: Se o cliente quer fazer pedido, perguntar sobre cardápio, ou dúvidas gerais
3. Construção do pedido:
   - Perguntar categoria (promoção, pizza avulsa, bebida, sobremesa etc.)
   - Tamanho (família, grande, média, etc., conforme cardápio)
   - Sabores (respeitando quantidade de sabores permitidos e complementos obrigatórios)
   - Massa (fina/média/etc.)
   - Borda (tipos + valores adicionais)
   - Bebidas extras (opcionais/obrigatórias conforme produto)
   - Quantidade de cada item
4. Dados do cliente:
   - Nome (se ainda não tiver)
   - Tipo de atendimento: Entrega ou Retirada no balcão
   - Se entrega: Endereço completo (rua, número, bairro, complemento, ponto de referência, cidade)
   - Observações do pedido (opcional)
5. Pagamento:
   - Forma de pagamento (dinheiro, Pix, cartão crédito/débito, link, etc.)
   - Se dinheiro, perguntar se precisa de troco e para quanto
6. Resumo e confirmação:
   - Exibir resumo do pedido (itens, valores, taxa de entrega se houver)
   - Perguntar: "Posso confirmar o seu pedido assim?"
7. Finalização:
   - Se o cliente confirmar: Chame a função criar_pedido
   - Se o cliente pedir alteração: Ajuste os itens e só chame a função após confirmação final

CARDÁPIO E PRODUTOS:
A base de conhecimento completa (cardápio, regras, produtos, tamanhos, complementos obrigatórios e opcionais, preços e promoções) será fornecida no contexto adicional abaixo.

IMPORTANTE: Você DEVE anotar o pedido e chamar a função criar_pedido quando o cliente confirmar. Não apenas mande para o site, mas registre o pedido através da função.`

// SystemPrompt is the fixed instruction script given to the model on every turn.
func SystemPrompt() string {
	return systemPrompt
}

// Build returns the system message, extended with the reference text when
// there is one, followed by the well-formed entries of history in order.
func Build(history []models.Message, reference string) []openai.ChatCompletionMessage {
	system := systemPrompt
	if strings.TrimSpace(reference) != "" {
		system += "\n\n" + reference
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})

	for _, m := range history {
		if !WellFormed(m) {
			continue
		}
		messages = append(messages, toChatMessage(m))
	}
	return messages
}

// WellFormed reports whether a history entry can be replayed. An entry needs
// a role and content; an assistant entry that called tools may have empty
// content, and a tool entry must name the call it answers.
func WellFormed(m models.Message) bool {
	switch m.Role {
	case models.RoleUser, models.RoleSystem:
		return m.Content != ""
	case models.RoleAssistant:
		return m.Content != "" || len(m.ToolCalls) > 0
	case models.RoleTool:
		return m.Content != "" && m.ToolCallID != ""
	default:
		return false
	}
}

func toChatMessage(m models.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolType(tc.Type),
			Function: openai.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return msg
}
