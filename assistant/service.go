// Package assistant runs one chat turn: it replays the session history to
// the completion API, turns criar_pedido calls into orders and hands
// finished orders to the webhook.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"order-assistant/completion"
	"order-assistant/models"
	"order-assistant/orders"
	"order-assistant/prompt"
	"order-assistant/store"
)

const (
	msgFallback       = "Desculpe, não consegui processar sua mensagem."
	msgOrderConfirmed = "Pedido confirmado com sucesso! 🍕\n\nSeu pedido foi registrado e será processado em breve."
	msgProcessing     = "Processando seu pedido..."
	msgSaveFailed     = "Desculpe, ocorreu um erro ao processar sua mensagem."
)

type ReferenceFetcher interface {
	Fetch(ctx context.Context, url string) string
}

type OrderExtractor interface {
	Extract(arguments, sessionID string) (*models.Order, error)
}

type OrderDispatcher interface {
	Deliver(ctx context.Context, s *models.Session) bool
}

// Reply is the outcome of one turn as returned to the chat client.
type Reply struct {
	Response      string        `json:"response"`
	OrderComplete bool          `json:"order_complete"`
	OrderData     *models.Order `json:"order_data"`
	SessionID     string        `json:"session_id"`
}

type StatusReport struct {
	Status      models.SessionStatus `json:"status"`
	OrderData   *models.Order        `json:"order_data"`
	IsComplete  bool                 `json:"is_complete"`
	WebhookSent bool                 `json:"webhook_sent"`
}

type Service struct {
	store        store.SessionStore
	completer    completion.Completer
	reference    ReferenceFetcher
	referenceURL string
	extractor    OrderExtractor
	dispatcher   OrderDispatcher
	logger       *slog.Logger

	locks *keyedMutex
}

type Options struct {
	Store        store.SessionStore
	Completer    completion.Completer
	Reference    ReferenceFetcher
	ReferenceURL string
	Extractor    OrderExtractor
	Dispatcher   OrderDispatcher
	Logger       *slog.Logger
}

func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:        opts.Store,
		completer:    opts.Completer,
		reference:    opts.Reference,
		referenceURL: opts.ReferenceURL,
		extractor:    opts.Extractor,
		dispatcher:   opts.Dispatcher,
		logger:       log,
		locks:        newKeyedMutex(),
	}
}

// Chat handles one user message. It never returns an error: every failure
// becomes a user-facing response.
func (s *Service) Chat(ctx context.Context, message, sessionID string) Reply {
	reply := Reply{SessionID: sessionID}

	if !s.completer.Configured() {
		s.logger.Error("openai api key not configured")
		reply.Response = completion.UserMessage(completion.ErrMissingCredential)
		return reply
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.store.LoadOrCreate(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to load session", "session_id", sessionID, "error", err)
		reply.Response = completion.UserMessage(err)
		return reply
	}
	sess.Append(models.Message{Role: models.RoleUser, Content: message})

	reference := ""
	if s.reference != nil {
		reference = s.reference.Fetch(ctx, s.referenceURL)
	}

	result, err := s.completer.Complete(ctx, prompt.Build(sess.ConversationHistory, reference))
	if err != nil {
		reply.Response = completion.UserMessage(err)
		return reply
	}

	var order *models.Order
	if len(result.ToolCalls) > 0 {
		sess.Append(models.Message{
			Role:      models.RoleAssistant,
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})
		for _, tc := range result.ToolCalls {
			content, o := s.handleToolCall(sess, tc)
			if o != nil {
				order = o
			}
			sess.Append(models.Message{
				Role:       models.RoleTool,
				Content:    content,
				ToolCallID: tc.ID,
			})
		}
	} else {
		content := result.Content
		if content == "" {
			content = msgFallback
		}
		sess.Append(models.Message{Role: models.RoleAssistant, Content: content})
	}

	if err := s.store.Save(ctx, sess); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			s.logger.Warn("session changed during turn", "session_id", sessionID)
		} else {
			s.logger.Error("failed to save session", "session_id", sessionID, "error", err)
		}
		reply.Response = msgSaveFailed
		return reply
	}

	if order != nil && s.dispatcher != nil && !sess.WebhookSent {
		if s.dispatcher.Deliver(ctx, sess) {
			s.recordDelivery(ctx, sess)
		}
	}

	reply.OrderComplete = order != nil
	reply.OrderData = order
	reply.Response = result.Content
	if reply.Response == "" {
		switch {
		case reply.OrderComplete:
			reply.Response = msgOrderConfirmed
		case len(result.ToolCalls) > 0:
			reply.Response = msgProcessing
		default:
			reply.Response = msgFallback
		}
	}
	return reply
}

// recordDelivery persists webhook_sent, retrying once on a store error.
// If the flag is lost a repeated criar_pedido posts the order again.
func (s *Service) recordDelivery(ctx context.Context, sess *models.Session) {
	ctx = context.WithoutCancel(ctx)
	err := s.store.Save(ctx, sess)
	if err != nil && !errors.Is(err, store.ErrVersionConflict) {
		err = s.store.Save(ctx, sess)
	}
	if err != nil {
		s.logger.Error("webhook delivered but webhook_sent not saved",
			"session_id", sess.SessionID, "order_timestamp", deliveredAt(sess), "error", err)
	}
}

func deliveredAt(sess *models.Session) string {
	order, err := sess.Order()
	if err != nil || order == nil {
		return ""
	}
	return order.Meta.Timestamp
}

type toolResult struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Campos  map[string]string `json:"campos,omitempty"`
}

// handleToolCall returns the tool message content answering tc and, for a
// criar_pedido call, the session's order.
func (s *Service) handleToolCall(sess *models.Session, tc models.ToolCall) (string, *models.Order) {
	if tc.Function.Name != completion.OrderToolName {
		s.logger.Warn("unknown tool call", "session_id", sess.SessionID, "function", tc.Function.Name)
		return encodeToolResult(toolResult{Status: "error", Message: "Função desconhecida: " + tc.Function.Name}), nil
	}

	// The first order of a session is final; a repeated call reports it again.
	if sess.IsCompleted() {
		existing, err := sess.Order()
		if err != nil || existing == nil {
			s.logger.Error("completed session has unreadable order", "session_id", sess.SessionID, "error", err)
			return encodeToolResult(toolResult{Status: "error", Message: "Pedido indisponível."}), nil
		}
		return encodeToolResult(toolResult{Status: "success", Message: "Pedido criado com sucesso!"}), existing
	}

	order, err := s.extractor.Extract(tc.Function.Arguments, sess.SessionID)
	if err != nil {
		var verr *orders.ValidationError
		if errors.As(err, &verr) {
			s.logger.Warn("invalid order arguments", "session_id", sess.SessionID, "fields", verr.Fields)
			return encodeToolResult(toolResult{
				Status:  "error",
				Message: "Dados do pedido incompletos ou inválidos.",
				Campos:  verr.Fields,
			}), nil
		}
		s.logger.Error("order extraction failed", "session_id", sess.SessionID, "error", err)
		return encodeToolResult(toolResult{Status: "error", Message: err.Error()}), nil
	}

	if err := sess.Complete(order); err != nil {
		s.logger.Error("failed to complete session", "session_id", sess.SessionID, "error", err)
		return encodeToolResult(toolResult{Status: "error", Message: err.Error()}), nil
	}
	s.logger.Info("order created", "session_id", sess.SessionID, "itens", len(order.Itens))
	return encodeToolResult(toolResult{Status: "success", Message: "Pedido criado com sucesso!"}), order
}

func encodeToolResult(r toolResult) string {
	raw, err := json.Marshal(r)
	if err != nil {
		return `{"status":"error"}`
	}
	return string(raw)
}

// Status reports a session's order state. It returns store.ErrNotFound for
// unknown sessions.
func (s *Service) Status(ctx context.Context, sessionID string) (*StatusReport, error) {
	sess, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	order, err := sess.Order()
	if err != nil {
		return nil, err
	}
	return &StatusReport{
		Status:      sess.Status,
		OrderData:   order,
		IsComplete:  sess.IsComplete(),
		WebhookSent: sess.WebhookSent,
	}, nil
}
