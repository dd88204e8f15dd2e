package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Chat roles as sent to the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// nullOrder keeps order_data a JSON null rather than SQL NULL while the
// session is open.
var nullOrder = datatypes.JSON("null")

var (
	ErrOrderMissing     = errors.New("session has no order")
	ErrAlreadyCompleted = errors.New("session already completed")
)

// Session is one conversation: its replayed history and, once the assistant
// calls criar_pedido, the resulting order.
type Session struct {
	SessionID           string                       `json:"session_id" gorm:"primaryKey;size:191"`
	ConversationHistory datatypes.JSONSlice[Message] `json:"conversation_history"`
	OrderData           datatypes.JSON               `json:"order_data"`
	Status              SessionStatus                `json:"status" gorm:"size:20;not null"`
	WebhookURL          string                       `json:"webhook_url" gorm:"size:512"`
	WebhookSent         bool                         `json:"webhook_sent" gorm:"not null"`
	Version             int64                        `json:"-" gorm:"not null"` // optimistic lock, see store.Save
	CreatedAt           time.Time                    `json:"created_at"`
	UpdatedAt           time.Time                    `json:"updated_at"`
}

func (Session) TableName() string {
	return "chat_sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4 when the client did not pick an id
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusInProgress
	}
	if len(s.OrderData) == 0 {
		s.OrderData = nullOrder
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return
}

// NewSession returns a session with the defaults used on first contact.
func NewSession(id string) *Session {
	return &Session{
		SessionID:           id,
		ConversationHistory: datatypes.JSONSlice[Message]{},
		OrderData:           nullOrder,
		Status:              StatusInProgress,
		WebhookSent:         false,
		Version:             1,
	}
}

// Message is one history entry. ToolCalls is set on assistant entries that
// invoked a function, ToolCallID on the tool entries answering them.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (s *Session) Append(msgs ...Message) {
	s.ConversationHistory = append(s.ConversationHistory, msgs...)
}

func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// HasOrder reports whether order_data holds an order.
func (s *Session) HasOrder() bool {
	return len(s.OrderData) > 0 && string(s.OrderData) != "null"
}

// Order decodes order_data. It returns nil, nil while the session is open.
func (s *Session) Order() (*Order, error) {
	if !s.HasOrder() {
		return nil, nil
	}
	var order Order
	if err := json.Unmarshal(s.OrderData, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Complete stores the order and closes the session. Both fields change
// together so order_data is set exactly when status is completed.
func (s *Session) Complete(order *Order) error {
	if s.IsCompleted() {
		return ErrAlreadyCompleted
	}
	if order == nil {
		return ErrOrderMissing
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	s.OrderData = datatypes.JSON(raw)
	s.Status = StatusCompleted
	return nil
}

// MarkDelivered records a successful webhook delivery.
func (s *Session) MarkDelivered(url string) error {
	if !s.IsCompleted() {
		return ErrOrderMissing
	}
	s.WebhookSent = true
	s.WebhookURL = url
	return nil
}

// IsComplete reports whether the stored order carries everything the
// kitchen needs: customer, at least one item, service type and payment.
func (s *Session) IsComplete() bool {
	if !s.IsCompleted() {
		return false
	}
	order, err := s.Order()
	if err != nil || order == nil {
		return false
	}
	return order.Cliente.Nome != "" &&
		len(order.Itens) > 0 &&
		order.TipoAtendimento != "" &&
		order.FormaPagamento != ""
}
