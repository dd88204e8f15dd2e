package completion

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var ErrMissingCredential = errors.New("openai api key is not configured")

type Kind int

const (
	KindUnexpected Kind = iota
	KindConfiguration
	KindConnection
	KindUpstream
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindUpstream:
		return "upstream"
	case KindEmpty:
		return "empty"
	default:
		return "unexpected"
	}
}

// Cause narrows an upstream failure to the causes users can act on.
type Cause int

const (
	CauseOther Cause = iota
	CauseInvalidKey
	CauseQuota
	CauseRateLimit
)

// Error is a classified completion failure.
type Error struct {
	Kind    Kind
	Cause   Cause
	Status  int    // HTTP status for upstream failures
	Message string // upstream error message, if the body carried one
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUpstream && e.Message != "":
		return fmt.Sprintf("completion %s error (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Kind == KindUpstream:
		return fmt.Sprintf("completion %s error (status %d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("completion %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("completion %s error", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	msgConfiguration = "Erro de configuração: A chave da API OpenAI não está configurada. Por favor, verifique o arquivo .env e adicione OPENAI_API_KEY."
	msgConnection    = "Erro de conexão com a API OpenAI. Verifique sua conexão com a internet e tente novamente."
	msgUpstream      = "Desculpe, ocorreu um erro ao processar sua mensagem."
	msgInvalidKey    = "Erro: Chave da API OpenAI inválida. Por favor, verifique a configuração no arquivo .env."
	msgQuota         = "Erro: Cota da API OpenAI esgotada. Por favor, verifique sua conta OpenAI."
	msgRateLimit     = "Erro: Limite de requisições excedido. Por favor, tente novamente em alguns instantes."
	msgEmpty         = "Desculpe, não recebi uma resposta válida da API. Por favor, tente novamente."
)

// UserMessage renders err as the text shown to the chat user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingCredential) {
		return msgConfiguration
	}

	var cerr *Error
	if !errors.As(err, &cerr) {
		return unexpectedMessage(err)
	}

	switch cerr.Kind {
	case KindConfiguration:
		return msgConfiguration
	case KindConnection:
		return msgConnection
	case KindEmpty:
		return msgEmpty
	case KindUpstream:
		switch cerr.Cause {
		case CauseInvalidKey:
			return msgInvalidKey
		case CauseQuota:
			return msgQuota
		case CauseRateLimit:
			return msgRateLimit
		}
		if cerr.Message != "" {
			return "Erro: " + cerr.Message
		}
		return msgUpstream
	default:
		if cerr.Err != nil {
			return unexpectedMessage(cerr.Err)
		}
		return unexpectedMessage(cerr)
	}
}

func unexpectedMessage(err error) string {
	return "Desculpe, ocorreu um erro inesperado: " + err.Error() + ". Por favor, verifique os logs para mais detalhes."
}

// classify maps a go-openai client error onto an *Error.
func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:    KindUpstream,
			Cause:   causeOf(apiErr),
			Status:  apiErr.HTTPStatusCode,
			Message: apiErr.Message,
			Err:     err,
		}
	}

	// non-2xx without a parseable error body
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindUpstream, Status: reqErr.HTTPStatusCode, Err: err}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &Error{Kind: KindConnection, Err: err}
	}

	return &Error{Kind: KindUnexpected, Err: err}
}

func causeOf(apiErr *openai.APIError) Cause {
	code := ""
	if s, ok := apiErr.Code.(string); ok {
		code = s
	}
	hay := strings.Join([]string{apiErr.Message, code, apiErr.Type}, " ")

	switch {
	case strings.Contains(hay, "Invalid API key"), code == "invalid_api_key":
		return CauseInvalidKey
	case strings.Contains(hay, "insufficient_quota"):
		return CauseQuota
	case strings.Contains(hay, "rate_limit"):
		return CauseRateLimit
	default:
		return CauseOther
	}
}
