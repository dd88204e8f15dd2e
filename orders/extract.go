// Package orders turns criar_pedido arguments into the canonical order
// record and forwards finished orders to the order webhook.
package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"order-assistant/config"
	"order-assistant/models"
	"order-assistant/utils"
)

const (
	DefaultEstabelecimentoID = 1
	DefaultChannel           = "whatsapp_ia_donvitto"
)

// ValidationError lists the argument fields that are missing or invalid,
// keyed by their JSON path (e.g. "itens[0].quantidade").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid order arguments: " + strings.Join(parts, "; ")
}

type Extractor struct {
	estabelecimentoID int
	channel           string
	validate          *validator.Validate
	now               func() time.Time
}

func NewExtractor(cfg config.OrderConfig) *Extractor {
	v := utils.NewValidator()
	v.RegisterStructValidation(deliveryAddressRule, models.OrderArguments{})

	e := &Extractor{
		estabelecimentoID: cfg.EstabelecimentoID,
		channel:           cfg.Channel,
		validate:          v,
		now:               time.Now,
	}
	if e.estabelecimentoID == 0 {
		e.estabelecimentoID = DefaultEstabelecimentoID
	}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	return e
}

// WithClock replaces the time source used for meta.timestamp.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract parses the raw arguments of a criar_pedido call made in session
// sessionID. Missing or mistyped required data yields a *ValidationError.
func (e *Extractor) Extract(arguments, sessionID string) (*models.Order, error) {
	var args models.OrderArguments
	if err := decodeArguments(arguments, &args); err != nil {
		return nil, err
	}
	normalizeArguments(&args)

	if err := e.validate.Struct(&args); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, &ValidationError{Fields: utils.FieldErrors(verrs)}
		}
		return nil, err
	}

	return e.build(&args, sessionID), nil
}

func decodeArguments(arguments string, args *models.OrderArguments) error {
	raw := strings.TrimSpace(arguments)
	if raw == "" || raw == "null" {
		return &ValidationError{Fields: map[string]string{"arguments": "required"}}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(args); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &ValidationError{Fields: map[string]string{
				typeErr.Field: "must be " + typeErr.Type.String(),
			}}
		}
		return &ValidationError{Fields: map[string]string{"arguments": "invalid JSON: " + err.Error()}}
	}
	return nil
}

func (e *Extractor) build(args *models.OrderArguments, sessionID string) *models.Order {
	order := &models.Order{
		EstabelecimentoID: e.estabelecimentoID,
		Canal:             e.channel,
		Cliente:           *args.Cliente,
		TipoAtendimento:   args.TipoAtendimento,
		EnderecoEntrega:   args.EnderecoEntrega,
		Itens:             make([]models.OrderItem, 0, len(args.Itens)),
		FormaPagamento:    args.FormaPagamento,
		TrocoPara:         round(args.TrocoPara),
		TaxaEntrega:       round(args.TaxaEntrega),
		ValorTotalPedido:  round(args.ValorTotalPedido),
		Origem:            args.Origem,
		ObservacoesGerais: args.ObservacoesGerais,
		Meta: models.OrderMeta{
			WhatsappConversationID: sessionID,
			Timestamp:              e.now().Format(time.RFC3339),
		},
	}
	if order.Origem == "" {
		order.Origem = e.channel
	}
	if order.Cliente.Telefone != "" {
		phone := order.Cliente.Telefone
		order.Meta.WhatsappUserID = &phone
	}

	for _, item := range args.Itens {
		item.PrecoUnitario = round(item.PrecoUnitario)
		item.PrecoTotalItem = round(item.PrecoTotalItem)
		for i := range item.Complementos {
			item.Complementos[i].ValorAdicional = round(item.Complementos[i].ValorAdicional)
		}
		order.Itens = append(order.Itens, item)
	}
	return order
}

// normalizeArguments trims the free-text fields validation looks at, so a
// whitespace-only value counts as missing.
func normalizeArguments(args *models.OrderArguments) {
	if args.Cliente != nil {
		args.Cliente.Nome = strings.TrimSpace(args.Cliente.Nome)
		args.Cliente.Telefone = strings.TrimSpace(args.Cliente.Telefone)
	}
	if a := args.EnderecoEntrega; a != nil {
		a.Rua = strings.TrimSpace(a.Rua)
		a.Numero = strings.TrimSpace(a.Numero)
		a.Bairro = strings.TrimSpace(a.Bairro)
	}
	args.FormaPagamento = strings.TrimSpace(args.FormaPagamento)
	args.Origem = strings.TrimSpace(args.Origem)
	for i := range args.Itens {
		item := &args.Itens[i]
		item.NomeProduto = strings.TrimSpace(item.NomeProduto)
		for j := range item.Complementos {
			item.Complementos[j].NomeComplemento = strings.TrimSpace(item.Complementos[j].NomeComplemento)
		}
	}
}

// deliveryAddressRule requires a street plus a number or a neighbourhood on
// delivery orders. A missing address is left to the required_if tag.
func deliveryAddressRule(sl validator.StructLevel) {
	args := sl.Current().Interface().(models.OrderArguments)
	a := args.EnderecoEntrega
	if args.TipoAtendimento != models.ServiceDelivery || a == nil {
		return
	}
	if a.Rua == "" {
		sl.ReportError(a.Rua, "endereco_entrega.rua", "Rua", "required", "")
	}
	if a.Numero == "" && a.Bairro == "" {
		sl.ReportError(a.Numero, "endereco_entrega.numero", "Numero", "required_without", "bairro")
	}
}

func round(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := utils.Round2(*v)
	return &r
}
