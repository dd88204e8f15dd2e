package models

// Field names follow the criar_pedido tool schema, which is what the model
// fills in and what the order webhook consumes.

type ServiceType string

const (
	ServiceDelivery ServiceType = "entrega"
	ServicePickup   ServiceType = "retirada"
)

type Customer struct {
	Nome        string  `json:"nome" validate:"required"`
	Telefone    string  `json:"telefone,omitempty"`
	Observacoes *string `json:"observacoes,omitempty"`
}

type Address struct {
	Rua             string `json:"rua,omitempty"`
	Numero          string `json:"numero,omitempty"`
	Bairro          string `json:"bairro,omitempty"`
	Complemento     string `json:"complemento,omitempty"`
	PontoReferencia string `json:"ponto_referencia,omitempty"`
	Cidade          string `json:"cidade,omitempty"`
	Cep             string `json:"cep,omitempty"`
}

type Complement struct {
	NomeComplemento string   `json:"nome_complemento" validate:"required"`
	OpcaoEscolhida  string   `json:"opcao_escolhida,omitempty"`
	ValorAdicional  *float64 `json:"valor_adicional,omitempty"`
}

type OrderItem struct {
	ProdutoID       string       `json:"produto_id,omitempty"`
	NomeProduto     string       `json:"nome_produto" validate:"required"`
	Categoria       *string      `json:"categoria,omitempty"`
	Tamanho         *string      `json:"tamanho,omitempty"`
	Sabores         []string     `json:"sabores,omitempty"`
	Complementos    []Complement `json:"complementos,omitempty" validate:"dive"`
	ObservacoesItem *string      `json:"observacoes_item,omitempty"`
	Quantidade      int          `json:"quantidade" validate:"required,min=1"`
	PrecoUnitario   *float64     `json:"preco_unitario,omitempty"`
	PrecoTotalItem  *float64     `json:"preco_total_item,omitempty"`
}

// OrderArguments is the argument object of a criar_pedido call.
type OrderArguments struct {
	Cliente           *Customer   `json:"cliente" validate:"required"`
	TipoAtendimento   ServiceType `json:"tipo_atendimento" validate:"required,oneof=entrega retirada"`
	EnderecoEntrega   *Address    `json:"endereco_entrega" validate:"required_if=TipoAtendimento entrega"`
	Itens             []OrderItem `json:"itens" validate:"required,min=1,dive"`
	FormaPagamento    string      `json:"forma_pagamento" validate:"required"`
	TrocoPara         *float64    `json:"troco_para"`
	TaxaEntrega       *float64    `json:"taxa_entrega"`
	ValorTotalPedido  *float64    `json:"valor_total_pedido"`
	Origem            string      `json:"origem"`
	ObservacoesGerais *string     `json:"observacoes_gerais"`
}

// Order is the canonical record persisted in order_data and posted to the
// order webhook.
type Order struct {
	EstabelecimentoID int         `json:"estabelecimento_id"`
	Canal             string      `json:"canal"`
	Cliente           Customer    `json:"cliente"`
	TipoAtendimento   ServiceType `json:"tipo_atendimento"`
	EnderecoEntrega   *Address    `json:"endereco_entrega"`
	Itens             []OrderItem `json:"itens"`
	FormaPagamento    string      `json:"forma_pagamento"`
	TrocoPara         *float64    `json:"troco_para"`
	TaxaEntrega       *float64    `json:"taxa_entrega"`
	ValorTotalPedido  *float64    `json:"valor_total_pedido"`
	Origem            string      `json:"origem"`
	ObservacoesGerais *string     `json:"observacoes_gerais"`
	Meta              OrderMeta   `json:"meta"`
}

type OrderMeta struct {
	WhatsappConversationID string  `json:"whatsapp_conversation_id"`
	WhatsappUserID         *string `json:"whatsapp_user_id"`
	Timestamp              string  `json:"timestamp"`
}
