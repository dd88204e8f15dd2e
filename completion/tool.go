package completion

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// OrderToolName is the function the model calls once the customer confirms.
const OrderToolName = "criar_pedido"

func str(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func num(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Number, Description: desc}
}

func nullable(d jsonschema.Definition) jsonschema.Definition {
	d.Nullable = true
	return d
}

var orderParameters = jsonschema.Definition{
	Type:     jsonschema.Object,
	Required: []string{"cliente", "itens", "tipo_atendimento", "forma_pagamento"},
	Properties: map[string]jsonschema.Definition{
		"cliente": {
			Type:     jsonschema.Object,
			Required: []string{"nome"},
			Properties: map[string]jsonschema.Definition{
				"nome":        str("Nome do cliente."),
				"telefone":    str("Telefone do cliente em formato internacional ou nacional. Se disponível, usar o telefone do WhatsApp."),
				"observacoes": nullable(str("Observações gerais do cliente sobre o pedido.")),
			},
		},
		"tipo_atendimento": {
			Type:        jsonschema.String,
			Enum:        []string{"entrega", "retirada"},
			Description: "Se o cliente pediu entrega em domicílio ou retirada no balcão.",
		},
		"endereco_entrega": {
			Type:        jsonschema.Object,
			Description: "Preencha apenas se tipo_atendimento for 'entrega'.",
			Properties: map[string]jsonschema.Definition{
				"rua":              {Type: jsonschema.String},
				"numero":           {Type: jsonschema.String},
				"bairro":           {Type: jsonschema.String},
				"complemento":      {Type: jsonschema.String},
				"ponto_referencia": {Type: jsonschema.String},
				"cidade":           {Type: jsonschema.String},
				"cep":              {Type: jsonschema.String},
			},
		},
		"itens": {
			Type:        jsonschema.Array,
			Description: "Lista de itens do pedido.",
			Items: &jsonschema.Definition{
				Type:     jsonschema.Object,
				Required: []string{"nome_produto", "quantidade"},
				Properties: map[string]jsonschema.Definition{
					"produto_id":   str("ID do produto no sistema, se conhecido. Caso não saiba, deixe vazio e use o nome_produto."),
					"nome_produto": str("Nome do produto conforme aparece no cardápio. Ex.: '>> Pizza Familia (12 fatias) + Refri - PROMO'."),
					"categoria":    nullable(str("Categoria do produto. Ex.: 'Promoções', 'Bebidas', 'Sobremesa', etc.")),
					"tamanho":      nullable(str("Tamanho da pizza, quando aplicável. Ex.: 'Família', 'Grande', '8 fatias', etc.")),
					"sabores": {
						Type:        jsonschema.Array,
						Description: "Lista de sabores escolhidos para este item, quando aplicável.",
						Items:       &jsonschema.Definition{Type: jsonschema.String},
					},
					"complementos": {
						Type:        jsonschema.Array,
						Description: "Complementos escolhidos (bordas, massas, bebidas extras, etc.).",
						Items: &jsonschema.Definition{
							Type:     jsonschema.Object,
							Required: []string{"nome_complemento"},
							Properties: map[string]jsonschema.Definition{
								"nome_complemento": str("Nome do grupo de complemento. Ex.: 'Borda recheada?', 'Massa fina ou média?'."),
								"opcao_escolhida":  str("Opção escolhida pelo cliente. Ex.: 'Cheddar', 'Sem borda :)', 'Fina'."),
								"valor_adicional":  nullable(num("Valor adicional deste complemento, se houver.")),
							},
						},
					},
					"observacoes_item": nullable(str("Alguma observação específica para este item. Ex.: 'cortar em 12 pedaços', 'tirar cebola'.")),
					"quantidade": {
						Type:        jsonschema.Integer,
						Description: "Quantidade deste item (mínimo 1).",
					},
					"preco_unitario":   nullable(num("Preço unitário estimado do item (sem taxa de entrega). A IA pode usar o preço base do cardápio.")),
					"preco_total_item": nullable(num("Preço total do item (quantidade x unitário + complementos). Opcional.")),
				},
			},
		},
		"forma_pagamento":    str("Forma de pagamento escolhida pelo cliente. Ex.: 'dinheiro', 'pix', 'cartao_credito', 'cartao_debito', 'link_pagamento'."),
		"troco_para":         nullable(num("Se pagamento em dinheiro, informar o valor para o qual o cliente precisa de troco. Ex.: 100.00.")),
		"taxa_entrega":       nullable(num("Taxa de entrega estimada, se a IA tiver esse dado. Caso não saiba, pode deixar null.")),
		"valor_total_pedido": nullable(num("Valor total do pedido (somatório de itens + taxa de entrega). Opcional, pode ser recalculado no backend.")),
		"origem":             str("Canal de origem do pedido. Ex.: 'whatsapp_ia_donvitto'."),
		"observacoes_gerais": nullable(str("Observações gerais sobre o pedido, caso o cliente tenha comentado algo relevante.")),
	},
}

// OrderTool describes criar_pedido to the model.
func OrderTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        OrderToolName,
			Description: "Finaliza um pedido de pizza feito pelo cliente via WhatsApp e retorna todos os dados estruturados para o backend registrar o pedido no sistema.",
			Parameters:  orderParameters,
		},
	}
}
