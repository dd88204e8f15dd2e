package reference

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const knowledgeHeader = "BASE DE CONHECIMENTO - CARDÁPIO E REGRAS:\n\n"

// Extract turns a reference response body into prompt text. JSON documents
// are rendered with the knowledge-base header, anything else is treated as
// markup.
func Extract(body []byte) string {
	if data, ok := decodeJSON(body); ok {
		switch data.(type) {
		case map[string]any, []any:
			return formatJSON(data)
		}
	}
	return StripHTML(string(body))
}

// decodeJSON keeps numbers as json.Number so ids past 2^53 survive the
// round trip into the prompt.
func decodeJSON(body []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return data, true
}

func formatJSON(data any) string {
	if obj, ok := data.(map[string]any); ok {
		// first non-null of content, text, menu
		for _, field := range []string{"content", "text", "menu"} {
			v := obj[field]
			if v == nil {
				continue
			}
			switch v := v.(type) {
			case string:
				return knowledgeHeader + v
			case map[string]any, []any:
				return knowledgeHeader + prettyJSON(v)
			}
			return knowledgeHeader + prettyJSON(data)
		}
	}
	return knowledgeHeader + prettyJSON(data)
}

func prettyJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

// inline elements do not separate words.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "code": true, "em": true, "i": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true, "u": true,
}

// StripHTML drops script and style blocks and every tag, decodes entities
// and collapses whitespace.
func StripHTML(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) {
				skip++
			}
			if !inlineTags[string(name)] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) && skip > 0 {
				skip--
			}
			if !inlineTags[string(name)] {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}
