package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

const (
	xmlAttributesKey = "@attributes"
	xmlTextKey       = "#text"
)

// decodeXML converts the root element of the document to nested maps:
//
//   - attributes are nested under "@attributes"
//   - repeated sibling tags become a []any in document order
//   - an element with only text becomes that string, otherwise the text is under "#text"
func decodeXML(body []byte) (any, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("xml: %w", err)
	}
	for node := doc.FirstChild; node != nil; node = node.NextSibling {
		if node.Type == xmlquery.ElementNode {
			return xmlElementValue(node), nil
		}
	}
	return nil, fmt.Errorf("xml: no root element")
}

func xmlName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func xmlNodeName(node *xmlquery.Node) string {
	if node.Prefix == "" {
		return node.Data
	}
	return node.Prefix + ":" + node.Data
}

func xmlElementValue(node *xmlquery.Node) any {
	out := map[string]any{}
	if len(node.Attr) > 0 {
		attributes := make(map[string]any, len(node.Attr))
		for _, attr := range node.Attr {
			attributes[xmlName(attr.Name)] = attr.Value
		}
		out[xmlAttributesKey] = attributes
	}

	var text strings.Builder
	counts := map[string]int{}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode:
			name := xmlNodeName(child)
			value := xmlElementValue(child)
			counts[name]++
			switch counts[name] {
			case 1:
				out[name] = value
			case 2:
				out[name] = []any{out[name], value}
			default:
				out[name] = append(out[name].([]any), value)
			}
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(child.Data)
		}
	}

	trimmed := strings.TrimSpace(text.String())
	if len(out) == 0 {
		return trimmed
	}
	if trimmed != "" {
		out[xmlTextKey] = trimmed
	}
	return out
}
