package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bodyText prepares a response body for decoding. xml documents carry their
// own encoding declaration which the xml decoder honours, so only the BOM is
// removed from them.
func bodyText(body []byte, contentType string, format Format) []byte {
	if format == FormatXML {
		return bytes.TrimPrefix(body, utf8BOM)
	}
	return toUTF8(body, contentType)
}

// toUTF8 converts a body declared in another charset through its Content-Type.
// bodies without a charset parameter are assumed to already be UTF-8.
func toUTF8(body []byte, contentType string) []byte {
	body = bytes.TrimPrefix(body, utf8BOM)

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	label := strings.TrimSpace(params["charset"])
	if label == "" {
		return body
	}
	enc, name := charset.Lookup(label)
	if enc == nil || name == "utf-8" {
		return body
	}
	converted, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return converted
}

// decode parses `body` according to `format`. callers are expected to fall
// back to the raw text when an error is returned.
func decode(body []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(body)
	case FormatXML:
		return decodeXML(body)
	case FormatCSV:
		return decodeCSV(body)
	case FormatText:
		return string(body), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func decodeJSON(body []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var out any
	err := decoder.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	var trailing any
	err = decoder.Decode(&trailing)
	if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("json: unexpected data after top-level value")
	}
	return out, nil
}
