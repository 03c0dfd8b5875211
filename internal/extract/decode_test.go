package extract

import (
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	out, err := decode([]byte(`{"items": [{"id": 1, "name": "a"}], "total": 12345678901234}`), FormatJSON)
	require.NoError(t, err)

	expected := map[string]any{
		"items": []any{
			map[string]any{"id": json.Number("1"), "name": "a"},
		},
		"total": json.Number("12345678901234"),
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatal(diff)
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	for _, body := range []string{`not json`, `{"a": 1`, `{"a": 1} {"b": 2}`, ``} {
		_, err := decode([]byte(body), FormatJSON)
		require.Error(t, err, body)
	}
}

func TestDecodeXML(t *testing.T) {
	out, err := decode([]byte(`<root><item>1</item><item>2</item></root>`), FormatXML)
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]any{"item": []any{"1", "2"}}, out); diff != "" {
		t.Fatal(diff)
	}
}

func TestDecodeXMLShape(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<!-- users export -->
<users count="3">
	<user id="1" active="true">Ann</user>
	<user id="2"><name>Bob</name></user>
	<user>Cy</user>
	<note/>
	<meta><![CDATA[raw <text>]]></meta>
</users>`

	out, err := decode([]byte(body), FormatXML)
	require.NoError(t, err)

	expected := map[string]any{
		"@attributes": map[string]any{"count": "3"},
		"user": []any{
			map[string]any{
				"@attributes": map[string]any{"id": "1", "active": "true"},
				"#text":       "Ann",
			},
			map[string]any{
				"@attributes": map[string]any{"id": "2"},
				"name":        "Bob",
			},
			"Cy",
		},
		"note": "",
		"meta": "raw <text>",
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatal(diff)
	}
}

func TestDecodeXMLMalformed(t *testing.T) {
	for _, body := range []string{`<root><item>`, `just some text`, ``} {
		_, err := decode([]byte(body), FormatXML)
		require.Error(t, err, body)
	}
}

func TestDecodeCSV(t *testing.T) {
	out, err := decode([]byte("name,age\nAlice,30\nBob,25"), FormatCSV)
	require.NoError(t, err)

	expected := []any{
		map[string]any{"name": "Alice", "age": "30"},
		map[string]any{"name": "Bob", "age": "25"},
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatal(diff)
	}
}

func TestDecodeCSVRagged(t *testing.T) {
	body := "\"id\",\"name\",\"email\"\r\n1,\"Smith, Ann\"\r\n\r\n2,Bob,bob@x.test,extra\r\n"
	out, err := decode([]byte(body), FormatCSV)
	require.NoError(t, err)

	expected := []any{
		map[string]any{"id": "1", "name": "Smith, Ann", "email": ""},
		map[string]any{"id": "2", "name": "Bob", "email": "bob@x.test"},
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatal(diff)
	}
}

func TestDecodeCSVUnterminatedQuote(t *testing.T) {
	_, err := decode([]byte("name,note\nAlice,\"hi\nBob,ok\nCarol,x"), FormatCSV)
	require.ErrorIs(t, err, csv.ErrQuote)

	_, err = decode([]byte("name,note\nAl\"ice,hi"), FormatCSV)
	require.ErrorIs(t, err, csv.ErrBareQuote)
}

func TestDecodeCSVEmpty(t *testing.T) {
	out, err := decode([]byte(""), FormatCSV)
	require.NoError(t, err)
	require.Equal(t, []any{}, out)

	out, err = decode([]byte("only,a,header\n"), FormatCSV)
	require.NoError(t, err)
	require.Equal(t, []any{}, out)
}

func TestDecodeText(t *testing.T) {
	out, err := decode([]byte("line one\nline two"), FormatText)
	require.NoError(t, err)
	require.Equal(t, "line one\nline two", out)
}

func TestToUTF8(t *testing.T) {
	latin1 := []byte("caf\xe9")
	require.Equal(t, "café", string(toUTF8(latin1, "text/plain; charset=ISO-8859-1")))

	utf8 := []byte("café")
	require.Equal(t, "café", string(toUTF8(utf8, "application/json")))
	require.Equal(t, "café", string(toUTF8(utf8, "application/json; charset=utf-8")))
	require.Equal(t, "café", string(toUTF8(utf8, "")))

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"a":1}`)...)
	require.Equal(t, `{"a":1}`, string(toUTF8(withBOM, "application/json")))
}

func TestBodyTextXMLKeepsDeclaredEncoding(t *testing.T) {
	body := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><root><name>caf\xe9</name></root>")
	text := bodyText(body, "application/xml; charset=ISO-8859-1", FormatXML)
	require.Equal(t, body, text)

	out, err := decode(text, FormatXML)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "café"}, out)
}
