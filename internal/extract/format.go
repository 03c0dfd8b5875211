package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/midlaj-muhammed/CortexCrawler/lib/textutil"
	"github.com/samber/lo"
)

const (
	sampleSize        = 10
	summaryThreshold  = 20
	maxRenderedChars  = 25_000
	maxDescribeFields = 5
	maxSummaryFields  = 10
	// minimum Jaro-Winkler similarity to "userid" for a field to be counted as a user id
	userIDSimilarity = 0.95
)

// appendRecords adds a decoded page to the aggregate, a sequence contributes
// each of its elements and anything else is a single record.
func appendRecords(records []any, page any) []any {
	if items, ok := page.([]any); ok {
		return append(records, items...)
	}
	return append(records, page)
}

func plural(n int, singular, multiple string) string {
	if n == 1 {
		return singular
	}
	return multiple
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", value)
}

func sortedKeys(record map[string]any) []string {
	keys := lo.Keys(record)
	sort.Strings(keys)
	return keys
}

// describe returns a short label for the shape of the aggregated records.
func describe(records []any) string {
	if len(records) == 0 {
		return "Empty dataset"
	}
	switch first := records[0].(type) {
	case []any:
		return "Array of arrays"
	case map[string]any:
		keys := sortedKeys(first)
		shown := keys[:min(len(keys), maxDescribeFields)]
		description := fmt.Sprintf("Object with %d fields: %s", len(keys), strings.Join(shown, ", "))
		if len(keys) > maxDescribeFields {
			description += "..."
		}
		return description
	default:
		return fmt.Sprintf("Primitive values (%s)", typeName(first))
	}
}

func renderValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// render produces the human readable text of an extraction, the result is
// never longer than maxRenderedChars plus the truncation notice.
func render(records []any, format Format, pages int) string {
	var out strings.Builder
	fmt.Fprintf(
		&out,
		"Extracted %d %s (format: %s, pages: %d)\n",
		len(records), plural(len(records), "record", "records"), format, pages,
	)

	if len(records) == 0 {
		out.WriteString("\nNo records found.\n")
	} else {
		samples := records[:min(len(records), sampleSize)]
		out.WriteString("\nSample records:\n")
		for i, record := range samples {
			fmt.Fprintf(&out, "\n[%d] %s\n", i+1, renderValue(record))
		}
		if omitted := len(records) - len(samples); omitted > 0 {
			fmt.Fprintf(&out, "\n... and %d more %s\n", omitted, plural(omitted, "record", "records"))
		}
	}

	if len(records) > summaryThreshold {
		writeSummary(&out, records)
	}

	text, truncated := textutil.Clamp(out.String(), maxRenderedChars)
	if truncated {
		text += fmt.Sprintf("\n\n[output truncated to %d characters]", maxRenderedChars)
	}
	return text
}

func writeSummary(out *strings.Builder, records []any) {
	out.WriteString("\nSummary:\n")

	objects := lo.FilterMap(records, func(record any, _ int) (map[string]any, bool) {
		object, ok := record.(map[string]any)
		return object, ok
	})
	if len(objects) == 0 {
		fmt.Fprintf(out, "- Record type: %s\n", typeName(records[0]))
		return
	}

	minFields, maxFields := len(objects[0]), len(objects[0])
	fieldSet := map[string]struct{}{}
	for _, object := range objects {
		minFields = min(minFields, len(object))
		maxFields = max(maxFields, len(object))
		for key := range object {
			fieldSet[key] = struct{}{}
		}
	}
	if minFields == maxFields {
		fmt.Fprintf(out, "- Fields per record: %d\n", minFields)
	} else {
		fmt.Fprintf(out, "- Fields per record: %d to %d\n", minFields, maxFields)
	}

	fields := lo.Keys(fieldSet)
	sort.Strings(fields)
	shown := strings.Join(fields[:min(len(fields), maxSummaryFields)], ", ")
	if len(fields) > maxSummaryFields {
		shown += ", ..."
	}
	fmt.Fprintf(out, "- Field names: %s\n", shown)

	field, ok := userIDField(fields)
	if !ok {
		return
	}
	values := lo.FilterMap(objects, func(object map[string]any, _ int) (string, bool) {
		value, ok := object[field]
		if !ok || value == nil {
			return "", false
		}
		switch value.(type) {
		case map[string]any, []any:
			return "", false
		}
		return fmt.Sprint(value), true
	})
	fmt.Fprintf(out, "- Distinct %s values: %d\n", field, len(lo.Uniq(values)))
}

// userIDField picks the field that looks the most like a user id, if any.
func userIDField(fields []string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, field := range fields {
		score := matchr.JaroWinkler(textutil.NormalizeName(field), "userid", false)
		if score >= userIDSimilarity && score > bestScore {
			best, bestScore = field, score
		}
	}
	return best, best != ""
}
