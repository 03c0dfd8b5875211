package extract

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// pageOutcome is what the pagination controller gets to see of the previous page.
type pageOutcome struct {
	url    string
	header http.Header
	// body is the decoded page before any data mapping.
	body any
	// empty is set when data mapping produced an empty sequence.
	empty bool
}

// places a `next_cursor` field is looked for when there is no Link header
var cursorPaths = [][]string{
	{"next_cursor"},
	{"meta", "next_cursor"},
	{"pagination", "next_cursor"},
}

// firstURL sets the offset/page parameter of the first request when the
// endpoint does not carry one, so every page is explicit about its position.
func firstURL(endpoint string, p Pagination) (string, error) {
	if !p.Enabled {
		return endpoint, nil
	}

	var seed string
	switch p.Strategy {
	case StrategyOffset:
		seed = "0"
	case StrategyPage:
		seed = "1"
	default:
		return endpoint, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	query := u.Query()
	if query.Has(p.PageParam) {
		return endpoint, nil
	}
	query.Set(p.PageParam, seed)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// nextURL computes the URL of the page after `prev`, `pageIndex` is the
// 0-based index of `prev`. false means pagination is over.
//
// offset and page pagination also stop after an empty page, a cursor is
// followed for as long as the server hands one out.
func nextURL(prev pageOutcome, p Pagination, pageIndex int) (string, bool) {
	if !p.Enabled || pageIndex+1 >= p.MaxPages {
		return "", false
	}
	if prev.empty && p.Strategy != StrategyCursor {
		return "", false
	}

	current, err := url.Parse(prev.url)
	if err != nil {
		return "", false
	}

	var next *url.URL
	switch p.Strategy {
	case StrategyOffset:
		next, err = nextOffsetURL(current, p)
	case StrategyPage:
		next, err = nextPageURL(current, p)
	case StrategyCursor:
		next, err = nextCursorURL(current, prev, p)
	default:
		return "", false
	}
	if err != nil || next == nil {
		return "", false
	}
	if sameURL(current, next) {
		return "", false
	}
	return next.String(), true
}

func intParam(query url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query param %s: %w", name, err)
	}
	return value, nil
}

func withParam(u *url.URL, name, value string) *url.URL {
	next := *u
	query := next.Query()
	query.Set(name, value)
	next.RawQuery = query.Encode()
	return &next
}

func nextOffsetURL(current *url.URL, p Pagination) (*url.URL, error) {
	query := current.Query()
	offset, err := intParam(query, p.PageParam, 0)
	if err != nil {
		return nil, err
	}
	limit, err := intParam(query, p.LimitParam, defaultLimit)
	if err != nil {
		return nil, err
	}
	return withParam(current, p.PageParam, strconv.Itoa(offset+limit)), nil
}

func nextPageURL(current *url.URL, p Pagination) (*url.URL, error) {
	page, err := intParam(current.Query(), p.PageParam, 1)
	if err != nil {
		return nil, err
	}
	return withParam(current, p.PageParam, strconv.Itoa(page+1)), nil
}

func nextCursorURL(current *url.URL, prev pageOutcome, p Pagination) (*url.URL, error) {
	if link := nextLink(prev.header); link != "" {
		ref, err := url.Parse(link)
		if err != nil {
			return nil, err
		}
		return current.ResolveReference(ref), nil
	}

	cursor := probeCursor(prev.body)
	if cursor == "" {
		return nil, nil
	}
	return withParam(current, p.PageParam, cursor), nil
}

// nextLink returns the target of the first `rel="next"` entry of the Link headers.
// targets may contain commas and semicolons, only the parameters after the
// closing `>` are split.
func nextLink(header http.Header) string {
	for _, value := range header.Values("Link") {
		rest := value
		for {
			open := strings.IndexByte(rest, '<')
			if open < 0 {
				break
			}
			// an entry without a `<target>` is skipped
			if strings.Trim(rest[:open], " \t,") != "" {
				_, rest = splitLinkParams(rest)
				continue
			}
			end := strings.IndexByte(rest[open:], '>')
			if end < 0 {
				break
			}
			target := rest[open+1 : open+end]
			params, remaining := splitLinkParams(rest[open+end+1:])
			rest = remaining
			if linkHasRel(params, "next") {
				return target
			}
		}
	}
	return ""
}

// splitLinkParams cuts `s` at the first comma outside quotes, returning the
// parameters of the current entry and the following entries.
func splitLinkParams(s string) (string, string) {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quoted {
				i++
			}
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

func linkHasRel(params string, want string) bool {
	for _, param := range strings.Split(params, ";") {
		key, val, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}
		for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(val), `"`)) {
			if strings.EqualFold(rel, want) {
				return true
			}
		}
	}
	return false
}

func probeCursor(body any) string {
	container := gabs.Wrap(body)
	for _, path := range cursorPaths {
		child, ok := childAt(container, path)
		if !ok {
			continue
		}
		switch v := child.Data().(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func sameURL(a, b *url.URL) bool {
	canonical := func(u *url.URL) string {
		c := *u
		c.RawQuery = c.Query().Encode()
		return c.String()
	}
	return canonical(a) == canonical(b)
}
