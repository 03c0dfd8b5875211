package extract

import (
	"net/url"
	"strings"

	"github.com/midlaj-muhammed/CortexCrawler/lib/textutil"
	"github.com/samber/lo"
)

type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "api-key"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthOAuth  AuthType = "oauth"
)

// Auth describes how credentials are attached to every request, only the
// fields relevant to Type are read.
type Auth struct {
	Type AuthType `json:"type,omitempty"`

	// api-key
	Key        string `json:"key,omitempty"`
	HeaderName string `json:"headerName,omitempty"`

	// bearer, oauth
	Token string `json:"token,omitempty"`

	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

type Strategy string

const (
	StrategyOffset Strategy = "offset"
	StrategyCursor Strategy = "cursor"
	StrategyPage   Strategy = "page"
)

// DataMapping selects the records of interest out of a decoded page.
type DataMapping struct {
	// RootPath is a dotted key path, ex. `data.items`.
	RootPath string `json:"rootPath,omitempty"`
	// Fields maps output key -> source key.
	Fields map[string]string `json:"fields,omitempty"`
}

type Pagination struct {
	Enabled  bool     `json:"enabled,omitempty"`
	Strategy Strategy `json:"strategy,omitempty"`
	// PageParam is the query parameter carrying the offset, page number or cursor.
	PageParam string `json:"pageParam,omitempty"`
	// LimitParam is only used by the offset strategy.
	LimitParam string `json:"limitParam,omitempty"`
	MaxPages   int    `json:"maxPages,omitempty"`
}

type Request struct {
	Endpoint       string            `json:"endpoint"`
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	Authentication Auth              `json:"authentication,omitempty"`
	ResponseFormat Format            `json:"responseFormat,omitempty"`
	DataMapping    *DataMapping      `json:"dataMapping,omitempty"`
	Pagination     Pagination        `json:"pagination,omitempty"`
	TimeoutMs      int               `json:"timeoutMs,omitempty"`
}

const (
	DefaultMaxPages   = 10
	DefaultTimeoutMs  = 30_000
	defaultLimit      = 10
	defaultAPIKeyName = "X-API-Key"
)

var allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

func (r Request) hasBody() bool {
	return r.Body != "" && lo.Contains([]string{"POST", "PUT", "PATCH"}, r.Method)
}

// Validate reports the first problem with the request as a *ConfigError.
func (r Request) Validate() error {
	_, err := r.normalize()
	return err
}

// normalize validates the request and returns a copy with every default filled in.
func (r Request) normalize() (Request, error) {
	endpoint, err := url.Parse(strings.TrimSpace(r.Endpoint))
	if err != nil {
		return r, configError("endpoint", "%s", err.Error())
	}
	endpoint.Scheme = strings.ToLower(endpoint.Scheme)
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return r, configError("endpoint", "scheme must be http or https, got %q", endpoint.Scheme)
	}
	if endpoint.Host == "" {
		return r, configError("endpoint", "missing host")
	}
	r.Endpoint = endpoint.String()

	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = "GET"
	}
	if !lo.Contains(allowedMethods, r.Method) {
		return r, configError("method", "unsupported method %q", r.Method)
	}

	r.ResponseFormat = Format(strings.ToLower(string(r.ResponseFormat)))
	switch r.ResponseFormat {
	case "":
		r.ResponseFormat = FormatJSON
	case FormatJSON, FormatXML, FormatCSV, FormatText:
	default:
		return r, configError("responseFormat", "unsupported format %q", r.ResponseFormat)
	}

	r.Authentication.Type = AuthType(strings.ToLower(string(r.Authentication.Type)))
	if r.Authentication.Type == "" {
		r.Authentication.Type = AuthNone
	}
	err = validateAuth(r.Authentication)
	if err != nil {
		return r, err
	}

	r.Pagination, err = normalizePagination(r.Pagination)
	if err != nil {
		return r, err
	}

	if r.TimeoutMs <= 0 {
		r.TimeoutMs = DefaultTimeoutMs
	}
	return r, nil
}

func normalizePagination(p Pagination) (Pagination, error) {
	if p.MaxPages <= 0 {
		p.MaxPages = DefaultMaxPages
	}
	if !p.Enabled {
		return p, nil
	}

	p.Strategy = Strategy(strings.ToLower(string(p.Strategy)))
	switch p.Strategy {
	case StrategyOffset:
		if p.PageParam == "" {
			p.PageParam = "offset"
		}
		if p.LimitParam == "" {
			p.LimitParam = "limit"
		}
	case StrategyPage:
		if p.PageParam == "" {
			p.PageParam = "page"
		}
	case StrategyCursor:
		if p.PageParam == "" {
			p.PageParam = "cursor"
		}
	default:
		return p, configError("pagination.strategy", "unsupported strategy %q", p.Strategy)
	}
	return p, nil
}

const redactedValue = "********"

var sensitiveHeaderParts = []string{"authorization", "cookie", "key", "token", "secret"}

// Redacted returns a copy of the request that is safe to log.
func (r Request) Redacted() Request {
	mask := func(s string) string {
		return lo.Ternary(s == "", "", redactedValue)
	}
	r.Authentication.Key = mask(r.Authentication.Key)
	r.Authentication.Token = mask(r.Authentication.Token)
	r.Authentication.Password = mask(r.Authentication.Password)
	r.Headers = lo.MapValues(r.Headers, func(value string, name string) string {
		if textutil.MatchName(name, sensitiveHeaderParts) {
			return mask(value)
		}
		return value
	})
	if u, err := url.Parse(r.Endpoint); err == nil {
		r.Endpoint = u.Redacted()
	}
	return r
}
