package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"facturaia/internal/domain"
)

// Payload is the invoice JSON the model is asked to return.
type Payload struct {
	Numero        string        `json:"numero"`
	EmisorNombre  string        `json:"emisorNombre"`
	ClienteNombre string        `json:"clienteNombre"`
	Fecha         string        `json:"fecha"`
	Total         Amount        `json:"total"`
	Moneda        string        `json:"moneda"`
	Categoria     string        `json:"categoria"`
	Items         []PayloadItem `json:"items"`
}

// PayloadItem is one line of the extracted invoice.
type PayloadItem struct {
	Descripcion string `json:"descripcion"`
	Cantidad    Amount `json:"cantidad"`
	Precio      Amount `json:"precio"`
}

// Amount is a decimal that also accepts quoted values with currency symbols
// and thousands separators, e.g. "$1,160.00".
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	raw = normalizeAmount(strings.Trim(raw, `"`))
	if raw == "" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(b), err)
	}
	a.Decimal = d
	return nil
}

// decimalComma matches amounts whose last separator is a comma followed by one
// or two digits, e.g. "1.160,00" or "99,5".
var decimalComma = regexp.MustCompile(`^-?[0-9.]*[0-9],[0-9]{1,2}$`)

// normalizeAmount strips currency symbols and thousands separators. A
// trailing ",dd" is read as a decimal comma, so "1.160,00" is 1160.00 while
// "1,160.00" and "1,160" stay 1160.
func normalizeAmount(raw string) string {
	raw = strings.NewReplacer("$", "", " ", "", "\u00a0", "").Replace(raw)
	if decimalComma.MatchString(raw) {
		raw = strings.ReplaceAll(raw, ".", "")
		return strings.Replace(raw, ",", ".", 1)
	}
	return strings.ReplaceAll(raw, ",", "")
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ParseCurrency normalizes an ISO 4217 code from the model reply. Symbols and
// spaces are dropped, so "mxn $" is MXN; anything that is not three letters
// after that is rejected.
func ParseCurrency(raw string) (string, bool) {
	code := strings.ToUpper(strings.NewReplacer("$", "", " ", "", ".", "").Replace(raw))
	if !currencyCode.MatchString(code) {
		return "", false
	}
	return code, true
}

// MalformedResponseError is returned when the model's reply holds no usable JSON.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return domain.ErrMalformedResponse.Error()
	}
	return fmt.Sprintf("%s: %v", domain.ErrMalformedResponse.Error(), e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool {
	return target == domain.ErrMalformedResponse
}

var fencePattern = regexp.MustCompile("(?s)```([A-Za-z]*)[ \t]*\\r?\\n?(.*?)```")

// LocatePayload finds the JSON object in a model reply. A ```json fence wins,
// then any fence whose body starts with '{', then the span from the first '{'
// to the last '}'. Comments outside string literals are removed.
func LocatePayload(raw string) (string, error) {
	var candidate string
	var anyFence string
	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		body := strings.TrimSpace(m[2])
		if strings.EqualFold(m[1], "json") && candidate == "" {
			candidate = body
		}
		if anyFence == "" && strings.HasPrefix(body, "{") {
			anyFence = body
		}
	}
	if candidate == "" {
		candidate = anyFence
	}
	if candidate == "" {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return "", &MalformedResponseError{Raw: raw, Err: fmt.Errorf("no JSON object found")}
		}
		candidate = raw[start : end+1]
	}
	return strings.TrimSpace(StripComments(candidate)), nil
}

// StripComments removes // line and /* */ block comments that sit outside
// JSON string literals.
func StripComments(s string) string {
	var out bytes.Buffer
	out.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				out.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return out.String()
			}
			i += end + 3
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// ParsePayload locates and decodes the invoice JSON in a model reply.
func ParsePayload(raw string) (*Payload, error) {
	body, err := LocatePayload(raw)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return &p, nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "02/01/2006", "2006/01/02"}

// ParseDate reads the payload date in the layouts models commonly emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// LineItems converts the payload items into invoice lines where each total is
// quantity times unit price.
func (p *Payload) LineItems() domain.LineItems {
	items := make(domain.LineItems, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, domain.LineItem{
			Description: strings.TrimSpace(it.Descripcion),
			Quantity:    it.Cantidad.Decimal,
			UnitPrice:   it.Precio.Decimal,
			Total:       domain.LineTotal(it.Cantidad.Decimal, it.Precio.Decimal),
		})
	}
	return items
}
