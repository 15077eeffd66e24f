package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed messages/*.json
var messagesFS embed.FS

// Supported locales
const (
	LocaleEnglish = "en"
	LocaleGerman  = "de"
	DefaultLocale = LocaleEnglish
)

var supported = []string{LocaleEnglish, LocaleGerman}

// Catalog holds nested message trees per locale, addressed by dot-notation keys
type Catalog struct {
	messages map[string]map[string]interface{}
}

// NewCatalog reads messages/<locale>.json for every supported locale in fsys.
// A locale without a file is simply absent.
func NewCatalog(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{messages: make(map[string]map[string]interface{})}

	for _, locale := range supported {
		data, err := fs.ReadFile(fsys, "messages/"+locale+".json")
		if err != nil {
			continue
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse messages for %s: %w", locale, err)
		}
		c.messages[locale] = msg
	}

	return c, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the catalog built from the embedded message files
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := NewCatalog(messagesFS)
		if err != nil {
			c = &Catalog{messages: map[string]map[string]interface{}{}}
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup finds key in locale, falling back to the default locale.
// ok is false when neither has it.
func (c *Catalog) Lookup(locale, key string) (string, bool) {
	if msg, ok := c.get(locale, key); ok {
		return msg, true
	}
	if locale != DefaultLocale {
		return c.get(DefaultLocale, key)
	}
	return "", false
}

func (c *Catalog) get(locale, key string) (string, bool) {
	current, ok := c.messages[locale]
	if !ok {
		return "", false
	}

	parts := strings.Split(key, ".")
	for i, part := range parts {
		if i == len(parts)-1 {
			str, ok := current[part].(string)
			return str, ok
		}

		nested, ok := current[part].(map[string]interface{})
		if !ok {
			return "", false
		}
		current = nested
	}

	return "", false
}

// Format replaces {name} placeholders with params in a single pass.
// Substituted values are never scanned for placeholders again.
func Format(msg string, params map[string]string) string {
	if len(params) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// NormalizeLocale maps anything unsupported to the default locale
func NormalizeLocale(locale string) string {
	for _, l := range supported {
		if locale == l {
			return l
		}
	}
	return DefaultLocale
}

// Localizer translates keys for one locale against the default catalog
type Localizer struct {
	locale  string
	catalog *Catalog
}

// NewLocalizer creates a new localizer for the given locale
func NewLocalizer(locale string) *Localizer {
	return &Localizer{locale: NormalizeLocale(locale), catalog: Default()}
}

// LocalizerFromContext creates a localizer from context
func LocalizerFromContext(ctx context.Context) *Localizer {
	return NewLocalizer(GetLocaleFromContext(ctx))
}

// T translates a message key with optional parameters. Unknown keys come back unchanged.
func (l *Localizer) T(key string, params ...map[string]string) string {
	msg, ok := l.catalog.Lookup(l.locale, key)
	if !ok {
		return key
	}
	if len(params) > 0 {
		msg = Format(msg, params[0])
	}
	return msg
}

// GetLocale returns the current locale
func (l *Localizer) GetLocale() string {
	return l.locale
}

type localeKey struct{}

// WithLocale adds locale to context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocaleFromContext retrieves locale from context
func GetLocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}

// ParseAcceptLanguage returns the best supported locale for an Accept-Language header
func ParseAcceptLanguage(header string) string {
	if strings.Contains(strings.ToLower(header), "de") {
		return LocaleGerman
	}
	return DefaultLocale
}
