package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const MessageUnexpectedError = "errors.unexpected"

type localeContextKey struct{}

func ContextWithLocale(ctx context.Context, locale string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey{}, normalizeLocale(locale))
}

func LocaleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	locale, _ := ctx.Value(localeContextKey{}).(string)
	return locale
}

// CatalogLocalizer resolves keys from in-memory catalogs. Lookup order is the
// context locale, its base language, the default locale, then the key itself.
type CatalogLocalizer struct {
	mu            sync.RWMutex
	defaultLocale string
	catalogs      map[string]map[string]string
}

func NewCatalogLocalizer(defaultLocale string) *CatalogLocalizer {
	defaultLocale = normalizeLocale(defaultLocale)
	if defaultLocale == "" {
		defaultLocale = DefaultLocale
	}
	localizer := &CatalogLocalizer{
		defaultLocale: defaultLocale,
		catalogs:      map[string]map[string]string{},
	}
	localizer.Register("en", map[string]string{
		MessageUnexpectedError: "An unexpected error occurred.",
	})
	localizer.Register("fr", map[string]string{
		MessageUnexpectedError: "Une erreur inattendue s'est produite.",
	})
	return localizer
}

// Register merges messages into the catalog for locale.
func (l *CatalogLocalizer) Register(locale string, messages map[string]string) {
	if l == nil {
		return
	}
	locale = normalizeLocale(locale)
	if locale == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	catalog, ok := l.catalogs[locale]
	if !ok {
		catalog = make(map[string]string, len(messages))
		l.catalogs[locale] = catalog
	}
	for key, message := range messages {
		catalog[key] = message
	}
}

func (l *CatalogLocalizer) Localize(ctx context.Context, key string, args ...any) string {
	if l == nil {
		return key
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, locale := range l.candidates(LocaleFromContext(ctx)) {
		catalog, ok := l.catalogs[locale]
		if !ok {
			continue
		}
		message, ok := catalog[key]
		if !ok {
			continue
		}
		if len(args) > 0 {
			return fmt.Sprintf(message, args...)
		}
		return message
	}
	return key
}

func (l *CatalogLocalizer) candidates(locale string) []string {
	out := make([]string, 0, 3)
	if locale != "" {
		out = append(out, locale)
		if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
			out = append(out, base)
		}
	}
	return append(out, l.defaultLocale)
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	return strings.ReplaceAll(locale, "_", "-")
}
