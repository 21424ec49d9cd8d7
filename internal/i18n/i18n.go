// Package i18n holds the message catalogs for the UI.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog resolves message keys for one language, falling back to English
// and finally to the key itself
type Catalog struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// Load builds a catalog for the given language code (en or es)
func Load(lang string) (*Catalog, error) {
	en, err := readLocale("en")
	if err != nil {
		return nil, err
	}
	c := &Catalog{lang: "en", messages: en, fallback: en}
	if lang == "en" || lang == "" {
		return c, nil
	}
	msgs, err := readLocale(lang)
	if err != nil {
		return nil, err
	}
	c.lang = lang
	c.messages = msgs
	return c, nil
}

func readLocale(lang string) (map[string]string, error) {
	raw, err := localeFS.ReadFile("locales/" + lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unsupported language %q: %w", lang, err)
	}
	var msgs map[string]string
	if err := yaml.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", lang, err)
	}
	return msgs, nil
}

// Lang returns the catalog's language code
func (c *Catalog) Lang() string {
	return c.lang
}

// Has reports whether either catalog knows the key
func (c *Catalog) Has(key string) bool {
	if _, ok := c.messages[key]; ok {
		return true
	}
	_, ok := c.fallback[key]
	return ok
}

// Get resolves a message key
func (c *Catalog) Get(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	if msg, ok := c.fallback[key]; ok {
		return msg
	}
	return key
}

// Getf resolves a key and formats it with the given arguments
func (c *Catalog) Getf(key string, args ...interface{}) string {
	return fmt.Sprintf(c.Get(key), args...)
}

// Resolve maps a stored language selection to a concrete catalog language.
// "auto" follows the process locale; Spanish and its co-official neighbours
// map to the Spanish catalog, everything else to English.
func Resolve(selection string) string {
	if selection != "" && selection != "auto" {
		return selection
	}
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		code := strings.ToLower(v)
		if i := strings.IndexAny(code, "_.-"); i > 0 {
			code = code[:i]
		}
		switch code {
		case "es", "ca", "eu", "gl":
			return "es"
		}
		return "en"
	}
	return "en"
}

// NextLanguage cycles the language selection: auto, then en, then es
func NextLanguage(current string) string {
	switch current {
	case "auto":
		return "en"
	case "en":
		return "es"
	default:
		return "auto"
	}
}
