package loader

import (
	"html"
	"strings"
	"sync"

	"github.com/dgallion1/autopages/internal/record"
	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// plainText removes every HTML tag from s and decodes entities, since slide
// text boxes take plain text only.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(markupPolicy.Sanitize(s)))
}

func stripFields(f *record.Fields) {
	for _, key := range f.Keys() {
		v, _ := f.Get(key)
		f.Set(key, stripValue(v))
	}
}

func stripValue(v any) any {
	switch val := v.(type) {
	case string:
		return plainText(val)
	case *record.Fields:
		stripFields(val)
		return val
	case []any:
		for i := range val {
			val[i] = stripValue(val[i])
		}
		return val
	}
	return v
}
