package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize deja un término de búsqueda en minúsculas, sin tildes ni
// diacríticos y con espacios colapsados, para que "Martíllo  Stanley" y
// "martillo stanley" produzcan la misma consulta y la misma clave de caché.
func Normalize(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ""
	}
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		query,
	)
	if err == nil {
		query = folded
	}
	return strings.Join(strings.Fields(query), " ")
}
