package standards

import (
	"log/slog"
	"strings"
)

// Resolver приводит код ОКПД2 к ключу группы справочника ("XX.XX").
//
// Результат зависит только от кода и набора ключей каталога.
// Исключение — двузначные коды: для них берётся лексикографически
// первая подгруппа с подходящим префиксом, то есть результат зависит
// от сортированного перечисления ключей (намеренная неоднозначность,
// унаследованная от исходной системы).
type Resolver struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewResolver создаёт Resolver поверх каталога.
func NewResolver(catalog *Catalog, logger *slog.Logger) *Resolver {
	return &Resolver{catalog: catalog, logger: logger}
}

// Resolve возвращает ключ группы для кода ОКПД2
// или пустую строку, если код не разрешим.
func (r *Resolver) Resolve(code string) string {
	if code == "" {
		return ""
	}

	clean := strings.ReplaceAll(code, ".", "")

	switch {
	case len(clean) >= 4:
		return clean[:2] + "." + clean[2:4]

	case len(clean) == 2:
		// Для двузначных кодов — первая подходящая подгруппа.
		prefix := clean + "."
		for _, key := range r.catalog.GroupKeys() {
			if strings.HasPrefix(key, prefix) {
				r.logger.Info("using fallback group for short code",
					"code", code,
					"group", key,
				)
				return key
			}
		}
		r.logger.Warn("no matching group for short code", "code", code)
		return ""

	default:
		r.logger.Warn("invalid OKPD2 code format", "code", code)
		return ""
	}
}
