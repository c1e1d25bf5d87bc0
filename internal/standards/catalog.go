package standards

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// Characteristic — стандартная характеристика из справочника.
type Characteristic struct {
	// Name — человекочитаемое название (опционально: ключ
	// характеристики сам по себе является названием).
	Name string `json:"name,omitempty"`

	// Values — допустимые стандартные значения.
	Values []string `json:"values"`

	// Units — допустимые единицы измерения. Пустой список —
	// характеристика безразмерная.
	Units []string `json:"units"`

	// Variations — известные вариации написания (опционально).
	Variations []string `json:"variations,omitempty"`
}

// CharacteristicSet — набор характеристик одной группы ОКПД2,
// ключ — тип характеристики (characteristic_type).
type CharacteristicSet map[string]Characteristic

// catalogFile — корневая структура файла справочника.
//
// Исторически существовало два поколения схемы: старая с корневым
// ключом "okpd2_characteristics" (variations+values) и новая с
// "okpd2_groups" (values+units). Канонической считается новая;
// старая отвергается при загрузке.
type catalogFile struct {
	Groups map[string]CharacteristicSet `json:"okpd2_groups"`

	// Legacy присутствует только для диагностики старого формата.
	Legacy map[string]json.RawMessage `json:"okpd2_characteristics"`
}

// Catalog — загруженный справочник стандартов.
type Catalog struct {
	groups map[string]CharacteristicSet
	keys   []string // отсортированные ключи групп
}

// Load загружает справочник из файла.
//
// Ошибка загрузки не фатальна: возвращается пустой каталог, система
// продолжает работать в режиме "все товары без группы". Доступность
// важнее полноты для статических справочных данных.
func Load(path string, logger *slog.Logger) *Catalog {
	catalog, err := load(path)
	if err != nil {
		logger.Error("failed to load standards, running with empty catalog",
			"path", path,
			"error", err,
		)
		return Empty()
	}

	logger.Info("loaded OKPD2 standards",
		"path", path,
		"groups", len(catalog.keys),
	)
	return catalog
}

func load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standards file: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse standards file: %w", err)
	}

	if file.Groups == nil {
		if file.Legacy != nil {
			return nil, fmt.Errorf("standards file uses legacy %q schema, expected %q",
				"okpd2_characteristics", "okpd2_groups")
		}
		return nil, fmt.Errorf("standards file has no %q root key", "okpd2_groups")
	}

	return New(file.Groups), nil
}

// Validate загружает справочник строго: любая ошибка загрузки или
// схемы возвращается вызывающему. Используется CLI-проверкой файла.
func Validate(path string) (*Catalog, error) {
	return load(path)
}

// New создаёт каталог из готового набора групп.
func New(groups map[string]CharacteristicSet) *Catalog {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &Catalog{groups: groups, keys: keys}
}

// Empty возвращает пустой каталог.
func Empty() *Catalog {
	return New(nil)
}

// Lookup возвращает характеристики группы.
func (c *Catalog) Lookup(groupKey string) (CharacteristicSet, bool) {
	set, ok := c.groups[groupKey]
	return set, ok
}

// GroupKeys возвращает отсортированные ключи всех групп.
func (c *Catalog) GroupKeys() []string {
	return c.keys
}

// Len возвращает количество групп в каталоге.
func (c *Catalog) Len() int {
	return len(c.keys)
}
