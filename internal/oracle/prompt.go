package oracle

import (
	"encoding/json"
	"fmt"

	"standardizer/internal/standards"
)

// instructionTemplate — кэшируемая часть промпта. Плейсхолдеры:
// ключ группы и JSON стандартов.
const instructionTemplate = `ЗАДАЧА: Стандартизировать характеристики товаров согласно предоставленным стандартам ОКПД2.

ИНСТРУКЦИИ:
1. Для каждого товара приведи атрибуты к стандартным названиям и значениям
2. Используй ТОЛЬКО характеристики из предоставленного стандарта для данной группы ОКПД2
3. Сопоставь исходные атрибуты с наиболее подходящими стандартными по смыслу
4. Если атрибут не соответствует ни одной стандартной характеристике - НЕ включай его в результат
5. Стандартизируй значения согласно допустимым вариантам из стандарта
6. Возвращай результат СТРОГО в формате JSON без дополнительного текста

ПРАВИЛА СТАНДАРТИЗАЦИИ:
- Название характеристики должно ТОЧНО соответствовать ключу из стандарта
- Значение должно быть из списка "values" или с правильными единицами измерения из "units"
- Если у характеристики есть единицы измерения - ОБЯЗАТЕЛЬНО укажи их в поле "unit"
- При сопоставлении учитывай смысл атрибута, а не только точное совпадение названия
- Приводи единицы измерения к стандартным из списка "units"
- Если значение не подходит под стандарт - выбери ближайшее подходящее или пропусти атрибут
- characteristic_type - это ключ характеристики из стандарта

ПРИМЕРЫ СОПОСТАВЛЕНИЯ:
- "количество слоев: 2" → standard_value: "2", unit: "слой"
- "вес 500г" → standard_value: "500", unit: "г"
- "цвет изделия" → "Цвет" (если есть в стандарте)
- "масса нетто" → "Вес" (если есть в стандарте)

ФОРМАТ ВЫВОДА (массив JSON):
[
  {
    "product_id": "ID товара",
    "standardized_attributes": [
      {
        "standard_name": "Название из ключа стандарта",
        "standard_value": "Стандартизированное значение",
        "unit": "Единица измерения из units или null",
        "characteristic_type": "Ключ характеристики из стандарта"
      }
    ]
  }
]

ДОСТУПНЫЕ СТАНДАРТЫ ДЛЯ ГРУППЫ %s:
%s`

// RenderCachedSegment рендерит кэшируемый сегмент для группы ОКПД2.
//
// Для фиксированного каталога результат байт-в-байт одинаков между
// вызовами (json.Marshal сериализует ключи map в сортированном
// порядке) — это условие переиспользования кэша на стороне API.
func RenderCachedSegment(groupKey string, set standards.CharacteristicSet) (string, error) {
	standardsJSON, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal standards for group %s: %w", groupKey, err)
	}

	return fmt.Sprintf(instructionTemplate, groupKey, standardsJSON), nil
}
