package dispatch

import (
	"strings"

	"standardizer/internal/domain"
)

// CoveragePolicy решает, покрыт ли исходный атрибут каким-либо
// стандартизированным. Непокрытые атрибуты попадают в
// unstandardized_attributes итоговой записи.
type CoveragePolicy interface {
	Covered(original domain.ProductAttribute, standardized []domain.StandardizedAttribute) bool
}

// SubstringCoverage — эвристика по подстроке: исходное имя покрыто,
// если в нижнем регистре оно равно, содержит или содержится в
// стандартном имени. Даёт ложные совпадения вида "цвет" и
// "цвет корпуса"; при необходимости заменяется точным сопоставлением
// без изменений в диспетчере.
type SubstringCoverage struct{}

// Covered реализует CoveragePolicy.
func (SubstringCoverage) Covered(original domain.ProductAttribute, standardized []domain.StandardizedAttribute) bool {
	name := strings.ToLower(strings.TrimSpace(original.Name))
	if name == "" {
		return false
	}

	for _, attr := range standardized {
		std := strings.ToLower(strings.TrimSpace(attr.StandardName))
		if std == "" {
			continue
		}
		if name == std || strings.Contains(name, std) || strings.Contains(std, name) {
			return true
		}
	}
	return false
}
