// Package standards загружает и индексирует справочник
// стандартных характеристик ОКПД2.
//
// Справочник — статический JSON с корневым ключом "okpd2_groups":
// группа ОКПД2 ("XX.XX") → характеристики с допустимыми значениями
// и единицами измерения. Справочник не перечитывается в рантайме.
//
// Здесь же живёт Resolver — приведение кода ОКПД2 к ключу группы.
package standards
