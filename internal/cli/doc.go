// Package cli реализует инструмент командной строки стандартизатора.
//
// CLI — клиентская утилита для работы со standardizer API. Работает
// через HTTP и не импортирует внутренние пакеты конвейера; единственное
// исключение — локальная проверка файла стандартов (standards validate),
// которая читает файл напрямую.
//
// Команды:
//   - stats               — статистика очереди и результатов
//   - stuck reset         — сброс застрявших товаров
//   - products find       — поиск по стандартизированному атрибуту
//   - standards validate  — проверка файла стандартов ОКПД2
//
// Каждая группа команд создаётся фабричной функцией, принимающей
// clientFn и outputFn — замыкания для ленивого создания Client и
// Output после парсинга PersistentFlags.
package cli
