// Package dispatch содержит ядро конвейера: кэш промпт-контекстов
// по группам ОКПД2 и диспетчер, который захватывает товары, гоняет
// их через AI стандартизатор и раскладывает результаты по БД.
package dispatch
