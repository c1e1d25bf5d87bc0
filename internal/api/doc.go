// Package api — HTTP слой стандартизатора: батч-эндпоинт,
// статистика, поиск по атрибутам и сброс застрявших товаров.
//
// Структура:
//   - handler.go     — Handler и его зависимости
//   - routes.go      — маршруты
//   - middleware.go  — Recovery, Logging, APIKeyAuth
//   - response.go    — хелперы ответов
//   - dto.go         — форматы запросов и ответов
package api
