// Package mq публикует события конвейера стандартизации в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, queue, binding
//   - publisher.go  — публикация событий
//
// События:
//   - batch.completed — завершён батч стандартизации
//
// Брокер опционален: воркер без него работает в режиме
// polling-only, события просто не публикуются.
package mq
