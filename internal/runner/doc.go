// Package runner запускает непрерывный цикл стандартизации:
// опрос очереди, диспетчеризация батчей, темп запросов и
// восстановление застрявших товаров.
package runner
