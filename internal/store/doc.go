// Package store реализует доступ к трём MongoDB базам конвейера:
// классифицированной (очередь стандартизации), исходной (полные
// данные товаров) и стандартизированной (результаты).
package store
