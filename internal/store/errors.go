package store

import "errors"

// Общие ошибки хранилищ.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID — идентификатор не является корректным ObjectID.
	ErrInvalidID = errors.New("invalid object id")

	// ErrPartialWrite — bulk-операция записала не все документы.
	ErrPartialWrite = errors.New("partial bulk write")
)
