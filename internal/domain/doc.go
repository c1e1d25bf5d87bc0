// Package domain содержит основные типы предметной области:
// товары, атрибуты, результаты стандартизации и их статусы.
//
// Типы не зависят от хранилища и транспорта — bson/json теги
// описывают сериализацию, но вся логика работы с БД живёт в store.
package domain
