// Package ident отвечает за детерминированный вывод идентификаторов из текста.
//
// Идентификатор — это md5-хеш текста, представленный как десятичная строка
// большого целого числа. Схема намеренно совместима с уже сохраненными
// документами: один и тот же текст всегда дает один и тот же id. Защиты от
// коллизий здесь нет — слабый fallback для регистрации пользователей живет
// в сервисном слое.
package ident

import (
	"crypto/md5"
	"math/big"
)

// FromText возвращает детерминированный id для произвольного текста.
func FromText(text string) string {
	sum := md5.Sum([]byte(text))
	return new(big.Int).SetBytes(sum[:]).String()
}
