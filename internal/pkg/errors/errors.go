package errors

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный пароль, нет токена).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов данных (например, повторная регистрация имени).
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки доменной модели викторин
var (
	// ErrInvalidAnswerIndex возвращается конструктором вопроса, когда индекс
	// правильного ответа выходит за границы списка вариантов. Такой вопрос
	// не должен существовать ни при каких условиях.
	ErrInvalidAnswerIndex = errors.New("answer index out of variants range")

	// ErrIDMismatch сигнализирует о расхождении между ключом вопроса в викторине
	// и собственным id загруженного вопроса. Это повреждение данных в хранилище.
	ErrIDMismatch = errors.New("question id mismatch")
)

// MissingFieldError возвращается при загрузке документа, в котором отсутствует
// (или пуст) обязательный атрибут. Поле именуется в терминах хранимого документа.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("document must contain '%s' field", e.Field)
}

// Is позволяет ловить MissingFieldError через errors.Is(err, ErrValidation)
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrValidation
}

// AccessDeniedError оборачивает отказ политики доступа на границе сервисного слоя.
// Внутри ядра отказ — обычное возвращаемое значение (granted, reason); в ошибку
// он превращается только для единообразной обработки в хендлерах.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrForbidden
}
