package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у актора недостаточно прав для действия
	// (не хост викторины, не участник ростера).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных
	// (неверный формат пина, индекс варианта вне диапазона и т.д.).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState используется, когда операция недопустима для текущего
	// статуса сессии (старт не-draft викторины, join в completed и т.д.).
	ErrInvalidState = errors.New("operation invalid for current session state")

	// ErrConflict используется, когда условное атомарное обновление проиграло
	// гонку (например, два параллельных advance одной викторины).
	ErrConflict = errors.New("resource state conflict")

	// ErrNameTaken используется при попытке войти в ростер с уже занятым именем.
	ErrNameTaken = errors.New("display name already taken in this session")

	// ErrDuplicateAnswer используется при повторной отправке ответа на уже
	// отвеченный вопрос. Клиенты трактуют её как идемпотентный ретрай.
	ErrDuplicateAnswer = errors.New("answer already submitted for this question")

	// ErrStaleQuestion используется, когда ответ отправлен на вопрос, который
	// не является текущим (слишком рано или хост уже продвинулся дальше).
	ErrStaleQuestion = errors.New("question is not the current question")

	// ErrPinSpaceExhausted используется, когда генерация игрового пина не
	// нашла свободного значения за отведённое число попыток.
	ErrPinSpaceExhausted = errors.New("failed to allocate a unique game pin")
)
