package repository

import "errors"

var (
	// ErrQuizNotDraft означает, что условный старт не прошёл: викторина не в статусе draft.
	ErrQuizNotDraft = errors.New("quiz is not in draft status")
	// ErrCursorMoved означает, что условная операция по курсору проиграла
	// гонку: статус или current_question изменились между чтением и условным
	// UPDATE либо условным INSERT ответа.
	ErrCursorMoved = errors.New("quiz cursor has moved")
	// ErrPinTaken означает, что игровой пин уже занят другой незавершённой викториной.
	ErrPinTaken = errors.New("game pin is already in use")
	// ErrDisplayNameTaken означает, что имя игрока уже занято в ростере этой сессии.
	ErrDisplayNameTaken = errors.New("display name is already taken")
	// ErrAnswerExists означает, что ответ игрока на этот вопрос уже записан.
	ErrAnswerExists = errors.New("answer already recorded")
)
