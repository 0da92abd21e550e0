package websocket

// Типы событий игровой сессии
const (
	// SESSION_STARTED сообщает о переходе викторины в режим live
	SESSION_STARTED = "session.started"

	// SESSION_COMPLETED сообщает о завершении викторины
	SESSION_COMPLETED = "session.completed"

	// QUESTION_ADVANCED сообщает о переходе к следующему вопросу
	QUESTION_ADVANCED = "question.advanced"

	// PLAYER_JOINED сообщает о присоединении игрока к сессии
	PLAYER_JOINED = "player.joined"

	// ANSWER_RECORDED сообщает о зафиксированном ответе игрока
	ANSWER_RECORDED = "answer.recorded"
)
