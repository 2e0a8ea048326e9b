package database

import "errors"

var (
	// ErrNotFound не найдена запись
	ErrNotFound = errors.New("record not found")

	// ErrConflict сработала защита от двойного бронирования в транзакции
	ErrConflict = errors.New("time conflict with an existing reservation")

	// ErrUsernameTaken имя пользователя уже занято
	ErrUsernameTaken = errors.New("username already taken")
)
