package checker

import "crypto/subtle"

// MaxLoginLength - максимальная длина логина, совпадает с размером колонки username в хранилище.
const MaxLoginLength = 128

// CheckLogin - функция для проверки корректности логина.
func CheckLogin(login string) bool {
	// проверяю, что логин не является пустой строкой и помещается в хранилище
	return login != "" && len(login) <= MaxLoginLength
}

// CheckPassword - функция для проверки корректности пароля.
func CheckPassword(password string) bool {
	// проверяю, что пароль не является пустой строкой
	return password != ""
}

// IsAuthorize - функция для проверки совпадения хэшей пароля пользователя.
// Сравнение выполняется за постоянное время, чтобы по времени ответа нельзя было определить позицию расхождения.
func IsAuthorize(wantHash, getHash string) bool {
	return subtle.ConstantTimeCompare([]byte(wantHash), []byte(getHash)) == 1
}
