// tui - терминальный интерфейс клиента.
package tui

// Имена экранов.
const (
	Home     = "home"
	Login    = "login"
	Register = "register"
	Account  = "account"
)
