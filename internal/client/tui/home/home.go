package home

import (
	"github.com/abezemskiy/gophauth/internal/client/tui"
	"github.com/abezemskiy/gophauth/internal/client/tui/app"

	"github.com/rivo/tview"
)

// Page - приветственное окно для входа в приложение.
func Page(app *app.App) tview.Primitive {
	list := tview.NewList().
		AddItem("Регистрация", "", 'a', func() { app.SwitchTo(tui.Register) }).
		AddItem("Вход", "", 'l', func() { app.SwitchTo(tui.Login) }).
		AddItem("Выход", "", 'q', func() { app.Stop() })

	list.SetBorder(true).SetTitle("Добро пожаловать в gophauth")

	return list
}
