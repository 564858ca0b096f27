package account

import (
	"fmt"

	"github.com/abezemskiy/gophauth/internal/client/tui"
	"github.com/abezemskiy/gophauth/internal/client/tui/app"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"

	"github.com/rivo/tview"
)

// Page - экран текущего пользователя после успешного входа.
func Page(app *app.App, user identity.UserRecord) tview.Primitive {
	text := fmt.Sprintf("Пользователь: %s\nID: %s\nСоздан: %s",
		user.Username, user.ID, user.CreatedAt.Format("2006-01-02 15:04:05"))

	form := tview.NewForm()
	form.AddTextView("Учётная запись", text, 60, 3, true, false)

	form.AddButton("Выйти", func() {
		if err := app.Session.Logout(app.Context()); err != nil {
			app.Error(err.Error())
		}
		app.SwitchTo(tui.Home)
	})
	form.AddButton("Удалить", func() {
		if err := app.Session.DeleteAccount(app.Context()); err != nil {
			app.Error(err.Error())
			return
		}
		app.SwitchTo(tui.Home)
		app.Message("учётная запись удалена")
	})

	form.SetBorder(true).SetTitle("Учётная запись").SetTitleAlign(tview.AlignCenter)
	return form
}
