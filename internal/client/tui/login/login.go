// login - экраны входа и регистрации.
package login

import (
	"errors"

	"github.com/abezemskiy/gophauth/internal/client/api"
	"github.com/abezemskiy/gophauth/internal/client/logger"
	"github.com/abezemskiy/gophauth/internal/client/tui"
	"github.com/abezemskiy/gophauth/internal/client/tui/account"
	"github.com/abezemskiy/gophauth/internal/client/tui/app"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"

	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Form - форма ввода логина и пароля.
type Form struct {
	*tview.Form
	creds identity.Credentials
}

// Credentials - введённые учётные данные.
func (f *Form) Credentials() identity.Credentials {
	return f.creds
}

func newForm(title, submitLabel string, submit func(identity.Credentials), cancel func()) *Form {
	f := &Form{Form: tview.NewForm()}

	f.AddInputField("Логин", "", 20, nil, func(text string) { f.creds.Username = text })
	f.AddPasswordField("Пароль", "", 20, '*', func(text string) { f.creds.Password = text })
	f.AddButton(submitLabel, func() { submit(f.creds) })
	f.AddButton("Отмена", cancel)

	f.SetBorder(true).SetTitle(title).SetTitleAlign(tview.AlignCenter)
	return f
}

// LoginPage - экран входа.
func LoginPage(app *app.App) tview.Primitive {
	return newForm("Вход", "Войти", func(creds identity.Credentials) {
		if creds.Username == "" || creds.Password == "" {
			app.Error("логин и пароль не могут быть пустыми")
			return
		}

		if _, err := app.Session.Login(app.Context(), creds); err != nil {
			logger.ClientLog.Info("login failed", zap.String("username", creds.Username), zap.Error(err))
			if errors.Is(err, api.ErrInvalidCredentials) {
				app.Error("неверный логин или пароль")
				return
			}
			app.Error(err.Error())
			return
		}

		user, err := app.Session.Me(app.Context())
		if err != nil {
			app.Error(err.Error())
			return
		}
		app.Replace(tui.Account, account.Page(app, user))
	}, func() { app.SwitchTo(tui.Home) })
}

// RegisterPage - экран регистрации.
func RegisterPage(app *app.App) tview.Primitive {
	return newForm("Регистрация", "Зарегистрироваться", func(creds identity.Credentials) {
		if creds.Username == "" || creds.Password == "" {
			app.Error("логин и пароль не могут быть пустыми")
			return
		}

		if _, err := app.Session.Register(app.Context(), creds); err != nil {
			if errors.Is(err, api.ErrConflict) {
				app.Error("пользователь с таким логином уже существует")
				return
			}
			app.Error(err.Error())
			return
		}
		app.SwitchTo(tui.Login)
		app.Message("пользователь зарегистрирован, выполните вход")
	}, func() { app.SwitchTo(tui.Home) })
}
