package app

import (
	"context"

	"github.com/abezemskiy/gophauth/internal/client/api"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"

	"github.com/rivo/tview"
)

// Session - операции сервиса аутентификации, доступные из интерфейса.
type Session interface {
	Register(ctx context.Context, creds identity.Credentials) (identity.UserRecord, error)
	Login(ctx context.Context, creds identity.Credentials) (api.LoginResult, error)
	Me(ctx context.Context) (identity.UserRecord, error)
	Logout(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// App представляет TUI-приложение.
type App struct {
	App     *tview.Application
	Pages   *tview.Pages
	Session Session

	ctx context.Context
}

// Primitives - структуры для хранения и передачи экранов.
type Primitives struct {
	Name string
	Prim func(*App) tview.Primitive
}

// NewApp создаёт новое TUI-приложение. Первый экран из prims показывается при запуске.
func NewApp(ctx context.Context, session Session, prims []Primitives) *App {
	tuiApp := &App{
		App:     tview.NewApplication(),
		Pages:   tview.NewPages(),
		Session: session,
		ctx:     ctx,
	}

	for i, p := range prims {
		tuiApp.Pages.AddPage(p.Name, p.Prim(tuiApp), true, i == 0)
	}

	tuiApp.App.SetRoot(tuiApp.Pages, true)

	return tuiApp
}

// Context - контекст запросов к серверу.
func (a *App) Context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// Run запускает приложение.
func (a *App) Run() error {
	return a.App.Run()
}

// SwitchTo переключает экран.
func (a *App) SwitchTo(page string) {
	a.Pages.SwitchToPage(page)
}

// Replace - заменяет содержимое экрана и переключается на него.
func (a *App) Replace(page string, prim tview.Primitive) {
	a.Pages.AddPage(page, prim, true, false)
	a.Pages.SwitchToPage(page)
}

// Stop останавливает приложение.
func (a *App) Stop() {
	a.App.Stop()
}

// Error - выводит ошибку на экран пользователя.
func (a *App) Error(message string) {
	a.modal("error", "Ошибка: "+message)
}

// Message - выводит сообщение на экран пользователя.
func (a *App) Message(message string) {
	a.modal("message", "Сообщение: "+message)
}

func (a *App) modal(name, text string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			a.Pages.RemovePage(name)
		})
	a.Pages.AddPage(name, modal, true, true)
}
