// router - пакет, собирающий HTTP маршруты сервиса.
package router

import (
	"net/http"

	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/server/handlers"
	"github.com/abezemskiy/gophauth/internal/server/identity/auth"
	"github.com/abezemskiy/gophauth/internal/server/identity/login"
	"github.com/abezemskiy/gophauth/internal/server/logger"

	"github.com/go-chi/chi/v5"
)

// Dependencies - зависимости хэндлеров.
type Dependencies struct {
	Users     identity.UserStore
	Login     *login.Controller
	Resolver  *auth.Resolver
	Redirects handlers.Redirects
}

// New - дирежирует обработку http запросов к серверу.
func New(deps Dependencies) chi.Router {
	r := chi.NewRouter()
	withSession := auth.Middleware(deps.Resolver)
	// protected - маршрут доступен только с действующей сессией
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return logger.RequestLogger(withSession(auth.Required(h)))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", logger.RequestLogger(handlers.RegisterHandler(deps.Users)))
		r.Post("/login", logger.RequestLogger(handlers.LoginHandler(deps.Login, deps.Redirects)))
		r.Post("/logout", protected(handlers.LogoutHandler(deps.Login)))

		r.Get("/user", protected(handlers.MeHandler()))
		r.Delete("/user", protected(handlers.DeleteAccountHandler(deps.Users, deps.Login)))
	})

	// Определяем маршрут по умолчанию для некорректных запросов
	r.NotFound(logger.RequestLogger(handlers.HandleOtherRequest()))

	return r
}
