package router

import (
	"net/http"

	_ "go-bank-ledger/docs"
	"go-bank-ledger/handler"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(
	userHandler *handler.UserHandler,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	tokens handler.TokenParser,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", handler.HealthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Post("/register", handler.ErrorHandlingMiddleware(userHandler.Register))
	r.Post("/token", handler.ErrorHandlingMiddleware(userHandler.Login))
	r.Post("/token/refresh", handler.ErrorHandlingMiddleware(userHandler.Refresh))

	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware(tokens))

		r.Get("/account", handler.ErrorHandlingMiddleware(accountHandler.GetAccount))
		r.Post("/deposit", handler.ErrorHandlingMiddleware(transactionHandler.Deposit))
		r.Post("/withdrawal", handler.ErrorHandlingMiddleware(transactionHandler.Withdraw))
		r.Post("/transfer", handler.ErrorHandlingMiddleware(transactionHandler.Transfer))
		r.Get("/transactions", handler.ErrorHandlingMiddleware(transactionHandler.ListTransactions))
	})

	return r
}
