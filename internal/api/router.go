package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/movebudget/movebudget-be/internal/api/handlers"
	"github.com/movebudget/movebudget-be/internal/auth"
	"github.com/movebudget/movebudget-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	issuer *auth.TokenIssuer,
	authService services.AuthServiceProvider,
	expenseService services.ExpenseServiceProvider,
	converter services.CurrencyConverterProvider,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, converter)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// All expense endpoints require a valid bearer access token
		r.Route("/expense", func(r chi.Router) {
			r.Use(issuer.Middleware())
			r.Get("/", expenseHandler.List)
			r.Post("/", expenseHandler.Create)
			r.Get("/convert", expenseHandler.Convert)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", expenseHandler.Get)
				r.Put("/", expenseHandler.Update)
				r.Delete("/", expenseHandler.Delete)
			})
		})
	})

	return r
}
