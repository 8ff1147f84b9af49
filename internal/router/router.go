package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transmission-savoirs/api/internal/api/ad"
	"github.com/transmission-savoirs/api/internal/api/auth"
	"github.com/transmission-savoirs/api/internal/api/category"
	"github.com/transmission-savoirs/api/internal/api/contact"
	"github.com/transmission-savoirs/api/internal/api/user"
)

// Config carries the handlers and middleware the router wires together.
type Config struct {
	AuthHandler     *auth.AuthHandler
	AdHandler       *ad.Handler
	CategoryHandler *category.Handler
	UserHandler     *user.Handler
	ContactHandler  *contact.Handler

	Authenticate func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
}

// SetupRouter builds the route table. Server-wide middleware (request id,
// logging, recoverer, timeouts) is applied in main before mounting this.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	// The front end may run on any origin and sends credentials.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public reads and account entry points.
		r.Group(func(r chi.Router) {
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/resetpassword", cfg.AuthHandler.ResetPassword)
			r.Post("/contact", cfg.ContactHandler.SendForm)

			r.Get("/annonces", cfg.AdHandler.GetAll)
			r.Get("/annonces/{id}", cfg.AdHandler.GetOneWithSimilar)
			r.Get("/annonces/categorie/{category_id}", cfg.AdHandler.GetAllByCategory)
			r.Get("/annonces/type/{type_id}", cfg.AdHandler.GetAllByType)
			r.Get("/annonces/type/{type_id}/categorie/{category_id}", cfg.AdHandler.GetAllByTypeAndCategory)

			r.Get("/users", cfg.UserHandler.GetAllUsers)
			r.Get("/user/{id}", cfg.UserHandler.GetUserProfil)
			r.Get("/user/{user_id}/annonces", cfg.AdHandler.GetAllByUser)
			r.Get("/avatars", cfg.UserHandler.GetAllAvatars)

			r.Get("/categories", cfg.CategoryHandler.GetAllCategories)
			r.Get("/conditions", cfg.CategoryHandler.GetAllConditions)
			r.Get("/types", cfg.CategoryHandler.GetAllTypes)
		})

		// Bearer token required.
		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticate)

			r.Patch("/newpassword", cfg.AuthHandler.SetNewPassword)

			r.Post("/users/create-annonces", cfg.AdHandler.Create)
			r.Patch("/annonces/{id}", cfg.AdHandler.Edit)
			r.Delete("/annonces/{id}", cfg.AdHandler.Delete)

			r.Patch("/user/{id}", cfg.UserHandler.Edit)
			r.Delete("/user/{id}", cfg.UserHandler.Delete)
		})

		// Reference-table maintenance, admin role required.
		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticate)
			r.Use(cfg.RequireAdmin)

			r.Post("/categories", cfg.CategoryHandler.Create)
			r.Patch("/categories/{id}", cfg.CategoryHandler.Edit)
			r.Delete("/categories/{id}", cfg.CategoryHandler.Delete)
		})
	})

	return r
}
