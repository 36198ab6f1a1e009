package handlers

import (
	"net/http"

	"expenses/internal/config"
	"expenses/internal/db"
	"expenses/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Handler struct {
	txRunner db.TxRunner
	cfg      config.Config
	logger   *zap.Logger
	users    UserStore
	service  ExpenseService
}

func New(txRunner db.TxRunner, cfg config.Config, logger *zap.Logger, users UserStore, service ExpenseService) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		txRunner: txRunner,
		cfg:      cfg,
		logger:   logger,
		users:    users,
		service:  service,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestLogger(h.logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	requireAuth := middleware.Auth(h.cfg.JWTSecret)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/token", h.Token)
		r.With(requireAuth).Get("/me", h.Me)
	})
	router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/{id}", h.GetExpense)
			r.Patch("/{id}", h.UpdateExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})
		r.Get("/summary/by-category", h.SummaryByCategory)
		r.Get("/summary/by-month", h.SummaryByMonth)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
