package api

import (
	"log"
	"net/http"
	"time"

	"mathtutor-backend/internal/config"
	"mathtutor-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler  *handlers.AuthHandler
	TutorHandler *handlers.TutorHandlers
	Config       *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second)) // model invocations can take a while

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.AuthHandler == nil {
			panic("AuthHandler dependency is nil in router setup")
		}
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		if deps.AuthHandler != nil {
			r.Get("/me", deps.AuthHandler.HandleGetMe)
		}

		if deps.TutorHandler != nil {
			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", deps.TutorHandler.HandleCreateConversation)
				r.Get("/", deps.TutorHandler.HandleListConversations)
				r.Get("/{conversationID}", deps.TutorHandler.HandleGetConversation)
				r.Delete("/{conversationID}", deps.TutorHandler.HandleDeleteConversation)
				r.Get("/{conversationID}/messages", deps.TutorHandler.HandleGetMessages)
				r.Post("/{conversationID}/solve", deps.TutorHandler.HandleSolveProblem)
			})
		} else {
			log.Println("WARN: TutorHandler dependency is nil, skipping /v1/conversations routes.")
		}
	})

	return r
}
