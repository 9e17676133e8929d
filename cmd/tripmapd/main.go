// Command tripmapd serves trip map rendering and saved views over HTTP.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/viewstore"
)

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := LoadConfig()

	appCfg, err := style.Load(cfg.StylePath)
	if err != nil {
		log.Fatalf("Failed to load style %s: %v", cfg.StylePath, err)
	}

	log.Printf("Opening view database: %s", cfg.DBPath)
	store, err := viewstore.Open(context.Background(), cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open view database: %v", err)
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := NewServer(store, appCfg, cfg, logger)

	log.Printf("Map service starting on %s", cfg.Addr)
	log.Println("Render endpoints:")
	log.Println("  POST /api/render?format=svg|png")
	log.Println("  POST /api/layout")
	log.Println("View endpoints:")
	log.Println("  GET|POST /api/views")
	log.Println("  POST /api/views/import")
	log.Println("  GET|DELETE /api/views/{id}")
	log.Println("  GET /api/views/{id}/render?format=svg|png")
	log.Println("Other:")
	log.Println("  GET /api/presets")
	log.Println("  GET /health")

	if err := http.ListenAndServe(cfg.Addr, srv.Router()); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.Health)

	r.Post("/api/render", s.Render)
	r.Post("/api/layout", s.Layout)
	r.Get("/api/presets", s.Presets)

	r.Route("/api/views", func(r chi.Router) {
		r.Get("/", s.ListViews)
		r.Post("/", s.SaveView)
		r.Post("/import", s.ImportView)
		r.Get("/{id}", s.GetView)
		r.Delete("/{id}", s.DeleteView)
		r.Get("/{id}/render", s.RenderView)
	})
	return r
}
