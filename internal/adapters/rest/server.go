package rest

import (
	"context"
	"fmt"
	"net/http"

	core_port "import-claim-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server - наш REST API сервер.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// NewServer создает новый экземпляр сервера.
func NewServer(
	port string,
	allowedOrigins []string,
	importHandler *ImportHandler,
	batchHandler *BatchHandler,
	claimHandler *ClaimHandler,
	baseLogger core_port.LoggerPort,
) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		AllowCredentials: true,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Операторские роуты импорта
		r.Route("/imports", func(r chi.Router) {
			r.Post("/spreadsheet", importHandler.ImportSpreadsheet)
			r.Get("/template", importHandler.DownloadTemplate)
			r.Post("/external", importHandler.ImportExternal)
		})
		r.Get("/external/search", importHandler.SearchExternal)

		r.Route("/batches/{batchID}", func(r chi.Router) {
			r.Get("/", batchHandler.GetBatch)
			r.Get("/properties", batchHandler.ListBatchProperties)
			r.Post("/extend", batchHandler.ExtendBatch)
			r.Delete("/", batchHandler.DeleteBatch)
		})

		// Публичные роуты claim-ссылок: токен в URL - единственный credential
		r.Route("/claim/{token}", func(r chi.Router) {
			r.Get("/", claimHandler.LookupClaim)
			r.Post("/", claimHandler.ClaimProperty)
		})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger,
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
