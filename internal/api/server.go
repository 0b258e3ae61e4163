// Package api is the HTTP surface of pos-service.
package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"restaurant-pos/internal/engine"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/metrics"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Options wires optional collaborators into the server
type Options struct {
	Metrics        *metrics.Metrics
	Realtime       http.Handler
	Checks         map[string]HealthCheck
	RequestTimeout time.Duration
}

// Server handles HTTP requests for the POS
type Server struct {
	engine  *engine.Engine
	logger  *logger.Logger
	metrics *metrics.Metrics
	ws      http.Handler
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewServer creates a new HTTP server over the engine
func NewServer(eng *engine.Engine, log *logger.Logger, opts Options) *Server {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		engine:  eng,
		logger:  log,
		metrics: opts.Metrics,
		ws:      opts.Realtime,
		checks:  opts.Checks,
		timeout: timeout,
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withLogging)
	if s.metrics != nil {
		r.Use(s.metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeErrorResponse(w, r, http.StatusNotFound, "Route not found", "RouteNotFound")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed", "MethodNotAllowed")
	})

	r.Get("/health", s.healthCheck)
	if s.ws != nil {
		r.Method(http.MethodGet, "/ws/orders", s.ws)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))

		r.Route("/menu-items", func(r chi.Router) {
			r.Get("/", s.listMenuItems)
			r.Post("/", s.createMenuItem)
			r.Get("/{id}", s.getMenuItem)
			r.Patch("/{id}", s.updateMenuItem)
			r.Delete("/{id}", s.deleteMenuItem)
		})
		r.Get("/categories", s.listCategories)

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", s.createCart)
			r.Get("/{id}", s.getCart)
			r.Delete("/{id}", s.deleteCart)
			r.Post("/{id}/items", s.addCartItem)
			r.Put("/{id}/items/{itemID}", s.updateCartItem)
			r.Delete("/{id}/items/{itemID}", s.removeCartItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.listOrders)
			r.Post("/", s.placeOrder)
			r.Get("/{id}", s.getOrder)
			r.Patch("/{id}/status", s.updateOrderStatus)
			r.Post("/{id}/payments", s.recordPayment)
			r.Post("/{id}/driver", s.assignDriver)
		})
		r.Get("/kitchen/orders", s.kitchenQueue)

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", s.listTables)
			r.Post("/", s.createTable)
			r.Get("/{id}", s.getTable)
			r.Patch("/{id}/status", s.setTableStatus)
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Get("/", s.listDrivers)
			r.Post("/", s.createDriver)
			r.Get("/available", s.availableDrivers)
			r.Get("/{id}", s.getDriver)
			r.Post("/{id}/complete", s.completeDelivery)
			r.Patch("/{id}/duty", s.setDriverDuty)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", s.listReservations)
			r.Post("/", s.createReservation)
			r.Get("/available-tables", s.availableTables)
			r.Get("/{id}", s.getReservation)
			r.Patch("/{id}", s.updateReservation)
			r.Post("/{id}/cancel", s.cancelReservation)
			r.Post("/{id}/complete", s.completeReservation)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.listTransactions)
			r.Post("/", s.recordTransaction)
			r.Get("/aggregate", s.aggregate)
			r.Get("/sales-report", s.salesReport)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.listUsers)
			r.Post("/", s.createUser)
			r.Get("/{id}", s.getUser)
			r.Patch("/{id}", s.updateUser)
		})
		r.Post("/auth/login", s.login)

		r.Get("/dashboard", s.dashboard)
	})

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_server_started", fmt.Sprintf("Listening on %s", addr), "startup", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http_server_stopping", "Shutting down HTTP server", "shutdown", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// healthCheck handles GET /health requests
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			healthy = false
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}

	response := map[string]interface{}{
		"status":       "ok",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "pos-service",
		"healthy":      healthy,
		"dependencies": deps,
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}
	s.writeJSON(w, r, status, response)
}

// withLogging assigns a request id and logs every request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}

		r = r.WithContext(logger.ContextWithRequestID(r.Context(), requestID))
		w.Header().Set("X-Request-ID", requestID)

		s.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.Header.Get("User-Agent"),
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the wrapped writer to http.ResponseController
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack hands the connection to websocket upgrades
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(rw.ResponseWriter).Hijack()
}
