package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/middleware"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
)

func (s *Server) setupRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(monitoring.HTTPMetrics)

	r.Handle("/metrics", monitoring.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/health", s.deps.Health.HandleHealth).Methods(http.MethodGet).Name("health")

	sessions := middleware.NewSessionMiddleware(s.deps.Sessions, s.deps.IDs, s.deps.SessionOptions)
	requireAuth := middleware.NewAuthMiddleware(s.deps.Tokens)

	cartRouter := r.PathPrefix("/cart").Subrouter()
	cartRouter.Use(sessions)
	cartRouter.HandleFunc("", s.deps.Cart.HandleGetCart).Methods(http.MethodGet).Name("cart")
	cartRouter.HandleFunc("", s.deps.Cart.HandleClearCart).Methods(http.MethodDelete).Name("cart_clear")
	cartRouter.HandleFunc("/items", s.deps.Cart.HandleAddItem).Methods(http.MethodPost).Name("cart_add")
	cartRouter.HandleFunc("/items/{id:[0-9]+}", s.deps.Cart.HandleGetLine).Methods(http.MethodGet).Name("cart_line")
	cartRouter.HandleFunc("/items/{id:[0-9]+}", s.deps.Cart.HandleUpdateLine).Methods(http.MethodPut).Name("cart_line_update")
	cartRouter.HandleFunc("/items/{id:[0-9]+}", s.deps.Cart.HandleRemoveLine).Methods(http.MethodDelete).Name("cart_line_remove")
	cartRouter.Handle("/checkout", requireAuth(http.HandlerFunc(s.deps.Checkout.HandleCheckout))).
		Methods(http.MethodPost).Name("checkout")

	r.HandleFunc("/inventory", s.deps.Inventory.HandleListItems).Methods(http.MethodGet).Name("inventory")
	r.HandleFunc("/inventory/{id:[0-9]+}", s.deps.Inventory.HandleGetItem).Methods(http.MethodGet).Name("inventory_item")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(requireAuth)
	admin.HandleFunc("/inventory", s.deps.Inventory.HandleCreateItem).Methods(http.MethodPost).Name("admin_create_item")
	admin.HandleFunc("/inventory/{id:[0-9]+}/restock", s.deps.Inventory.HandleRestock).Methods(http.MethodPost).Name("admin_restock")

	sales := r.PathPrefix("/sales").Subrouter()
	sales.Use(requireAuth)
	sales.HandleFunc("/purchases", s.deps.Sales.HandlePurchases).Methods(http.MethodGet).Name("sales_purchases")
	sales.HandleFunc("/sold", s.deps.Sales.HandleSold).Methods(http.MethodGet).Name("sales_sold")

	handler := middleware.NewRecoveryMiddleware(s.logger)(r)
	handler = middleware.NewLoggingMiddleware(s.logger)(handler)
	handler = s.corsMiddleware(handler)
	handler = s.timeoutMiddleware(handler)

	return handler
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	timeout := s.requestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return http.TimeoutHandler(next, timeout, "Request timeout")
}
