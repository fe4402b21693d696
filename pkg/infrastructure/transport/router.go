package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"novacart/pkg/domain/service"
)

const tokenCookie = "token"

type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Products      service.ProductService
	Orders        service.OrderService
	Notifications service.NotificationService
	Dashboard     service.DashboardService
}

type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

type server struct {
	Services
	cookie CookieOptions
	logger logrus.FieldLogger
	now    func() time.Time
}

func Router(services Services, cookie CookieOptions, logger logrus.FieldLogger) http.Handler {
	s := &server{
		Services: services,
		cookie:   cookie,
		logger:   logger,
		now:      time.Now,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/products", s.listProducts).Methods(http.MethodGet)
	api.Handle("/products", s.requireAdmin(s.createProduct)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", s.getProduct).Methods(http.MethodGet)
	api.Handle("/products/{id}", s.requireAdmin(s.updateProduct)).Methods(http.MethodPut)
	api.Handle("/products/{id}", s.requireAdmin(s.deleteProduct)).Methods(http.MethodDelete)

	api.Handle("/orders", s.requireUser(s.placeOrder)).Methods(http.MethodPost)
	api.Handle("/orders", s.requireUser(s.listOwnOrders)).Methods(http.MethodGet)

	api.Handle("/notifications", s.requireUser(s.getInbox)).Methods(http.MethodGet)
	api.Handle("/notifications", s.requireUser(s.markNotificationsRead)).Methods(http.MethodPut)

	api.Handle("/auth/me", s.requireUser(s.me)).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.adminMiddleware)
	admin.HandleFunc("/orders", s.listAllOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}", s.setOrderStatus).Methods(http.MethodPut)
	admin.HandleFunc("/users", s.listUsers).Methods(http.MethodGet)
	admin.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)

	return s.logMiddleware(r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL.String(),
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
			"status":     rec.status,
			"duration":   s.now().Sub(start).String(),
		}).Info("handled request")
	})
}
