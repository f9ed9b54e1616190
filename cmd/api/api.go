package api

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/careslot/careslot-server/service/appointment"
	"github.com/careslot/careslot-server/service/dashboard"
	"github.com/careslot/careslot-server/service/events"
	"github.com/careslot/careslot-server/service/mailer"
	notification "github.com/careslot/careslot-server/service/notifications"
	"github.com/careslot/careslot-server/service/operator"
	"github.com/careslot/careslot-server/service/payment"
	"github.com/careslot/careslot-server/service/transactions"
	"github.com/careslot/careslot-server/service/video"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	hub := events.NewHub()
	hub.RegisterRoutes(router)

	mail, err := mailer.NewFromEnv()
	if err != nil {
		return err
	}

	push := notification.NewPushService(s.db)
	links := payment.NewUPILinks(os.Getenv("UPI_VPA"), os.Getenv("UPI_PAYEE"), os.Getenv("BASE_URL"))
	rooms := video.NewProvisioner(envOr("VIDEO_ROOM_PREFIX", "consult"), envOr("VIDEO_BASE_URL", "https://meet.jit.si"))

	engine := appointment.NewEngine(appointment.Config{
		OperatorEmail: os.Getenv("OPERATOR_EMAIL"),
		Fee:           consultFee(),
		BaseURL:       os.Getenv("BASE_URL"),
	}, appointment.NewGormStore(s.db), mail, links, rooms, push, hub)

	appointmentHandler := appointment.NewAppointmentHandler(engine)
	appointmentHandler.RegisterRoutes(subrouter)

	notificationHandler := notification.NewNotificationHandler(s.db, push)
	notificationHandler.RegisterRoutes(subrouter)

	dashboardHandler := dashboard.NewDashboardHandler(s.db)
	dashboardHandler.RegisterRoutes(subrouter)

	transactionHandler := transactions.NewTransactionHandler(s.db)
	transactionHandler.RegisterRoutes(subrouter)

	operatorHandler := operator.NewHandler()
	operatorHandler.RegisterRoutes(subrouter)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, handlers.LoggingHandler(os.Stdout, cors(router)))
}

func consultFee() float64 {
	if raw := os.Getenv("CONSULT_FEE"); raw != "" {
		if fee, err := strconv.ParseFloat(raw, 64); err == nil && fee > 0 {
			return fee
		}
		log.Printf("Invalid CONSULT_FEE %q, using default", raw)
	}
	return 500
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
