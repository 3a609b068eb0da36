package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redibo/rental-api/internal/application/auth"
	"github.com/redibo/rental-api/internal/application/notification"
	"github.com/redibo/rental-api/internal/application/rating"
	"github.com/redibo/rental-api/internal/application/reservation"
	"github.com/redibo/rental-api/internal/application/user"
	"github.com/redibo/rental-api/internal/application/vehicle"
	"github.com/redibo/rental-api/internal/config"
	"github.com/redibo/rental-api/internal/transport/http/handler"
	appmiddleware "github.com/redibo/rental-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	dispatcher := notification.NewDispatcher(deps.SSERegistry, deps.SMSSender, deps.UserRepo)
	notifSvc := notification.NewService(notification.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		ReservationRepo:  deps.ReservationRepo,
		RentalRepo:       deps.RentalRepo,
		RatingRepo:       deps.RatingRepo,
		VehicleRepo:      deps.VehicleRepo,
		Dispatcher:       dispatcher,
	})
	adapter := notification.NewAdapter(notification.NewTemplateRegistry(), notifSvc)

	authDeps := auth.ServiceDeps{
		UserRepo:         deps.UserRepo,
		VerificationRepo: deps.VerificationRepo,
		Mailer:           deps.Mailer,
		CodeTTL:          cfg.TwoFactorTTL,
	}
	// Interface fields only get non-nil concretes; a nil *Provider stored in
	// the interface would slip past the service's nil checks.
	if deps.JWTProvider != nil {
		authDeps.JWTProvider = deps.JWTProvider
	}
	if deps.GoogleVerifier != nil {
		authDeps.GoogleVerifier = deps.GoogleVerifier
	}
	authSvc := auth.NewService(authDeps)
	userSvc := user.NewService(deps.UserRepo, deps.S3Store)
	vehicleSvc := vehicle.NewService(deps.VehicleRepo, deps.S3Store)
	reservationSvc := reservation.NewService(reservation.ServiceDeps{
		ReservationRepo: deps.ReservationRepo,
		RentalRepo:      deps.RentalRepo,
		VehicleRepo:     deps.VehicleRepo,
		Notifier:        adapter,
	})
	ratingSvc := rating.NewService(rating.ServiceDeps{
		RatingRepo:      deps.RatingRepo,
		RentalRepo:      deps.RentalRepo,
		ReservationRepo: deps.ReservationRepo,
		VehicleRepo:     deps.VehicleRepo,
		Notifier:        adapter,
	})

	healthH := handler.NewHealthHandler(deps.SSERegistry.Connected)
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	vehicleH := handler.NewVehicleHandler(vehicleSvc)
	reservationH := handler.NewReservationHandler(reservationSvc)
	ratingH := handler.NewRatingHandler(ratingSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	sseH := handler.NewSSEHandler(deps.SSERegistry)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.Get("/status", healthH.Status)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/verificar-codigo", authH.VerifyTwoFactor)
		r.With(sensitiveRL.Limit).Post("/auth/google", authH.GoogleSignIn)
		r.With(sensitiveRL.Limit).Post("/auth/recuperar-contrasena", authH.RequestRecovery)
		r.With(sensitiveRL.Limit).Post("/auth/restablecer-contrasena", authH.ResetPassword)
		r.With(sensitiveRL.Limit).Post("/usuarios", userH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/usuarios/me", userH.Me)
			r.Put("/usuarios/me", userH.Update)
			r.Post("/usuarios/me/foto", userH.UploadPhoto)
			r.Get("/usuarios/{id}", userH.Get)

			r.Post("/autos", vehicleH.Create)
			r.Get("/autos/mis-autos", vehicleH.ListMine)
			r.Get("/autos/{id}", vehicleH.Get)
			r.Put("/autos/{id}", vehicleH.Update)
			r.Delete("/autos/{id}", vehicleH.Delete)
			r.Post("/autos/{id}/imagenes", vehicleH.UploadImage)

			r.Post("/reservas", reservationH.Create)
			r.Get("/reservas/mis-reservas", reservationH.ListMine)
			r.Get("/reservas/{id}", reservationH.Get)
			r.Put("/reservas/{id}", reservationH.Modify)
			r.Put("/reservas/{id}/confirmar", reservationH.Confirm)
			r.Put("/reservas/{id}/cancelar", reservationH.Cancel)
			r.Post("/reservas/{id}/deposito", reservationH.PayDeposit)

			r.Put("/rentas/{id}/finalizar", reservationH.FinishRental)
			r.Put("/rentas/{id}/cancelar", reservationH.CancelRental)

			r.Post("/calificaciones", ratingH.Create)
			r.Get("/calificaciones/{id}", ratingH.Get)

			r.Route("/notificaciones", func(r chi.Router) {
				r.Get("/sse/connect", sseH.Connect)
				r.Get("/sse/{usuarioId}", sseH.ConnectAs)
				r.Get("/panel-notificaciones", notifH.Panel)
				r.Get("/detalle-notificacion/{id}", notifH.Detail)
				r.Put("/notificacion-leida/{id}", notifH.MarkRead)
				r.Delete("/eliminar-notificacion/{id}", notifH.Delete)
				r.Get("/notificaciones-no-leidas", notifH.UnreadCount)
				r.Get("/dropdown-notificaciones", notifH.Dropdown)
			})
		})
	})

	return r
}
