package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oli-store-api/internal/application/auth"
	fileapp "github.com/oli-store-api/internal/application/file"
	"github.com/oli-store-api/internal/application/otp"
	"github.com/oli-store-api/internal/application/user"
	"github.com/oli-store-api/internal/config"
	"github.com/oli-store-api/internal/domain"
	"github.com/oli-store-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/oli-store-api/internal/infrastructure/jwt"
	s3infra "github.com/oli-store-api/internal/infrastructure/s3"
	"github.com/oli-store-api/internal/infrastructure/sms"
	"github.com/oli-store-api/internal/infrastructure/smtp"
	"github.com/oli-store-api/internal/pkg/otpcode"
	"github.com/oli-store-api/internal/transport/http/handler"
	appmiddleware "github.com/oli-store-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	OtpRepo     OtpRepository
	FileRepo    *dynamo.FileRepo
	S3Store     *s3infra.Store
	Mailer      smtp.Mailer
	SMSSender   sms.Sender
	CodeGen     *otpcode.Generator
	JWTProvider *jwtinfra.Provider
}

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

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:  deps.OtpRepo,
		Codes:  deps.CodeGen,
		SMS:    deps.SMSSender,
		Mailer: deps.Mailer,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		OTPService:  otpSvc,
		JWTProvider: deps.JWTProvider,
	})
	userSvc := user.NewService(deps.UserRepo)
	fileSvc := fileapp.NewService(deps.S3Store, deps.FileRepo)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(otpSvc)
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	fileH := handler.NewFileHandler(fileSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Check)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/password/forgot", authH.ForgotPassword)
		r.With(sensitiveRL.Limit).Post("/auth/password/reset", authH.ResetPassword)
		r.With(sensitiveRL.Limit).Post("/otp/send", otpH.Send)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)
		r.Get("/otp/status", otpH.Status)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Post("/files", fileH.Upload)
			r.Get("/files/{id}", fileH.Download)
			r.Get("/files/{id}/url", fileH.PresignURL)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
				r.Delete("/files/{id}", fileH.Delete)
			})
		})
	})

	return r
}
