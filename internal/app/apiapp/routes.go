package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/config"
	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
	authsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/auth"
	reportsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/reports"
	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager       *authsvc.JWTManager
	TrustService     *trustsvc.Service
	ReportService    *reportsvc.Service
	TrustLogRepo     *pgrepo.TrustLogRepo
	TrustMetricsRepo *pgrepo.TrustMetricsRepo
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	profileHandler := handlers.NewProfileHandler(deps.TrustService)
	reportHandler := handlers.NewReportHandler(deps.ReportService)
	adminReportsHandler := handlers.NewAdminReportsHandler(deps.ReportService)
	adminTrustHandler := handlers.NewAdminTrustHandler(deps.TrustService)
	adminTrustHandler.AttachLog(deps.TrustLogRepo)
	adminTrustHandler.AttachMetrics(deps.TrustMetricsRepo)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	moderatorRoleMW := RequireRole("ADMIN", "MODERATOR")
	adminRoleMW := RequireRole("ADMIN")

	r.Get("/healthz", healthHandler.Get)

	r.With(authMW).Get("/profile", profileHandler.Handle)
	r.Route("/reports", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", reportHandler.Create)
		r.Get("/{id}", reportHandler.Get)
		r.Post("/{id}/appeal", reportHandler.SubmitAppeal)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW)
		r.With(moderatorRoleMW).Post("/reports/{id}/status", adminReportsHandler.Decide)
		r.With(moderatorRoleMW).Post("/reports/{id}/appeal", adminReportsHandler.DecideAppeal)
		r.With(adminRoleMW).Post("/trust/{user_id}/adjust", adminTrustHandler.Adjust)
		r.With(adminRoleMW).Post("/trust/{user_id}/deactivate", adminTrustHandler.Deactivate)
		r.With(adminRoleMW).Get("/trust/{user_id}/log", adminTrustHandler.Log)
		r.With(adminRoleMW).Get("/metrics/trust", adminTrustHandler.Metrics)
	})
}
