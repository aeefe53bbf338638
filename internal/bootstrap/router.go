package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/GoSim-25-26J-441/issue-tracker/internal/api/http"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/api/http/middleware"
	issueshttp "github.com/GoSim-25-26J-441/issue-tracker/internal/issues/http"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Backend        string
	Store          httpapi.Pinger
	Issues         *service.IssueService
	Logger         *zap.Logger
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Registry receives the HTTP collectors. When nil a private registry
	// is created; /metrics always includes the default registry too.
	Registry *prometheus.Registry
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))
	r.Use(middleware.RequestIDMiddleware(dep.Logger))

	reg := dep.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r.Use(middleware.NewHTTPMetrics(reg).Middleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Backend, dep.Store)
	healthHandler.RegisterRoutes(r)

	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, reg}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))

	api := r.Group("/api/issues")
	api.Use(middleware.RateLimitMiddleware(dep.RateLimitRPS, dep.RateLimitBurst))
	issueshttp.New(dep.Issues).Register(api)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
