package internal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/traintrack/traintrack/internal/auth"
	"github.com/traintrack/traintrack/internal/config"
	"github.com/traintrack/traintrack/internal/db"
	"github.com/traintrack/traintrack/internal/goals"
	"github.com/traintrack/traintrack/internal/history"
	"github.com/traintrack/traintrack/internal/measurements"
	"github.com/traintrack/traintrack/internal/middleware"
	"github.com/traintrack/traintrack/internal/motivation"
	"github.com/traintrack/traintrack/internal/nutrition"
	"github.com/traintrack/traintrack/internal/prefs"
	"github.com/traintrack/traintrack/internal/progress"
	"github.com/traintrack/traintrack/internal/steps"
	"github.com/traintrack/traintrack/internal/telemetry/metrics"
	metricsmiddleware "github.com/traintrack/traintrack/internal/telemetry/metrics/middleware"
	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/internal/trainings"
)

type Server struct {
	httpServer          *http.Server
	metricsHttpServer   *http.Server
	healthSyncAppSecret string // used by the HealthSync companion app when pushing steps
	versionInfo         string
	traineeID           string

	config        *config.Config
	dbPool        *pgxpool.Pool
	healthSync    *steps.HealthSyncClient
	quotesManager *motivation.QuotesManager

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	HealthSyncApiKey        string
	HealthSyncAppSecret     string
	VersionInfo             string
	TraineeID               string
	TraineeUsername         string
	TraineePasswordHash     string
	RedisPassword           string
	PostgresUser            string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.PostgresUser,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "traintrack_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("traintrack", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // will be set to 1 when all is set and ran (I think this is probably not needed)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewAuthService(&auth.Trainee{
		Username:     params.TraineeUsername,
		PasswordHash: params.TraineePasswordHash,
	}, auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "traintrack-backend", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	s := &Server{
		config:              params.Config,
		dbPool:              dbPool,
		healthSyncAppSecret: params.HealthSyncAppSecret,
		healthSync: steps.NewHealthSyncClient(
			params.Config.HealthSyncBaseURL,
			params.HealthSyncApiKey,
			tracedHttpClient,
			metricsManager,
		),
		versionInfo: params.VersionInfo,
		traineeID:   params.TraineeID,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	quotesCsvFile, err := os.Open(params.Config.QuotesCsvPath)
	if err != nil {
		return nil, fmt.Errorf("open quotes file: %w", err)
	}
	defer func() {
		if err := quotesCsvFile.Close(); err != nil {
			log.Warnf("close quotes csv file: %s", err)
		}
	}()

	s.quotesManager, err = motivation.NewQuoteManager(csv.NewReader(quotesCsvFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create quote manager: %s", err)
	}

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("traintrack-router"))

	// trainings, history and prefs share their stores with the session
	// controller, so build those once
	trainingsRepo := trainings.NewRepo(s.dbPool)
	historyRepo := history.NewRepo(s.dbPool)
	prefsStore := prefs.NewStore(s.redisClient)

	trainingsHandler := trainings.NewHandler(
		trainings.NewController(trainingsRepo, historyRepo, s.metricsManager),
		trainingsRepo,
		prefsStore,
		history.NewMatcher(historyRepo),
		s.traineeID,
	)
	r.HandleFunc("/trainings", trainingsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-trainings")
	r.HandleFunc("/trainings", trainingsHandler.HandleNew).Methods("POST", "OPTIONS").Name("new-training")
	r.HandleFunc("/trainings/{id}", trainingsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-training")
	r.HandleFunc("/trainings/{id}", trainingsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-training")
	r.HandleFunc("/trainings/{id}/sets", trainingsHandler.HandleRecordSet).Methods("POST", "OPTIONS").Name("record-set")
	r.HandleFunc("/trainings/{id}/complete", trainingsHandler.HandleComplete).Methods("POST", "OPTIONS").Name("complete-training")
	r.HandleFunc("/trainings/{id}/save", trainingsHandler.HandleSaveAndExit).Methods("POST", "OPTIONS").Name("save-training")

	historyHandler := history.NewHandler(historyRepo, s.traineeID)
	r.HandleFunc("/history/exercise/{name}", historyHandler.HandleExerciseHistory).Methods("GET", "OPTIONS").Name("exercise-history")

	measurementsRepo := measurements.NewRepo(s.dbPool)
	measurementsHandler := measurements.NewHandler(measurementsRepo, s.metricsManager, s.traineeID)
	r.HandleFunc("/measurements/today", measurementsHandler.HandleGetToday).Methods("GET", "OPTIONS").Name("today-measurement")
	r.HandleFunc("/measurements/today", measurementsHandler.HandleSaveToday).Methods("POST", "OPTIONS").Name("save-measurement")
	r.HandleFunc("/measurements", measurementsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-measurements")

	goalsRepo := goals.NewRepo(s.dbPool)
	goalsHandler := goals.NewHandler(goalsRepo, s.traineeID)
	r.HandleFunc("/goals", goalsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-goals")
	r.HandleFunc("/goals", goalsHandler.HandleUpsert).Methods("POST", "OPTIONS").Name("upsert-goal")
	r.HandleFunc("/goals/{id}", goalsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-goal")

	nutritionRepo := nutrition.NewRepo(s.dbPool)
	nutritionHandler := nutrition.NewHandler(nutritionRepo, s.config.DailyCalorieTarget, s.traineeID)
	r.HandleFunc("/nutrition/today", nutritionHandler.HandleGetToday).Methods("GET", "OPTIONS").Name("today-nutrition")
	r.HandleFunc("/nutrition/today/food", nutritionHandler.HandleAddFood).Methods("POST", "OPTIONS").Name("add-food")
	r.HandleFunc("/nutrition", nutritionHandler.HandleList).Methods("GET", "OPTIONS").Name("list-nutrition")

	stepsRepo := steps.NewRepo(s.dbPool)
	stepsHandler := steps.NewHandler(
		steps.NewService(stepsRepo, s.healthSync, s.metricsManager),
		stepsRepo,
		s.metricsManager,
		s.traineeID,
	)
	r.HandleFunc("/steps/today", stepsHandler.HandleGetToday).Methods("GET", "OPTIONS").Name("today-steps")
	r.HandleFunc("/steps/today", stepsHandler.HandleSetManual).Methods("POST", "OPTIONS").Name("manual-steps")
	r.HandleFunc("/steps/sync", stepsHandler.HandleDeviceSync).Methods("POST", "OPTIONS").Name("sync-steps")
	r.HandleFunc("/steps", stepsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-steps")

	prefsHandler := prefs.NewHandler(prefsStore, s.traineeID)
	r.HandleFunc("/prefs/workout-mode", prefsHandler.HandleGetWorkoutMode).Methods("GET", "OPTIONS").Name("get-workout-mode")
	r.HandleFunc("/prefs/workout-mode", prefsHandler.HandleSetWorkoutMode).Methods("PUT", "OPTIONS").Name("set-workout-mode")

	progressHandler := progress.NewHandler(
		trainingsRepo,
		measurementsRepo,
		goalsRepo,
		nutritionRepo,
		s.config.DailyCalorieTarget,
		s.traineeID,
	)
	r.HandleFunc("/progress/overview", progressHandler.HandleOverview).Methods("GET", "OPTIONS").Name("progress-overview")
	r.HandleFunc("/progress/measurements", progressHandler.HandleMeasurementHistory).Methods("GET", "OPTIONS").Name("progress-measurements")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	motivationHandler := motivation.NewHandler(s.quotesManager, s.versionInfo, s.authService)
	motivationHandler.SetupRoutes(r, reqRateLimiter, s.config.LoginRateLimitAllowedPerMin, s.metricsManager)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		s.healthSyncAppSecret,
		s.loginChecker,
	)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metricsmiddleware.
		New(s.promRegistry, nil).
		WrapHandler("/metrics", promhttp.HandlerFor(
			s.promRegistry,
			promhttp.HandlerOpts{}),
		))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	// TODO: probably not needed to be set explicitly
	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
