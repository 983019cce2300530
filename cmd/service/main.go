package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/traintrack/traintrack/internal"
	"github.com/traintrack/traintrack/internal/config"
	"github.com/traintrack/traintrack/internal/logging"
	"github.com/traintrack/traintrack/pkg"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "traintrack-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	healthSyncApiKey := os.Getenv("TRAINTRACK_HEALTH_SYNC_API_KEY")
	if healthSyncApiKey == "" {
		log.Errorf("health sync API key not set, use TRAINTRACK_HEALTH_SYNC_API_KEY env var to set it")
	}

	healthSyncAppSecret := os.Getenv("TRAINTRACK_HEALTH_SYNC_APP_SECRET")
	if healthSyncAppSecret == "" {
		log.Errorf("health sync app secret not set. use TRAINTRACK_HEALTH_SYNC_APP_SECRET")
	}

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	traineeUsername := os.Getenv("TRAINTRACK_TRAINEE_USERNAME")
	traineePasswordHash := os.Getenv("TRAINTRACK_TRAINEE_PASSWORD_HASH")
	if traineeUsername == "" || traineePasswordHash == "" {
		log.Errorf("trainee username and password not set. use TRAINTRACK_TRAINEE_USERNAME and TRAINTRACK_TRAINEE_PASSWORD_HASH")
		traineeUsername = "trainee"
		traineePasswordHash = "$2a$14$6Gmhg85si2etd3K9oB8nYu1cxfbrdmhkg6wI6OXsa88IF4L2r/L9i"
	}

	// single trainee deployment, the trainee id falls back to the username
	traineeID := os.Getenv("TRAINTRACK_TRAINEE_ID")
	if traineeID == "" {
		traineeID = traineeUsername
	}

	redisPassword := os.Getenv("TRAINTRACK_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use TRAINTRACK_REDIS_PASS")
	}

	postgresUser := os.Getenv("TRAINTRACK_POSTGRES_USER")
	postgresPassword := os.Getenv("TRAINTRACK_POSTGRES_PASS")
	if postgresUser == "" || postgresPassword == "" {
		log.Warnln("postgres credentials not set, falling back to local defaults. use TRAINTRACK_POSTGRES_USER and TRAINTRACK_POSTGRES_PASS")
	}

	if otelServiceName := os.Getenv("OTEL_SERVICE_NAME"); otelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			HealthSyncApiKey:        healthSyncApiKey,
			HealthSyncAppSecret:     healthSyncAppSecret,
			VersionInfo:             versionInfo,
			TraineeID:               traineeID,
			TraineeUsername:         traineeUsername,
			TraineePasswordHash:     traineePasswordHash,
			RedisPassword:           redisPassword,
			PostgresUser:            postgresUser,
			PostgresPassword:        postgresPassword,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	// go to sleep 🥱
	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return pkg.BytesToString(stdout), nil
}
