// Command server runs the campusgate auth service: identity provider, admin
// verification, the auth state machine, and the route guard behind one HTTP
// listener.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"campusgate/internal/audit"
	"campusgate/internal/authstate"
	"campusgate/internal/database"
	"campusgate/internal/identity"
	"campusgate/internal/identity/revocation"
	identitystore "campusgate/internal/identity/store"
	"campusgate/internal/jwttoken"
	"campusgate/internal/mailer"
	"campusgate/internal/platform/config"
	"campusgate/internal/platform/httpserver"
	"campusgate/internal/platform/logger"
	"campusgate/internal/platform/metrics"
	platformredis "campusgate/internal/platform/redis"
	profilestore "campusgate/internal/profile/store"
	transporthttp "campusgate/internal/transport/http"
	"campusgate/internal/verification"
	verifstore "campusgate/internal/verification/store"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	mail := mailer.New(cfg.Mail, log)

	var (
		db       *sql.DB
		creds    identitystore.CredentialStore
		profiles profilestore.Store
		codes    verifstore.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}
		creds = identitystore.NewPostgres(db)
		profiles = profilestore.NewPostgres(db)
		codes = verifstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		memProfiles := profilestore.NewMemory()
		creds = identitystore.NewMemory()
		profiles = memProfiles
		codes = verifstore.NewMemory(memProfiles)
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var trl revocation.List
	if redisClient != nil {
		defer redisClient.Close()
		trl = revocation.NewRedis(redisClient.Client)
		log.Info("using redis token revocation list")
	} else {
		trl = revocation.NewMemory()
	}

	tokens := jwttoken.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	provider, err := identity.NewLocalProvider(
		creds, profilestore.NewAdminProvisioner(profiles), tokens, trl, mail,
		identity.WithLogger(log),
		identity.WithSessionTTL(cfg.JWT.TTL),
	)
	if err != nil {
		return err
	}

	verifier := verification.New(codes, profiles, mail,
		verification.WithLogger(log),
		verification.WithTTL(cfg.AdminCodeTTL),
		verification.WithMetrics(m),
	)

	auditTail := audit.NewMemorySink(1024)
	sinks := []audit.Sink{auditTail}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("publishing audit events to kafka", "topic", cfg.KafkaTopic)
	}
	recorder := audit.NewRecorder(256, log, sinks...)

	machine, err := authstate.New(
		provider, profiles, verifier,
		authstate.NewParentDemoStrategy(cfg.ParentDemo),
		authstate.NewTeacherDemoStrategy(cfg.TeacherDemo),
		authstate.WithLogger(log),
		authstate.WithMetrics(m),
		authstate.WithAudit(recorder),
		authstate.WithForceLocalLogout(cfg.ForceLocalLogout),
	)
	if err != nil {
		return err
	}
	defer machine.Close()

	router := transporthttp.NewRouter(transporthttp.Deps{
		Machine:  machine,
		Provider: provider,
		Metrics:  m,
		Logger:   log,
		Audit:    auditTail,
		Health: func() error {
			if db != nil {
				if err := db.Ping(); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(context.Background())
			}
			return nil
		},
	})

	server := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := recorder.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
