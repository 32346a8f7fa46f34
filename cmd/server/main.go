// Command server runs the HTTP API: account lifecycle, token issuance,
// image storage, and collaborative annotation.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pictolab/pictolab/internal/audit"
	"github.com/pictolab/pictolab/internal/auth"
	"github.com/pictolab/pictolab/internal/config"
	"github.com/pictolab/pictolab/internal/httpapi"
	"github.com/pictolab/pictolab/internal/mail"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/otp"
	"github.com/pictolab/pictolab/internal/password"
	"github.com/pictolab/pictolab/internal/repository/postgres"
	"github.com/pictolab/pictolab/internal/service"
	"github.com/pictolab/pictolab/internal/session"
	"github.com/pictolab/pictolab/internal/token"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.DB.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	hasher, err := password.NewHasher(password.DefaultParams())
	if err != nil {
		return err
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		Secret:        []byte(cfg.Token.Secret),
		PrivateKey:    []byte(cfg.Token.PrivateKeyPEM),
		PublicKey:     []byte(cfg.Token.PublicKeyPEM),
		Issuer:        cfg.Token.Issuer,
		Leeway:        30 * time.Second,
	})
	if err != nil {
		return err
	}

	codes := otp.NewStore(rdb, "otp", cfg.Code.Length)
	sessions := session.NewRegistry(rdb, "pl", cfg.Token.RefreshTTL, cfg.Token.AccessTTL)

	var mailer mail.Mailer
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout,
		})
	} else {
		log.Warn("SMTP not configured, logging mail instead")
		mailer = &mail.LogMailer{Log: log}
	}

	auditor := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
	}, audit.NewJSONWriterSink(os.Stdout))
	defer auditor.Close()

	m := metrics.New()

	users := postgres.NewUserRepository(db)
	images := postgres.NewImageRepository(db)
	annotations := postgres.NewAnnotationRepository(db)

	authSvc, err := auth.New(users, hasher, tokens, codes, sessions, mailer, auditor, m, auth.Config{
		ActivationTTL: cfg.Code.ActivationTTL,
		TwoFactorTTL:  cfg.Code.TwoFactorTTL,
		ResetTTL:      cfg.Code.ResetTTL,
	}, log)
	if err != nil {
		return err
	}

	userSvc := service.NewUserService(users, log)
	imageSvc, err := service.NewImageService(images, cfg.UploadDir, log)
	if err != nil {
		return err
	}
	annotationSvc := service.NewAnnotationService(images, annotations)

	api := httpapi.NewServer(authSvc, userSvc, imageSvc, annotationSvc, m, httpapi.Probes{
		DB:    db.PingContext,
		Redis: sessions.Ping,
		Email: mailer.Ping,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
