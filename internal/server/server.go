package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"beacon/internal/auth"
	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/internal/retention"
	"beacon/internal/security"
	"beacon/internal/session"
	"beacon/internal/store"
	"beacon/internal/utils"
)

type Server struct {
	Cfg            *config.Config
	Creds          *auth.Credentials
	Sessions       *session.Registry
	Store          *store.Store
	Sweeper        *retention.Sweeper
	Templates      *TemplateManager
	Feed           *Feed
	ConnLimiter    *security.ConnectionLimiter
	BruteProtector *security.BruteForceProtector
	AuditLogger    *security.AuditLogger
	Events         *logger.Logger
}

func NewServer(cfg *config.Config) (*Server, error) {
	creds, err := auth.Load(cfg.AuthFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials from %s: %w", cfg.AuthFile, err)
	}

	st, err := store.Open(cfg.DataFile, cfg.ValidatePostIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to open visit store %s: %w", cfg.DataFile, err)
	}

	sessStore, err := session.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	tm, err := NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	auditLogger, err := security.GetAuditLogger()
	if err != nil {
		log.Printf("Warning: Failed to initialize audit logger: %v", err)
	}

	var events *logger.Logger
	if cfg.EventLogDir != "" {
		events, err = logger.New(cfg.EventLogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log in %s: %w", cfg.EventLogDir, err)
		}
	}

	s := &Server{
		Cfg:            cfg,
		Creds:          creds,
		Sessions:       session.NewRegistry(sessStore),
		Store:          st,
		Sweeper:        retention.New(st, cfg.PurgeInterval, cfg.RetentionWindow()),
		Templates:      tm,
		Feed:           NewFeed(),
		ConnLimiter:    security.NewConnectionLimiter(constants.MaxFeedClientsPerIP),
		BruteProtector: security.NewBruteForceProtector(constants.MaxAuthAttempts, constants.BlockDuration),
		AuditLogger:    auditLogger,
		Events:         events,
	}

	return s, nil
}

// Handler builds the full middleware chain around the route mux. Split out
// from Run so tests can drive the server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(constants.EndpointLogin, s.HandleLogin)
	mux.HandleFunc(constants.EndpointAuth, s.HandleAuth)
	mux.HandleFunc(constants.EndpointLogout, s.HandleLogout)
	mux.HandleFunc(constants.EndpointVisits, s.HandleVisit)
	mux.HandleFunc(constants.EndpointLiveFeed, s.HandleLiveFeed)
	mux.HandleFunc(constants.EndpointRoot, s.HandleAnalytics)

	var handler http.Handler = mux
	handler = RecoveryMiddleware(handler)
	handler = CorsMiddleware(handler)
	handler = security.SecurityHeaders(handler)
	handler = GzipMiddleware(handler)
	return handler
}

func (s *Server) Run() {
	certFile := utils.GetEnv("BEACON_CERT_FILE", "certs/server.crt")
	keyFile := utils.GetEnv("BEACON_KEY_FILE", "certs/server.key")

	handler := s.Handler()

	enableTLS := strings.ToLower(utils.GetEnv("BEACON_ENABLE_TLS", "false")) == "true"
	useTLS := false

	if enableTLS {
		if _, err := os.Stat(certFile); err == nil {
			if _, err := os.Stat(keyFile); err == nil {
				useTLS = true
			}
		}

		if !useTLS {
			log.Printf("Warning: BEACON_ENABLE_TLS is true but certs not found at %s", certFile)
		}
	}

	var h2Handler http.Handler
	if useTLS {
		h2Handler = handler
	} else {
		h2Handler = h2c.NewHandler(handler, &http2.Server{})
	}

	server := &http.Server{
		Addr:              ":" + s.Cfg.Port,
		Handler:           h2Handler,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go s.Sweeper.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTLS {
		log.Printf("HTTPS enabled (HTTP/2)")
		go func() {
			if err := server.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTPS server error: %v", err)
			}
		}()
	} else {
		log.Printf("HTTP mode (HTTP/2 enabled)")
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	log.Printf("%s server starting on :%s", constants.AppName, s.Cfg.Port)
	if s.Events != nil {
		s.Events.LogEvent("server started")
	}

	<-sigChan
	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	s.Cleanup()
	log.Println("Server stopped")
}

func (s *Server) Cleanup() {
	s.Feed.CloseAll()
	s.BruteProtector.Close()

	// Last chance to persist visits recorded since the previous write.
	s.Store.Save()
	s.Store.Flush()

	if err := s.Sessions.Close(); err != nil {
		log.Printf("Error closing session store: %v", err)
	}
	if s.Events != nil {
		s.Events.LogEvent("server stopped")
		s.Events.Close()
	}
}
