package server

import (
	"fmt"
	"net/http"
	"time"

	"StudentShift-backend/internal/auth"
	"StudentShift-backend/internal/config"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/events"
	"StudentShift-backend/internal/ledger"
	"StudentShift-backend/internal/thread"
)

// MyServer holds the dependencies shared by route handlers
type MyServer struct {
	Config    *config.Config
	DB        *database.DBinstanceStruct
	Tokens    *auth.TokenManager
	Blacklist auth.JwtBlacklistStore
	AuthLog   *auth.AuthLogger
	Ledger    *ledger.Ledger
	Threads   *thread.Service
}

// NewServer wires the domain services on top of db. A nil blacklist falls
// back to an in-memory store and a nil publisher drops events.
func NewServer(cfg *config.Config, db *database.DBinstanceStruct, bl auth.JwtBlacklistStore, pub events.Publisher) *MyServer {
	if bl == nil {
		bl = auth.NewInMemoryBlacklistStore()
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}

	return &MyServer{
		Config:    cfg,
		DB:        db,
		Tokens:    auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		Blacklist: bl,
		AuthLog:   auth.NewAuthLogger(cfg.AuthLog, cfg.AuthLogDir),
		Ledger: ledger.New(db.DB,
			ledger.WithPublisher(pub),
			ledger.WithOpenApplicantList(cfg.OpenApplicantList),
		),
		Threads: thread.New(db.DB,
			thread.WithPublisher(pub),
			thread.WithPageSize(cfg.MessagePageSize),
		),
	}
}

// HTTPServer returns the http.Server serving the registered routes.
func (s *MyServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Config.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
