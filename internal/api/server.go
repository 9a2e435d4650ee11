package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/tracing"
	"github.com/vaultlabs-io/defi-vault-engine/internal/services"
)

// EngineService is the accounting surface the API exposes; it is satisfied
// by *services.Service and stubbed in handler tests.
type EngineService interface {
	InitializeVault(ctx context.Context, req *services.InitializeVaultRequest) (*services.InitializeVaultResult, error)
	Deposit(ctx context.Context, req *services.DepositRequest) (*services.OperationResult, error)
	Withdraw(ctx context.Context, req *services.WithdrawRequest) (*services.OperationResult, error)
	GetBalance(ctx context.Context, assetID, depositor string) (*services.BalanceInfo, error)
	Ping(ctx context.Context) error
}

type Server struct {
	cfg     *config.ApiConfig
	service EngineService
	httpSrv *http.Server
}

func New(cfg *config.ApiConfig, service EngineService) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
	}

	r := chi.NewRouter()
	r.Use(tracing.Middleware)

	r.Get("/healthcheck", s.handleHealthcheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/vaults", s.handleInitializeVault)
		r.Post("/deposits", s.handleDeposit)
		r.Post("/withdrawals", s.handleWithdraw)
		r.Get("/balance", s.handleGetBalance)
	})

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr()).Msg("API server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down API server")
		return s.httpSrv.Shutdown(context.Background())
	}
}
