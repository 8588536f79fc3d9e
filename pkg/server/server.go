package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vpnda/bling-margin/db"
	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/services"
)

// Authenticator runs the OAuth flow of a Bling account.
type Authenticator interface {
	AuthCodeURL(account models.AccountID, state string) (string, error)
	Exchange(ctx context.Context, account models.AccountID, code string) error
	Status(account models.AccountID) (bool, *time.Time, error)
}

var _ Authenticator = (*services.TokenManager)(nil)

type Options struct {
	// SettingsURL receives the browser after the OAuth callback.
	SettingsURL string
	// SecureCookies marks the OAuth state cookies https-only.
	SecureCookies bool
}

// Server is the JSON API in front of the syncer and the settings tables.
type Server struct {
	syncer   *services.MonthlySyncer
	auth     Authenticator
	database db.DBInterface
	opts     Options
	router   *gin.Engine
	now      func() time.Time
}

func NewServer(syncer *services.MonthlySyncer, auth Authenticator, database db.DBInterface, opts Options) *Server {
	if opts.SettingsURL == "" {
		opts.SettingsURL = "/settings"
	}

	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	s := &Server{
		syncer:   syncer,
		auth:     auth,
		database: database,
		opts:     opts,
		router:   router,
		now:      time.Now,
	}

	api := router.Group("/api")
	{
		blingGroup := api.Group("/bling")
		blingGroup.GET("/contas-pagas", s.handlePaidBills)
		blingGroup.GET("/notas-fiscais", s.handleInvoiceProducts)

		authGroup := api.Group("/auth/bling")
		authGroup.GET("/connect", s.handleConnect)
		authGroup.GET("/callback", s.handleCallback)
		authGroup.GET("/status", s.handleStatus)

		api.GET("/cmv", s.handleGetCosts)
		api.POST("/cmv", s.handleSaveCosts)
		api.GET("/categories", s.handleGetCategories)
		api.POST("/categories", s.handleSaveCategories)
		api.GET("/aliquota", s.handleGetTaxRate)
		api.POST("/aliquota", s.handleSaveTaxRate)
		api.POST("/calculate", s.handleCalculate)
		api.GET("/results", s.handleGetResult)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
