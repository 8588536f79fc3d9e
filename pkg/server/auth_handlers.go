package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/services"
)

const (
	stateCookie   = "bling_oauth_state"
	accountCookie = "bling_oauth_account"
	stateMaxAge   = 600

	msgInvalidAccount = "Invalid account parameter. Expected: account=1 or account=2"
)

func (s *Server) setOAuthCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", s.opts.SecureCookies, true)
}

func (s *Server) handleConnect(c *gin.Context) {
	account, err := models.ParseAccountID(c.Query("account"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidAccount, nil)
		return
	}

	state := services.NewState()
	authURL, err := s.auth.AuthCodeURL(account, state)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Bling OAuth credentials not configured", err)
		return
	}

	s.setOAuthCookie(c, stateCookie, state, stateMaxAge)
	s.setOAuthCookie(c, accountCookie, account.String(), stateMaxAge)
	c.Redirect(http.StatusFound, authURL)
}

// redirectSettings sends the browser back to the settings page with the
// given query.
func (s *Server) redirectSettings(c *gin.Context, query url.Values) {
	c.Redirect(http.StatusFound, s.opts.SettingsURL+"?"+query.Encode())
}

func (s *Server) callbackFailed(c *gin.Context, code, message string) {
	s.redirectSettings(c, url.Values{"error": {code}, "message": {message}})
}

func (s *Server) handleCallback(c *gin.Context) {
	if c.Query("error") == "access_denied" {
		s.callbackFailed(c, "access_denied", "Autorização negada pelo usuário")
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		s.callbackFailed(c, "invalid_callback", "Parâmetros inválidos no callback")
		return
	}

	savedState, err := c.Cookie(stateCookie)
	if err != nil || savedState != state {
		s.callbackFailed(c, "state_mismatch", "Falha na validação CSRF")
		return
	}
	rawAccount, _ := c.Cookie(accountCookie)
	account, err := models.ParseAccountID(rawAccount)
	if err != nil {
		s.callbackFailed(c, "invalid_account", "Conta não identificada no callback")
		return
	}

	s.setOAuthCookie(c, stateCookie, "", -1)
	s.setOAuthCookie(c, accountCookie, "", -1)

	if err := s.auth.Exchange(c.Request.Context(), account, code); err != nil {
		log.Error().Err(err).Str("account", account.String()).Msg("Bling token exchange failed")
		if errors.Is(err, services.ErrAccountNotConfigured) {
			s.callbackFailed(c, "config_error", "Credenciais Bling não configuradas para conta "+account.String())
			return
		}
		s.callbackFailed(c, "token_exchange_failed", "Falha na troca de token conta "+account.String())
		return
	}

	s.redirectSettings(c, url.Values{"connected": {account.String()}})
}

func (s *Server) handleStatus(c *gin.Context) {
	account, err := models.ParseAccountID(c.Query("account"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidAccount, nil)
		return
	}

	connected, updatedAt, err := s.auth.Status(account)
	if err != nil {
		log.Warn().Err(err).Str("account", account.String()).Msg("Failed to read token status")
		connected, updatedAt = false, nil
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":   connected,
		"lastUpdated": updatedAt,
	})
}
