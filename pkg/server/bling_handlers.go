package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/services"
)

const (
	msgInvalidPeriod = "Parâmetros inválidos. Informe month (1-12) e year."
	msgNoAccount     = "Nenhuma conta Bling conectada. Conecte uma conta nas configurações."
	msgBillsFailed   = "Não foi possível buscar as contas pagas. Tente novamente."
	msgItemsFailed   = "Não foi possível buscar as notas fiscais. Tente novamente."
)

// queryPeriod reads month and year from the query string.
func queryPeriod(c *gin.Context) (models.Period, bool) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		return models.Period{}, false
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return models.Period{}, false
	}
	p := models.Period{Month: month, Year: year}
	return p, p.Validate() == nil
}

// abortFetch maps a syncer failure onto the response the frontend expects.
func abortFetch(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, models.ErrInvalidPeriod):
		abortWithError(c, http.StatusBadRequest, msgInvalidPeriod, nil)
	case errors.Is(err, services.ErrNoAccountsConnected):
		abortWithError(c, http.StatusUnprocessableEntity, msgNoAccount, nil)
	default:
		abortWithError(c, http.StatusInternalServerError, message, err)
	}
}

func (s *Server) handlePaidBills(c *gin.Context) {
	period, ok := queryPeriod(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, msgInvalidPeriod, nil)
		return
	}

	bills, _, err := s.syncer.PaidBills(c.Request.Context(), period)
	if err != nil {
		abortFetch(c, err, msgBillsFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts":  bills,
		"fetchedAt": s.now().UTC(),
	})
}

func (s *Server) handleInvoiceProducts(c *gin.Context) {
	period, ok := queryPeriod(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, msgInvalidPeriod, nil)
		return
	}

	products, accounts, err := s.syncer.Products(c.Request.Context(), period)
	if err != nil {
		abortFetch(c, err, msgItemsFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":        products,
		"fetchedAt":       s.now().UTC(),
		"accountsQueried": accounts,
	})
}
