package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vpnda/bling-margin/pkg/models"
)

const msgCalculateFailed = "Não foi possível salvar o resultado. Tente novamente."

// handleCalculate computes the month from the posted sales and bills, or
// from a fresh Bling fetch when "fetch" is set.
func (s *Server) handleCalculate(c *gin.Context) {
	var body struct {
		periodBody
		Products     []models.ConsolidatedProduct `json:"products"`
		PaidAccounts []models.PaidBill            `json:"paidAccounts"`
		Fetch        bool                         `json:"fetch"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}
	period, msg := body.validate()
	if msg != "" {
		abortWithError(c, http.StatusBadRequest, msg, nil)
		return
	}

	if body.Fetch {
		report, err := s.syncer.Sync(c.Request.Context(), period)
		if err != nil {
			abortFetch(c, err, msgCalculateFailed)
			return
		}
		c.JSON(http.StatusOK, report.Result)
		return
	}

	if body.Products == nil {
		abortWithError(c, http.StatusBadRequest, "products deve ser um array.", nil)
		return
	}
	if body.PaidAccounts == nil {
		abortWithError(c, http.StatusBadRequest, "paidAccounts deve ser um array.", nil)
		return
	}

	result, err := s.syncer.Calculator().Calculate(c.Request.Context(), period, body.Products, body.PaidAccounts)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, msgCalculateFailed, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetResult(c *gin.Context) {
	period, ok := queryPeriod(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, msgInvalidPeriod, nil)
		return
	}

	result, err := s.database.GetMonthlyResult(period)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Não foi possível carregar o resultado.", err)
		return
	}
	if result == nil {
		abortWithError(c, http.StatusNotFound, "Nenhum resultado calculado para o período.", nil)
		return
	}
	c.JSON(http.StatusOK, result)
}
