package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/utils"
)

const msgInvalidBody = "Corpo da requisição inválido."

var maxTaxRate = decimal.NewFromInt(100)

func (s *Server) handleGetCosts(c *gin.Context) {
	names := c.QueryArray("products[]")
	if len(names) == 0 {
		c.JSON(http.StatusOK, gin.H{"cmvs": gin.H{}})
		return
	}

	costs, err := s.database.GetProductCosts(names)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read product costs")
		costs = map[string]decimal.Decimal{}
	}
	c.JSON(http.StatusOK, gin.H{"cmvs": costs})
}

type costEntry struct {
	ProductName *string          `json:"productName"`
	CmvUnitario *decimal.Decimal `json:"cmvUnitario"`
}

func (s *Server) handleSaveCosts(c *gin.Context) {
	var body struct {
		Cmvs []costEntry `json:"cmvs"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}
	if len(body.Cmvs) == 0 {
		abortWithError(c, http.StatusBadRequest, "Nenhum CMV fornecido.", nil)
		return
	}

	valid := lo.EveryBy(body.Cmvs, func(e costEntry) bool {
		return e.ProductName != nil && e.CmvUnitario != nil && e.CmvUnitario.IsPositive()
	})
	if !valid {
		abortWithError(c, http.StatusBadRequest,
			"Dados inválidos: productName (string) e cmvUnitario (number > 0) são obrigatórios.", nil)
		return
	}

	costs := lo.SliceToMap(body.Cmvs, func(e costEntry) (string, decimal.Decimal) {
		return *e.ProductName, *e.CmvUnitario
	})
	if err := s.database.UpsertProductCosts(costs); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Não foi possível salvar os CMVs. Tente novamente.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleGetCategories(c *gin.Context) {
	descriptions := c.QueryArray("descriptions[]")
	if len(descriptions) == 0 {
		c.JSON(http.StatusOK, gin.H{"categories": []models.Categorization{}})
		return
	}

	categories, err := s.database.GetCategories(descriptions)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read categories")
		categories = []models.Categorization{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) handleSaveCategories(c *gin.Context) {
	var body struct {
		Categorizations []models.Categorization `json:"categorizations"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}
	if body.Categorizations == nil {
		abortWithError(c, http.StatusBadRequest, "Nenhuma categorização fornecida.", nil)
		return
	}

	// Ignorar is the default and never stored.
	valid := lo.Filter(body.Categorizations, func(cat models.Categorization, _ int) bool {
		return strings.TrimSpace(cat.Description) != "" &&
			(cat.Category == models.CategoryExpense || cat.Category == models.CategoryProductCost)
	})
	if len(valid) == 0 {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	// last entry wins per normalised description
	byKey := lo.SliceToMap(valid, func(cat models.Categorization) (string, models.Category) {
		return utils.NormalizeKey(cat.Description), cat.Category
	})
	keys := lo.Uniq(lo.Map(valid, func(cat models.Categorization, _ int) string {
		return utils.NormalizeKey(cat.Description)
	}))
	deduped := lo.Map(keys, func(key string, _ int) models.Categorization {
		return models.Categorization{Description: key, Category: byKey[key]}
	})

	if err := s.database.UpsertCategories(deduped); err != nil {
		abortWithError(c, http.StatusInternalServerError,
			"Não foi possível salvar as categorizações. Tente novamente.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleGetTaxRate(c *gin.Context) {
	period, ok := queryPeriod(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Parâmetros month e year são obrigatórios.", nil)
		return
	}

	rate, err := s.database.GetTaxRate(period)
	if err != nil {
		log.Warn().Err(err).Str("period", period.String()).Msg("Failed to read tax rate")
		rate = nil
	}
	c.JSON(http.StatusOK, gin.H{"aliquota": rate})
}

// periodBody is the month/year pair posted by the frontend.
type periodBody struct {
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

// validate returns the message to answer with when the pair is unusable.
func (b periodBody) validate() (models.Period, string) {
	if b.Month == nil || *b.Month < 1 || *b.Month > 12 {
		return models.Period{}, "month deve ser um inteiro entre 1 e 12."
	}
	p := models.Period{Month: *b.Month}
	if b.Year != nil {
		p.Year = *b.Year
	}
	if b.Year == nil || p.Validate() != nil {
		return models.Period{}, "year deve ser um inteiro válido."
	}
	return p, ""
}

func (s *Server) handleSaveTaxRate(c *gin.Context) {
	var body struct {
		periodBody
		Aliquota *decimal.Decimal `json:"aliquota"`
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
	if body.Aliquota == nil || body.Aliquota.IsNegative() || body.Aliquota.GreaterThan(maxTaxRate) {
		abortWithError(c, http.StatusBadRequest, "aliquota deve ser um número entre 0 e 100.", nil)
		return
	}

	if err := s.database.UpsertTaxRate(period, body.Aliquota.Round(2)); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Não foi possível salvar a alíquota. Tente novamente.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
