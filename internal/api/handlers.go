package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ducminhle1904/trade-setup-engine/internal/config"
	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
	"github.com/ducminhle1904/trade-setup-engine/internal/logger"
	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/internal/planner"
	"github.com/ducminhle1904/trade-setup-engine/internal/risk"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// Handlers serves the planning endpoints
type Handlers struct {
	planner    *planner.Planner
	calculator *risk.Calculator
	classifier *market.Classifier
	catalog    *market.Catalog
	log        *logger.Logger

	settings *types.UserSettings
}

// NewHandlers creates handlers. The calculator reads the same catalog the validator does.
func NewHandlers(p *planner.Planner, classifier *market.Classifier, catalog *market.Catalog, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Discard()
	}
	return &Handlers{
		planner:    p,
		calculator: risk.NewCalculator(catalog),
		classifier: classifier,
		catalog:    catalog,
		log:        log,
	}
}

// WithDefaultSettings sets the settings used when a setup request carries none
func (h *Handlers) WithDefaultSettings(settings types.UserSettings) *Handlers {
	h.settings = &settings
	return h
}

// HandleSetup handles POST /v1/setup.
//
// Response:
//
//	200 OK: planner.Result, including rejected setups
//	400 Bad Request: malformed body, missing or invalid settings, bad risk:reward ratio
//	500 Internal Server Error: journal unreadable
//	502 Bad Gateway: live quote unavailable
func (h *Handlers) HandleSetup(c *gin.Context) {
	var body SetupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Warning("setup: invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: CodeInvalidRequest, Details: err.Error()})
		return
	}

	settings := body.Settings
	if settings == nil {
		settings = h.settings
	}
	if settings == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "settings are required", Code: CodeInvalidRequest})
		return
	}

	if _, err := risk.ParseRiskReward(settings.RiskRewardRatio); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRatio})
		return
	}
	if err := config.ValidateUserSettings(*settings); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid settings", Code: CodeInvalidRequest, Details: err.Error()})
		return
	}

	req := body.plannerRequest(*settings)
	result, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		status, code := http.StatusBadGateway, CodeQuoteUnavailable
		var engineErr *apperrors.EngineError
		if errors.As(err, &engineErr) && engineErr.Category == apperrors.ErrorCategoryStorage {
			status, code = http.StatusInternalServerError, CodeJournalUnavailable
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleLevels handles POST /v1/levels
func (h *Handlers) HandleLevels(c *gin.Context) {
	var req LevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: CodeInvalidRequest, Details: err.Error()})
		return
	}

	levels, err := h.calculator.CalculateTPSL(req.EntryPrice, req.Signal, req.Asset, req.RiskRewardRatio)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRatio})
		return
	}

	_, symbol := h.catalog.Resolve(req.Asset)
	c.JSON(http.StatusOK, LevelsResponse{Asset: req.Asset, CatalogSymbol: symbol, Levels: levels})
}

// HandleAsset handles GET /v1/assets/:symbol
func (h *Handlers) HandleAsset(c *gin.Context) {
	symbol := c.Param("symbol")
	if market.NormalizeSymbol(symbol) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "symbol is required", Code: CodeInvalidRequest})
		return
	}

	cfg, catalogSymbol := h.catalog.Resolve(symbol)
	c.JSON(http.StatusOK, AssetResponse{
		Symbol:        symbol,
		Asset:         h.classifier.Detect(symbol),
		Market:        cfg,
		CatalogSymbol: catalogSymbol,
	})
}
