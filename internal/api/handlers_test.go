package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
	"github.com/ducminhle1904/trade-setup-engine/internal/journal"
	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/internal/monitoring"
	"github.com/ducminhle1904/trade-setup-engine/internal/planner"
	"github.com/ducminhle1904/trade-setup-engine/internal/risk"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubStats struct {
	err error
}

func (s stubStats) DailyStats(time.Time) (journal.DailyStats, error) {
	return journal.DailyStats{}, s.err
}

func noon() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestHandlers(opts ...planner.Option) *Handlers {
	classifier := market.NewDefaultClassifier()
	catalog := market.NewDefaultCatalog()
	builder := risk.NewSetupBuilder(classifier, risk.NewTradeValidator(catalog).WithClock(noon))

	return NewHandlers(planner.New(builder, opts...), classifier, catalog, nil)
}

func newTestRouter(h *Handlers) *gin.Engine {
	return NewRouter(h, monitoring.NewHealthChecker(false), monitoring.NewMetricsHandler())
}

func setupTestRouter(opts ...planner.Option) *gin.Engine {
	return newTestRouter(newTestHandlers(opts...))
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const goldSetupBody = `{
	"signal": {
		"asset": "XAUUSD",
		"signal": "%s",
		"entryPoints": [2000, 2001],
		"stopLoss": 1990,
		"takeProfits": [2010, 2020, 2030],
		"confidence": 75,
		"entryType": "Limit Order"
	},
	"settings": {
		"accountBalance": 10000,
		"riskPerTrade": 1,
		"maxDailyLoss": 5,
		"maxTradesPerDay": 5,
		"riskRewardRatio": "%s"
	}
}`

func goldBody(signal, ratio string) string {
	return fmt.Sprintf(goldSetupBody, signal, ratio)
}

func TestHandleSetup_Valid(t *testing.T) {
	w := doJSON(setupTestRouter(), http.MethodPost, "/v1/setup", goldBody("BUY", "1:2"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res planner.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Setup.IsValid)
	assert.Equal(t, "0.10", res.Setup.FormattedLotSize)
	assert.Equal(t, "1:1.70", res.Setup.CalculatedRR)
	assert.Equal(t, 2000.0, res.EntryPrice)
}

func TestHandleSetup_NeutralIsRejectedWith200(t *testing.T) {
	w := doJSON(setupTestRouter(), http.MethodPost, "/v1/setup", goldBody("NEUTRAL", "1:2"))
	require.Equal(t, http.StatusOK, w.Code)

	var res planner.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Setup.IsValid)
	assert.Equal(t, "Signal is NEUTRAL", res.Setup.ValidationMessage)
	assert.Equal(t, risk.CodeNeutralSignal, res.Code)
	assert.Zero(t, res.Setup.LotSize)
}

func TestHandleSetup_BadRequests(t *testing.T) {
	router := setupTestRouter()

	w := doJSON(router, http.MethodPost, "/v1/setup", `{"signal": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeInvalidRequest, errResp.Code)

	w = doJSON(router, http.MethodPost, "/v1/setup", goldBody("BUY", "1-2"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeInvalidRatio, errResp.Code)
}

const goldSignalOnlyBody = `{
	"signal": {
		"asset": "XAUUSD",
		"signal": "BUY",
		"entryPoints": [2000, 2001],
		"stopLoss": 1990,
		"takeProfits": [2010, 2020, 2030],
		"confidence": 75,
		"entryType": "Limit Order"
	}%s
}`

func TestHandleSetup_RejectsUnsizableSettings(t *testing.T) {
	router := setupTestRouter()

	bodies := map[string]string{
		"risk above 100%": `, "settings": {"accountBalance": 10000, "riskPerTrade": 250, "riskRewardRatio": "1:2"}`,
		"legs over 100%": `, "settings": {"accountBalance": 10000, "riskPerTrade": 1, "riskRewardRatio": "1:2",
			"partialClose": {"tp1Percent": 60, "tp2Percent": 60, "tp3Percent": 60}}`,
		"no balance": `, "settings": {"riskPerTrade": 1, "riskRewardRatio": "1:2"}`,
	}

	for name, settings := range bodies {
		t.Run(name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/v1/setup", fmt.Sprintf(goldSignalOnlyBody, settings))
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.Equal(t, CodeInvalidRequest, errResp.Code)
			assert.NotEmpty(t, errResp.Details)
		})
	}
}

func TestHandleSetup_PartialLegsSumToLot(t *testing.T) {
	settings := `, "settings": {"accountBalance": 10000, "riskPerTrade": 1, "riskRewardRatio": "1:2",
		"partialClose": {"tp1Percent": 40, "tp2Percent": 40, "tp3Percent": 20}}`

	w := doJSON(setupTestRouter(), http.MethodPost, "/v1/setup", fmt.Sprintf(goldSignalOnlyBody, settings))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res planner.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Setup.IsValid)
	amounts := res.Setup.PartialCloseAmounts
	assert.InDelta(t, res.Setup.LotSize, amounts[0]+amounts[1]+amounts[2], 1e-9)
}

func TestHandleSetup_MissingSettings(t *testing.T) {
	body := fmt.Sprintf(goldSignalOnlyBody, "")

	w := doJSON(setupTestRouter(), http.MethodPost, "/v1/setup", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeInvalidRequest, errResp.Code)
	assert.Equal(t, "settings are required", errResp.Error)

	defaults := types.UserSettings{
		AccountBalance:  10000,
		RiskPerTrade:    1,
		MaxDailyLoss:    5,
		MaxTradesPerDay: 5,
		RiskRewardRatio: "1:2",
	}
	router := newTestRouter(newTestHandlers().WithDefaultSettings(defaults))

	w = doJSON(router, http.MethodPost, "/v1/setup", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res planner.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Setup.IsValid)
	assert.Equal(t, "0.10", res.Setup.FormattedLotSize)
}

func TestHandleSetup_JournalFailure(t *testing.T) {
	storageErr := apperrors.NewStorageError("journal", "load", errors.New("disk gone"))
	router := setupTestRouter(planner.WithStats(stubStats{err: storageErr}))

	w := doJSON(router, http.MethodPost, "/v1/setup", goldBody("BUY", "1:2"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeJournalUnavailable, errResp.Code)
}

func TestHandleLevels(t *testing.T) {
	router := setupTestRouter()

	w := doJSON(router, http.MethodPost, "/v1/levels", `{"asset":"XAUUSD","signal":"BUY","entryPrice":2000,"riskRewardRatio":"1:2"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res LevelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "XAUUSD", res.CatalogSymbol)
	assert.InDelta(t, 1998.2, res.Levels.StopLoss, 1e-9)
	assert.InDelta(t, 2003.6, res.Levels.TakeProfits[2], 1e-9)

	w = doJSON(router, http.MethodPost, "/v1/levels", `{"asset":"XAUUSD","signal":"BUY","entryPrice":2000,"riskRewardRatio":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, body := range []string{
		`{"asset":"","entryPrice":2000}`,
		`{"asset":"XAUUSD"}`,
		`{"asset":"XAUUSD","entryPrice":-5}`,
	} {
		w = doJSON(router, http.MethodPost, "/v1/levels", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, CodeInvalidRequest, errResp.Code, body)
	}
}

func TestHandleAsset(t *testing.T) {
	router := setupTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/assets/GOLD", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var res AssetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, market.CategoryMetals, res.Asset.Category)
	assert.Equal(t, 100.0, res.Asset.ContractSize)
	assert.Equal(t, "XAUUSD", res.CatalogSymbol)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	router := setupTestRouter()

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, bytes.NewReader(nil)))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
