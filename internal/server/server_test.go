package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/northlink/partnerhub/internal/clock"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	commissionrepository "github.com/northlink/partnerhub/internal/commission/repository"
	commissionservice "github.com/northlink/partnerhub/internal/commission/service"
	"github.com/northlink/partnerhub/internal/config"
	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
	partnerrepository "github.com/northlink/partnerhub/internal/partner/repository"
	partnerservice "github.com/northlink/partnerhub/internal/partner/service"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	territoryrepository "github.com/northlink/partnerhub/internal/territory/repository"
	territoryservice "github.com/northlink/partnerhub/internal/territory/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&commissiondomain.CommissionTier{},
		&commissiondomain.CommissionRecord{},
		&territorydomain.Territory{},
		&partnerdomain.Partner{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	commissionSvc := commissionservice.NewService(commissionservice.ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		TierRepo: commissionrepository.NewRepository(db),
	})
	territorySvc := territoryservice.NewService(territoryservice.ServiceParam{
		Log:   log,
		Clock: clk,
		Repo:  territoryrepository.NewRepository(db),
	})
	partnerSvc := partnerservice.NewService(partnerservice.ServiceParam{
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Repo:       partnerrepository.NewRepository(db),
		Commission: commissionSvc,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:           engine,
		Cfg:           config.Config{Environment: "test"},
		DB:            db,
		GenID:         node,
		CommissionSvc: commissionSvc,
		TerritorySvc:  territorySvc,
		PartnerSvc:    partnerSvc,
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestCalculateCommissionEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"customer_id":              "cust-001",
		"partner_id":               "partner-001",
		"partner_tier":             "silver",
		"product_type":             "business_pro",
		"monthly_revenue":          1000,
		"partner_lifetime_revenue": 75000,
		"is_new_customer":          true,
		"contract_length":          24,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result commissiondomain.CalculationResult
	decodeData(t, w, &result)
	assert.InDelta(t, 175.8, result.TotalCommission, 0.001)
	assert.InDelta(t, 0.1758, result.EffectiveRate, 0.0001)
	assert.NotEmpty(t, result.CalculationID)
}

func TestCalculateCommissionValidationError(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"partner_tier":    "bronze",
		"product_type":    "residential_basic",
		"monthly_revenue": 100,
		"contract_length": 48,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestCalculateCommissionEligibilityMapsTo422(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"customer_id":              "cust-001",
		"partner_id":               "partner-001",
		"partner_tier":             "gold",
		"product_type":             "residential_basic",
		"monthly_revenue":          1000,
		"partner_lifetime_revenue": 500,
		"contract_length":          12,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "business_rule")
}

func TestCalculateBatchFailureAggregatesIndexes(t *testing.T) {
	s := newTestServer(t)

	good := gin.H{
		"customer_id":              "cust-001",
		"partner_id":               "partner-001",
		"partner_tier":             "bronze",
		"product_type":             "residential_basic",
		"monthly_revenue":          1000,
		"partner_lifetime_revenue": 100,
		"contract_length":          12,
	}
	bad := gin.H{
		"customer_id":              "cust-002",
		"partner_id":               "partner-001",
		"partner_tier":             "diamond",
		"product_type":             "residential_basic",
		"monthly_revenue":          1000,
		"partner_lifetime_revenue": 100,
		"contract_length":          12,
	}
	w := doJSON(t, s, http.MethodPost, "/v1/commissions/calculate/batch", gin.H{
		"inputs": []gin.H{good, bad},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "inputs[1]")
}

func TestEligibleTierEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/v1/commissions/tiers/eligible?lifetime_revenue=60000", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tier commissiondomain.CommissionTier
	decodeData(t, w, &tier)
	assert.Equal(t, "silver", tier.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/commissions/tiers/eligible?lifetime_revenue=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTierAdminSurface(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPut, "/v1/commissions/tiers", gin.H{
		"code":            "silver",
		"name":            "Silver Plus",
		"minimum_revenue": 50000,
		"base_rate":       0.08,
		"product_multipliers": gin.H{
			"business_pro": 1.6,
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/v1/commissions/tiers/silver", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tier commissiondomain.CommissionTier
	decodeData(t, w, &tier)
	assert.Equal(t, "Silver Plus", tier.Name)
	assert.InDelta(t, 0.08, tier.BaseRate, 0.0001)

	// Built-in defaults resolve even before any row is written.
	w = doJSON(t, s, http.MethodGet, "/v1/commissions/tiers/bronze", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/v1/commissions/tiers/diamond", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTerritoryLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/territories", gin.H{
		"id":         "t-atl",
		"name":       "Metro Atlanta",
		"partner_id": "partner-a",
		"priority":   5,
		"is_active":  true,
		"boundaries": gin.H{"zip_codes": []string{"30301"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/v1/territories/validate", gin.H{
		"address": gin.H{
			"street":   "123 Peachtree St",
			"city":     "Atlanta",
			"state":    "GA",
			"zip_code": "30301",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result territorydomain.ValidationResult
	decodeData(t, w, &result)
	assert.True(t, result.IsValid)
	assert.Equal(t, "t-atl", result.TerritoryID)

	w = doJSON(t, s, http.MethodGet, "/v1/territories/t-atl/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodDelete, "/v1/territories/t-atl", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/v1/territories/t-atl/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTerritoryActiveFlagSemantics(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/territories", gin.H{
		"id":         "t-dormant",
		"name":       "Dormant",
		"partner_id": "partner-a",
		"priority":   9,
		"is_active":  false,
		"boundaries": gin.H{"zip_codes": []string{"30301"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created territorydomain.Territory
	decodeData(t, w, &created)
	assert.False(t, created.IsActive)

	w = doJSON(t, s, http.MethodPost, "/v1/territories/validate", gin.H{
		"address": gin.H{
			"street":   "123 Peachtree St",
			"city":     "Atlanta",
			"state":    "GA",
			"zip_code": "30301",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result territorydomain.ValidationResult
	decodeData(t, w, &result)
	assert.False(t, result.IsValid)

	// Omitting the flag creates the territory active.
	w = doJSON(t, s, http.MethodPost, "/v1/territories", gin.H{
		"id":         "t-live",
		"name":       "Live",
		"partner_id": "partner-a",
		"priority":   5,
		"boundaries": gin.H{"zip_codes": []string{"30301"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/v1/territories/validate", gin.H{
		"address": gin.H{
			"street":   "123 Peachtree St",
			"city":     "Atlanta",
			"state":    "GA",
			"zip_code": "30301",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &result)
	assert.True(t, result.IsValid)
	assert.Equal(t, "t-live", result.TerritoryID)
}

func TestCreateTerritoryInvalidPriority(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/territories", gin.H{
		"id":         "t-bad",
		"name":       "Bad",
		"partner_id": "partner-a",
		"priority":   42,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "invalid_priority")
}

func TestPartnerFlow(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/partners", gin.H{
		"id":   "partner-a",
		"name": "Northlink West",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/v1/partners/partner-a/revenue", gin.H{
		"amount": 60000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var partner partnerdomain.Partner
	decodeData(t, w, &partner)
	assert.Equal(t, "silver", partner.TierCode)
	assert.InDelta(t, 60000, partner.LifetimeRevenue, 0.001)

	w = doJSON(t, s, http.MethodGet, "/v1/partners/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/territories", gin.H{
		"id":         "t-west",
		"name":       "West",
		"partner_id": "partner-a",
		"priority":   5,
		"is_active":  true,
		"boundaries": gin.H{"states": []string{"GA"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/v1/partners/partner-a/access/t-west", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"allowed":true`)

	w = doJSON(t, s, http.MethodGet, "/v1/partners/partner-b/access/t-west", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"allowed":false`)
}
