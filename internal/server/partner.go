package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
)

func (s *Server) ListPartners(c *gin.Context) {
	query := partnerdomain.ListQuery{
		SortBy: c.Query("sort_by"),
		Order:  c.Query("order"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}

	resp, err := s.partnerSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func queryInt(c *gin.Context, key string) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

type createPartnerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) CreatePartner(c *gin.Context) {
	var req createPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	partner := partnerdomain.Partner{
		ID:       strings.TrimSpace(req.ID),
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		IsActive: true,
	}
	if err := s.partnerSvc.Create(c.Request.Context(), &partner); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": partner})
}

func (s *Server) GetPartnerByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.partnerSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordRevenueRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) RecordPartnerRevenue(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var req recordRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.partnerSvc.RecordRevenue(c.Request.Context(), id, req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPartnerTier(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.partnerSvc.ResolveTier(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPartnerTerritories(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.territorySvc.PartnerTerritories(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckPartnerAccess(c *gin.Context) {
	partnerID := strings.TrimSpace(c.Param("id"))
	territoryID := strings.TrimSpace(c.Param("territoryID"))

	allowed, err := s.territorySvc.ValidatePartnerAccess(c.Request.Context(), partnerID, territoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"allowed": allowed}})
}
