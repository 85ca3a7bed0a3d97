package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
)

type validateAddressRequest struct {
	Address             territorydomain.Address `json:"address"`
	RequestingPartnerID string                  `json:"requesting_partner_id"`
}

func (s *Server) ValidateAddress(c *gin.Context) {
	var req validateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.territorySvc.ValidateAddress(c.Request.Context(), req.Address, strings.TrimSpace(req.RequestingPartnerID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type validateBulkRequest struct {
	Addresses           []territorydomain.Address `json:"addresses"`
	RequestingPartnerID string                    `json:"requesting_partner_id"`
}

func (s *Server) ValidateAddressBulk(c *gin.Context) {
	var req validateBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Addresses) == 0 {
		AbortWithError(c, newValidationError("addresses", "required", "addresses must not be empty"))
		return
	}

	resp, err := s.territorySvc.ValidateBulk(c.Request.Context(), req.Addresses, strings.TrimSpace(req.RequestingPartnerID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritories(c *gin.Context) {
	resp, err := s.territorySvc.ListTerritories(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createTerritoryRequest struct {
	territorydomain.Territory

	// Pointer so an omitted flag defaults to active while an explicit false
	// creates the territory inactive.
	IsActive *bool `json:"is_active"`
}

func (s *Server) CreateTerritory(c *gin.Context) {
	var req createTerritoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	territory := req.Territory
	territory.IsActive = req.IsActive == nil || *req.IsActive

	if err := s.territorySvc.AddTerritory(c.Request.Context(), &territory); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": territory})
}

func (s *Server) DeleteTerritory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.territorySvc.RemoveTerritory(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": id}})
}

func (s *Server) GetTerritoryStats(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.territorySvc.TerritoryStats(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryOverlaps(c *gin.Context) {
	resp, err := s.territorySvc.OptimizeAssignments(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
