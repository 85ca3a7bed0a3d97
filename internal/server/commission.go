package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
)

func (s *Server) CalculateCommission(c *gin.Context) {
	var req commissiondomain.CalculationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commissionSvc.Calculate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type calculateBatchRequest struct {
	Inputs []commissiondomain.CalculationInput `json:"inputs"`
}

func (s *Server) CalculateCommissionBatch(c *gin.Context) {
	var req calculateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Inputs) == 0 {
		AbortWithError(c, newValidationError("inputs", "required", "inputs must not be empty"))
		return
	}

	resp, err := s.commissionSvc.CalculateBatch(c.Request.Context(), req.Inputs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type validateResultRequest struct {
	Result commissiondomain.CalculationResult `json:"result"`
	Input  commissiondomain.CalculationInput  `json:"input"`
}

func (s *Server) ValidateCommissionResult(c *gin.Context) {
	var req validateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	matches, err := s.commissionSvc.ValidateResult(c.Request.Context(), req.Result, req.Input)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"matches": matches}})
}

func (s *Server) SimulateCommission(c *gin.Context) {
	var req commissiondomain.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commissionSvc.Simulate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCommissionTiers(c *gin.Context) {
	resp, err := s.commissionSvc.ListTiers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCommissionTier(c *gin.Context) {
	resp, err := s.commissionSvc.GetTier(c.Request.Context(), c.Param("code"))
	if err != nil {
		// An unknown code on a direct lookup is a missing resource, not a
		// misconfigured tier table.
		if errors.Is(err, commissiondomain.ErrUnknownTier) {
			err = ErrNotFound
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpsertCommissionTier(c *gin.Context) {
	var req commissiondomain.CommissionTier
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.commissionSvc.UpsertTier(c.Request.Context(), &req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": req})
}

func (s *Server) GetEligibleTier(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("lifetime_revenue"))
	revenue, err := strconv.ParseFloat(raw, 64)
	if err != nil || revenue < 0 {
		AbortWithError(c, newValidationError("lifetime_revenue", "invalid_lifetime_revenue", "lifetime_revenue must be a non-negative number"))
		return
	}

	resp, err := s.commissionSvc.EligibleTier(c.Request.Context(), revenue)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
