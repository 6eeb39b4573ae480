package handlers

import (
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"

	"p2p-market-sim/internal/api/models"
	"p2p-market-sim/internal/profile"
)

// ProfileHandler handles synthetic household profile requests
type ProfileHandler struct{}

// NewProfileHandler creates a new profile handler
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// PreviewProfile handles POST /api/v1/profiles/preview. It regenerates the
// exact household a simulation with the same seed and index would see.
func (h *ProfileHandler) PreviewProfile(c *gin.Context) {
	var req models.ProfilePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	if req.Index < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "index must not be negative",
			},
		})
		return
	}
	if req.StepMinutes <= 0 {
		req.StepMinutes = 5
	}
	if req.HorizonDays <= 0 {
		req.HorizonDays = 1
	}

	hhSeed := profile.HouseholdSeed(req.Seed, req.Index)
	rng := rand.New(rand.NewSource(hhSeed))
	opts := profile.DefaultHouseholdOptions().WithHorizon(req.HorizonDays*24*60, req.StepMinutes)
	hh := profile.Household(rng, opts)

	c.JSON(http.StatusOK, models.ProfilePreview{
		Seed:          req.Seed,
		Index:         req.Index,
		HouseholdSeed: hhSeed,
		StepMinutes:   req.StepMinutes,
		PVNameplateKW: hh.PVNameplateKW,
		HasEV:         hh.HasEV,
		LoadKWh:       hh.Profiles.LoadKWh,
		PVKWh:         hh.Profiles.PVKWh,
		EVChargeKW:    hh.Profiles.EVChargeKW,
		TotalLoadKWh:  sum(hh.Profiles.LoadKWh),
		TotalPVKWh:    sum(hh.Profiles.PVKWh),
	})
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}
