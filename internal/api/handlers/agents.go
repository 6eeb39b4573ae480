package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"p2p-market-sim/internal/api/models"
)

// AgentHandler handles agent metadata requests
type AgentHandler struct{}

// NewAgentHandler creates a new agent handler
func NewAgentHandler() *AgentHandler {
	return &AgentHandler{}
}

// ListAgents handles GET /api/v1/agents
func (h *AgentHandler) ListAgents(c *gin.Context) {
	agents := []models.AgentInfo{
		{
			Name:        "optimizer",
			Description: "Scans the far side of the book and accepts the best crossing offer. Greedy mode fills across several offers, single mode stops at the first.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "optimizer_mode",
					Type:        "string",
					Description: "Fill mode: 'single' or 'greedy'",
					Default:     "greedy",
				},
			},
		},
		{
			Name:        "satisficer",
			Description: "Stops searching at the first acceptable offer. Band mode accepts within a price tolerance, the k modes inspect at most K offers.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "mode",
					Type:        "string",
					Description: "Search rule: 'band', 'k_search' or 'k_greedy'",
				},
				{
					Name:        "tau",
					Type:        "float",
					Description: "Band halfwidth as a percentage of the own quote price (band mode)",
				},
				{
					Name:        "K",
					Type:        "int",
					Description: "Number of offers inspected before settling (k modes)",
				},
				{
					Name:        "hetero_tau",
					Type:        "list",
					Description: "Per-agent tau values cycled through the population",
				},
				{
					Name:        "hetero_K",
					Type:        "list",
					Description: "Per-agent K values cycled through the population",
				},
			},
		},
		{
			Name:        "zi",
			Description: "Zero-intelligence baseline. Posts a fixed 0.5 kWh at a uniform random price on 10-25 c/kWh with a coin-flip side; ignores household profiles.",
			Parameters:  []models.ParameterInfo{},
		},
		{
			Name:        "learner",
			Description: "Epsilon-greedy bandit over price offsets around the anchor quote. Execution feasibility against the book is the reward signal.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "epsilon",
					Type:        "float",
					Description: "Exploration rate",
					Default:     0.1,
				},
				{
					Name:        "arms_cents",
					Type:        "list",
					Description: "Price offset arms in cents",
					Default:     []float64{-2, -1, 0, 1, 2},
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"agents": agents})
}
