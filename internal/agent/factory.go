package agent

import (
	"errors"
	"fmt"

	"p2p-market-sim/internal/model"
)

// Known agent type names, as they appear in config, file names and logs.
const (
	TypeOptimizer  = "optimizer"
	TypeSatisficer = "satisficer"
	TypeZI         = "zi"
	TypeLearner    = "learner"
)

// Types lists the known agent type names.
func Types() []string {
	return []string{TypeOptimizer, TypeSatisficer, TypeZI, TypeLearner}
}

// SatisficerModes lists the known search rule names.
func SatisficerModes() []string {
	return []string{"band", "k_search", "k_greedy"}
}

// SetConfig describes one homogeneous agent population.
type SetConfig struct {
	Type string
	N    int

	// Satisficer search rule and its parameters. HeteroTau/HeteroK, when
	// set, cycle through the population and override Tau/K per agent.
	Mode      string
	Tau       float64
	K         int
	HeteroTau []float64
	HeteroK   []int

	// OptimizerMode is "single" or "greedy"; empty means greedy.
	OptimizerMode string

	// Learner knobs; zero values select the package defaults.
	Epsilon   float64
	ArmsCents []float64

	// Seed feeds each agent's private RNG stream.
	Seed int64

	Params ProsumerParams

	// MakeProfiles supplies household series per agent index. Required
	// for every type except zi, which never consults profiles.
	MakeProfiles func(i int, seed int64) model.ProfileSet

	// Battery, when set, attaches a battery per household.
	Battery           *model.BatteryParams
	BatteryInitialSOC float64
}

// agentSeed spreads one cell seed into well-separated per-agent streams.
func agentSeed(seed int64, i int) int64 {
	return (seed*1000003 + int64(i)) & 0x7FFFFFFF
}

// BuildAgents constructs a population from a config. Agent IDs are
// "<type>_<index>" and every agent gets its own derived seed, so a cell
// is fully reproducible from (config, seed).
func BuildAgents(cfg SetConfig) ([]Agent, error) {
	if cfg.N <= 0 {
		return nil, errors.New("agent population must have n > 0")
	}
	if cfg.MakeProfiles == nil && cfg.Type != TypeZI {
		return nil, fmt.Errorf("agent type %q requires profiles", cfg.Type)
	}

	agents := make([]Agent, 0, cfg.N)
	for i := 0; i < cfg.N; i++ {
		id := fmt.Sprintf("%s_%d", cfg.Type, i)
		seed := agentSeed(cfg.Seed, i)

		if cfg.Type == TypeZI {
			agents = append(agents, NewZIConstrained(id, seed))
			continue
		}
		profiles := cfg.MakeProfiles(i, seed)

		var a Agent
		switch cfg.Type {
		case TypeOptimizer:
			mode := FillGreedy
			if cfg.OptimizerMode != "" {
				var err error
				mode, err = ParseFillMode(cfg.OptimizerMode)
				if err != nil {
					return nil, err
				}
			}
			a = NewOptimizer(id, seed, profiles, cfg.Params, mode)

		case TypeSatisficer:
			rule, err := cfg.ruleFor(i)
			if err != nil {
				return nil, err
			}
			a = NewSatisficer(id, seed, profiles, cfg.Params, rule)

		case TypeLearner:
			a = NewNoRegretLearner(id, seed, profiles, cfg.Params, cfg.Epsilon, cfg.ArmsCents)

		default:
			return nil, fmt.Errorf("unknown agent type %q", cfg.Type)
		}

		if cfg.Battery != nil {
			b, err := model.NewBattery(*cfg.Battery, cfg.BatteryInitialSOC)
			if err != nil {
				return nil, fmt.Errorf("agent %s battery: %w", id, err)
			}
			if pr, ok := a.(interface{ AttachBattery(*model.Battery) }); ok {
				pr.AttachBattery(b)
			}
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// ruleFor resolves the search rule for agent index i, applying the
// heterogeneity cycles.
func (cfg SetConfig) ruleFor(i int) (SearchRule, error) {
	if cfg.Mode == "" {
		return nil, errors.New("mode is required for satisficer: band, k_search or k_greedy")
	}
	tau := cfg.Tau
	if len(cfg.HeteroTau) > 0 {
		tau = cfg.HeteroTau[i%len(cfg.HeteroTau)]
	}
	k := cfg.K
	if len(cfg.HeteroK) > 0 {
		k = cfg.HeteroK[i%len(cfg.HeteroK)]
	}
	switch cfg.Mode {
	case "band":
		if tau <= 0 {
			return nil, errors.New("band mode requires tau > 0")
		}
		return BandRule{TauPercent: tau}, nil
	case "k_search":
		if k <= 0 {
			return nil, errors.New("k_search mode requires k > 0")
		}
		return KSearchRule{K: k}, nil
	case "k_greedy":
		if k <= 0 {
			return nil, errors.New("k_greedy mode requires k > 0")
		}
		return KGreedyRule{K: k}, nil
	}
	return nil, fmt.Errorf("unknown satisficer mode %q", cfg.Mode)
}
