package chain

import (
	"fmt"
	"sort"

	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/google/cel-go/cel"
)

// WeightTable is the additive per-stage weight scheme (spec §4.6).
// computeScore applies the DefaultWeights values as literal constants and
// does not read a WeightTable; a configured CELScorer replaces the whole
// score rather than individual weights.
type WeightTable struct {
	Permit, Spud, Well, Production          float64
	Resource, Study, Deal, Policy           float64
	InsiderBuy, InsiderBuyCluster           float64
}

// DefaultWeights is the staged scoring scheme baked in by computeScore.
var DefaultWeights = WeightTable{
	Permit: 0.30, Spud: 0.20, Well: 0.30, Production: 0.20,
	Resource: 0.15, Study: 0.20, Deal: 0.15, Policy: 0.10,
	InsiderBuy: 0.15, InsiderBuyCluster: 0.10,
}

// CELScorer evaluates a compiled CEL expression mapping a stage-flags
// struct to a score float64, overriding DefaultWeights (spec SPEC_FULL
// §11.6, resolving spec §9's Open Question about a legacy-fixture
// reconciliation knob). The default path never touches CEL.
type CELScorer struct {
	program cel.Program
}

// NewCELScorer compiles expr once; it must evaluate to a double given the
// boolean stage-flag variables every Row exposes.
func NewCELScorer(expr string) (*CELScorer, error) {
	env, err := cel.NewEnv(
		cel.Variable("has_permit", cel.BoolType),
		cel.Variable("has_spud", cel.BoolType),
		cel.Variable("has_well", cel.BoolType),
		cel.Variable("has_production", cel.BoolType),
		cel.Variable("has_resource", cel.BoolType),
		cel.Variable("has_study", cel.BoolType),
		cel.Variable("has_deal", cel.BoolType),
		cel.Variable("has_policy", cel.BoolType),
		cel.Variable("has_insider_buy", cel.BoolType),
		cel.Variable("has_insider_buy_cluster", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("chain: build CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("chain: compile scoring weight expression: %w", issues.Err())
	}
	prg, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("chain: build scoring weight program: %w", err)
	}
	return &CELScorer{program: prg}, nil
}

// Score evaluates the compiled expression against row's stage flags.
func (s *CELScorer) Score(row Row) (float64, error) {
	input := map[string]any{
		"has_permit":              row.HasPermit,
		"has_spud":                row.HasSpud,
		"has_well":                row.HasWell,
		"has_production":          row.HasProduction,
		"has_resource":            row.HasResource,
		"has_study":               row.HasStudy,
		"has_deal":                row.HasDeal,
		"has_policy":              row.HasPolicy,
		"has_insider_buy":         row.HasInsiderBuy,
		"has_insider_buy_cluster": row.HasInsiderBuyCluster,
	}
	out, _, err := s.program.Eval(input)
	if err != nil {
		return 0, fmt.Errorf("chain: evaluate scoring weight expression: %w", err)
	}
	score, ok := out.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("chain: scoring weight expression must return a double, got %T", out.Value())
	}
	return score, nil
}

// AggregateWithScorer is Aggregate with an optional CEL override for the
// final score computation; a nil scorer behaves exactly like Aggregate.
func AggregateWithScorer(events []event.RawEvent, scorer *CELScorer) ([]Row, error) {
	rows := Aggregate(events)
	if scorer == nil {
		return rows, nil
	}
	for i := range rows {
		score, err := scorer.Score(rows[i])
		if err != nil {
			return nil, err
		}
		rows[i].Score = score
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	return rows, nil
}
