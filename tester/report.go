package tester

import (
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/stats"
)

// Report summarizes one Tester.Test run for a manager to persist or relay.
// When the sample was partial (PopulationSize > SampleSize), MarginOfError
// bounds, at ConfidenceLevel, how far the observed all-pass result could
// diverge from the true population failure rate.
type Report struct {
	Tier            gameapi.Tier `yaml:"tier"`
	Seed            uint64       `yaml:"seed"`
	SampleSize      int64        `yaml:"sample_size"`
	PopulationSize  int64        `yaml:"population_size"`
	ConfidenceLevel float64      `yaml:"confidence_level"`
	Passed          bool         `yaml:"passed"`
	Failure         string       `yaml:"failure,omitempty"`
}

// RunReport runs Test against tier and packages the outcome as a Report at
// the given confidence level (e.g. 95 for a 95% interval).
func (t *Tester) RunReport(seed uint64, tier gameapi.Tier, parentTiers []gameapi.Tier, sampleMax int64, confidenceLevel float64) (*Report, error) {
	size := t.api.GetTierSize(tier)
	if size == gameapi.IllegalSize {
		return nil, fmt.Errorf("GetTierSize(%d) failed", tier)
	}
	sampleSize := sampleMax
	if size < sampleSize {
		sampleSize = size
	}

	report := &Report{
		Tier:            tier,
		Seed:            seed,
		SampleSize:      sampleSize,
		PopulationSize:  size,
		ConfidenceLevel: confidenceLevel,
	}

	err := t.Test(seed, tier, parentTiers, sampleMax)
	switch e := err.(type) {
	case nil:
		report.Passed = true
	case *Failure:
		report.Passed = false
		report.Failure = e.Error()
	default:
		return nil, err
	}
	return report, nil
}

// MarginOfError is the conservative Wald margin, at r.ConfidenceLevel, for
// extrapolating an all-pass sample of size r.SampleSize to the full
// population: the worst-case standard error occurs at an assumed true
// proportion of 0.5.
func (r *Report) MarginOfError() float64 {
	if r.SampleSize == 0 {
		return 1.0
	}
	z := stats.ZVal(r.ConfidenceLevel)
	return z * math.Sqrt(0.25/float64(r.SampleSize))
}

// WriteYAML serializes the report, matching the YAML-based report format
// macondo's own tooling uses for structured run summaries.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}
