package tiersolver

import (
	"fmt"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"

	"github.com/tiergraph/solver/gameapi"
)

func errChildTiers(tier gameapi.Tier) error {
	return fmt.Errorf("GetChildTiers(%d) failed", tier)
}

func errTierSize(tier gameapi.Tier) error {
	return fmt.Errorf("GetTierSize(%d) failed", tier)
}

// logRemotenessHistogram prints a terminal histogram of solved remoteness
// values for a tier when debug logging is enabled, as a diagnostic
// complement to the teacher's plain debug-log-line style.
func logRemotenessHistogram(tier gameapi.Tier, remotenesses []float64) {
	if !log.Debug().Enabled() || len(remotenesses) == 0 {
		return
	}
	hist := histogram.Hist(10, remotenesses)
	buf := &stringWriter{}
	if err := histogram.Fprint(buf, hist, histogram.Linear(40)); err != nil {
		log.Debug().Err(err).Int64("tier", int64(tier)).Msg("failed to render remoteness histogram")
		return
	}
	log.Debug().Int64("tier", int64(tier)).Msg("remoteness distribution:\n" + buf.String())
}

type stringWriter struct {
	b []byte
}

func (w *stringWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

func (w *stringWriter) String() string {
	return string(w.b)
}
