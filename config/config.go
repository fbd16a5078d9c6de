package config

import (
	"time"

	"github.com/namsral/flag"
)

// SolverConfig holds the tunables the tier solver reads at startup. It is
// loaded the same way macondo's top-level Config is: namsral/flag parses
// both CLI flags and environment variables of the same name.
type SolverConfig struct {
	// Threads is the size of the worker-thread pool used by every
	// data-parallel loop within a tier solve. Zero means "use
	// runtime.NumCPU()".
	Threads int

	// DbChunkSize is parsed from flags and the environment, but no solver
	// loop reads it: parallelFor always splits a loop into one contiguous
	// chunk per thread, with no dynamic scheduling.
	DbChunkSize int

	// RemotenessMax caps the remoteness axis of the Frontier used by the
	// loopy solver, where a position whose true remoteness would exceed
	// this is a fatal GameApiError. The value-iteration solver does not
	// consult it.
	RemotenessMax int

	// MemoryFraction is the fraction of total system memory, checked
	// against pbnjay/memory.TotalMemory(), that the heap may reach before
	// a Frontier refuses to grow. Reverse-graph and counter storage are
	// not checked against it.
	MemoryFraction float64

	// TestSampleMax bounds how many positions the Tester samples from a
	// tier before it falls back to sampling rather than exhaustive checks.
	TestSampleMax int64

	// DistributedSleep is how long the worker-side shim waits before
	// re-sending Check after being told Sleep.
	DistributedSleep time.Duration

	// NatsURL is the NATS server the distributed shim connects to.
	NatsURL string
}

// DefaultSolverConfig returns a SolverConfig populated with the defaults
// Load would apply given no flags or environment variables.
func DefaultSolverConfig() *SolverConfig {
	cfg := &SolverConfig{}
	_ = cfg.Load(nil)
	return cfg
}

// Load parses args (CLI-style, e.g. os.Args[1:]) and environment variables
// into c, mirroring the flag/env precedence namsral/flag already
// implements for every other macondo binary.
func (c *SolverConfig) Load(args []string) error {
	fs := flag.NewFlagSet("tierworker", flag.ContinueOnError)
	fs.IntVar(&c.Threads, "threads", 0, "worker-thread pool size; 0 uses all available cores")
	fs.IntVar(&c.DbChunkSize, "db-chunk-size", 1024, "dynamic-scheduling chunk size for child loading and flushing")
	fs.IntVar(&c.RemotenessMax, "remoteness-max", 1023, "largest remoteness value the solver will accept")
	fs.Float64Var(&c.MemoryFraction, "memory-fraction", 0.8, "fraction of total system memory available to one tier solve")
	fs.Int64Var(&c.TestSampleMax, "test-sample-max", 1000, "maximum number of positions the tester samples per tier")
	fs.DurationVar(&c.DistributedSleep, "distributed-sleep", time.Second, "sleep duration between Check retries in the distributed shim")
	fs.StringVar(&c.NatsURL, "nats-url", "nats://127.0.0.1:4222", "NATS server URL for the distributed shim")
	return fs.Parse(args)
}
