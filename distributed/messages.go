package distributed

import "github.com/tiergraph/solver/gameapi"

// CommandKind is a manager's reply to a worker's Check: either go back to
// sleep, shut down, or solve a named tier.
type CommandKind int

const (
	Sleep CommandKind = iota
	Terminate
	Solve
	ForceSolve
)

// Command is the manager-to-worker message, carried as the NATS reply to a
// worker's Check request.
type Command struct {
	Kind CommandKind  `json:"kind"`
	Tier gameapi.Tier `json:"tier,omitempty"`
}

// ReplyKind is a worker's report back to the manager, either requesting
// its next command (Check) or announcing the outcome of a Solve/ForceSolve.
type ReplyKind int

const (
	Check ReplyKind = iota
	ReportSolved
	ReportLoaded
	ReportError
)

// Reply is the worker-to-manager message, sent as a NATS request whose
// response is the manager's next Command.
type Reply struct {
	Kind      ReplyKind    `json:"kind"`
	Tier      gameapi.Tier `json:"tier,omitempty"`
	ErrorCode int          `json:"error_code,omitempty"`
	ErrorText string       `json:"error_text,omitempty"`
}
