package reason

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// killGrace is how long after ctx cancellation we wait for the subprocess
// to die before SIGKILL.
const killGrace = 3 * time.Second

// CLIConfig configures the CLI runner.
type CLIConfig struct {
	// Command is the reasoning binary, e.g. "claude".
	Command string

	// WorkDir is the working directory for each invocation.
	WorkDir string

	// SystemPromptPath, if set, is a file whose contents are appended to
	// the system prompt each turn.
	SystemPromptPath string

	// TurnTimeout is the hard ceiling on a single turn, not on the call.
	TurnTimeout time.Duration

	// SessionTimeout is idle-based retention for conversation state: a
	// call whose turns keep coming never expires, but one silent for this
	// long loses its resume id and the next turn starts a fresh
	// conversation. It is not a cap on total call length.
	SessionTimeout time.Duration

	// SkipPermissions passes the backend's permission-bypass flag.
	SkipPermissions bool

	Logger *slog.Logger
}

// CLI invokes the reasoning backend binary once per turn.
type CLI struct {
	cfg    CLIConfig
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	conversationID string
	lastUsed       time.Time
}

var _ Runner = (*CLI)(nil)

// NewCLI creates a CLI runner.
func NewCLI(cfg CLIConfig) *CLI {
	if cfg.Command == "" {
		cfg.Command = "claude"
	}
	if cfg.TurnTimeout == 0 {
		cfg.TurnTimeout = 60 * time.Second
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 5 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CLI{
		cfg:      cfg,
		logger:   logger.With("component", "reason.cli"),
		sessions: make(map[string]*session),
	}
}

// cliOutput is the backend's --output-format json document.
type cliOutput struct {
	Result    string `json:"result"`
	SessionID string `json:"session_id"`
}

// Run invokes the backend for one turn. The subprocess is killed if ctx is
// cancelled or the turn timeout elapses.
func (c *CLI) Run(ctx context.Context, callID, input string) (string, error) {
	conversationID := c.checkoutSession(callID)

	args := []string{"-p", input, "--output-format", "json"}
	if c.cfg.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	if c.cfg.SystemPromptPath != "" {
		if contents, err := os.ReadFile(c.cfg.SystemPromptPath); err == nil {
			args = append(args, "--append-system-prompt", string(contents))
		}
	}
	if conversationID != "" {
		args = append(args, "-r", conversationID)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.cfg.Command, args...)
	cmd.Dir = c.cfg.WorkDir
	cmd.WaitDelay = killGrace

	var stderr strings.Builder
	cmd.Stderr = &stderr

	c.logger.Info("invoking reasoning backend", "call_id", callID, "input_chars", len(input))
	start := time.Now()

	stdout, err := cmd.Output()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		if runCtx.Err() != nil {
			return "", runCtx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &RunError{Stage: "exit", Detail: strings.TrimSpace(stderr.String()), Err: err}
		}
		return "", &RunError{Stage: "spawn", Err: err}
	}

	var parsed cliOutput
	if err := json.Unmarshal(stdout, &parsed); err != nil {
		return "", &RunError{Stage: "parse", Err: err}
	}

	c.storeConversationID(callID, parsed.SessionID)

	c.logger.Info("reasoning backend responded",
		"call_id", callID,
		"response_chars", len(parsed.Result),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return parsed.Result, nil
}

// EndSession drops conversation state for a call.
func (c *CLI) EndSession(callID string) {
	c.mu.Lock()
	delete(c.sessions, callID)
	c.mu.Unlock()
}

// checkoutSession returns the conversation id to resume, creating session
// bookkeeping on the first turn. Expiry is idle-based: a session whose
// last turn is older than SessionTimeout is dropped and the turn proceeds
// as a fresh conversation, so an active call is never cut off by age.
func (c *CLI) checkoutSession(callID string) string {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop idle sessions so abandoned calls don't pin memory.
	for id, s := range c.sessions {
		if now.Sub(s.lastUsed) > c.cfg.SessionTimeout {
			c.logger.Info("dropping idle conversation", "call_id", id, "idle", now.Sub(s.lastUsed))
			delete(c.sessions, id)
		}
	}

	s, ok := c.sessions[callID]
	if !ok {
		c.sessions[callID] = &session{lastUsed: now}
		return ""
	}

	s.lastUsed = now
	return s.conversationID
}

func (c *CLI) storeConversationID(callID, conversationID string) {
	if conversationID == "" {
		return
	}
	c.mu.Lock()
	if s, ok := c.sessions[callID]; ok {
		s.conversationID = conversationID
		s.lastUsed = time.Now()
	}
	c.mu.Unlock()
}
