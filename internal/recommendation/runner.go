package recommendation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"CampusEvents/internal/config"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const stderrLimit = 500

var ErrTimeout = errors.New("recommender timed out")

// ScriptError is a non-zero exit of the recommender.
type ScriptError struct {
	ExitCode int
	Stderr   string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("recommender exited with code %d: %s", e.ExitCode, e.Stderr)
}

// Runner produces the raw ranking for a profile.
type Runner interface {
	Run(ctx context.Context, interests, department string) ([]byte, error)
}

// ScriptRunner runs the external ranking script, at most MaxConcurrent at
// a time.
type ScriptRunner struct {
	command string
	script  string
	timeout time.Duration
	slots   *semaphore.Weighted
	logger  *zap.Logger
}

func NewScriptRunner(cfg *config.AppConfig, logger *zap.Logger) *ScriptRunner {
	rc := cfg.Recommender
	return &ScriptRunner{
		command: rc.Command,
		script:  rc.Script,
		timeout: rc.Timeout,
		slots:   semaphore.NewWeighted(rc.MaxConcurrent),
		logger:  logger,
	}
}

func (r *ScriptRunner) Run(ctx context.Context, interests, department string) ([]byte, error) {
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.slots.Release(1)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, r.script, interests, department)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ScriptError{ExitCode: exitErr.ExitCode(), Stderr: summarize(stderr.String())}
		}
		return nil, fmt.Errorf("start recommender: %w", err)
	}
	r.logger.Debug("Recommender finished", zap.Duration("took", time.Since(started)), zap.Int("bytes", stdout.Len()))
	return stdout.Bytes(), nil
}

func summarize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		cut := stderrLimit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
