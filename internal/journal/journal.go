// Package journal records every maker event as a JSON line in the logs directory.
package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Justype/simmaker/internal/events"
	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Journal writes maker events through a zap logger
type Journal struct {
	RunID  string
	Path   string // "" when the logger was provided
	logger *zap.Logger
}

// Open creates <logsDir>/simmaker-<run id>.log and a JSON logger writing to it.
func Open(logsDir string, debug bool) (*Journal, error) {
	if err := os.MkdirAll(logsDir, utils.PermDir); err != nil {
		return nil, fmt.Errorf("failed to create logs directory %s: %w", logsDir, err)
	}

	runID := uuid.NewString()
	path := filepath.Join(logsDir, fmt.Sprintf("simmaker-%s.log", runID))

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	j := NewWithLogger(logger, runID)
	j.Path = path
	return j, nil
}

// NewWithLogger wraps an existing logger.
func NewWithLogger(logger *zap.Logger, runID string) *Journal {
	return &Journal{RunID: runID, logger: logger.With(zap.String("run", runID))}
}

// Attach subscribes the journal to every event of bus.
func (j *Journal) Attach(bus *events.Bus) {
	bus.SubscribeAll(j.record)
}

func (j *Journal) record(ev events.Event, payload any) {
	fields := append([]zap.Field{zap.String("event", string(ev))}, payloadFields(payload)...)

	switch ev {
	case events.ExtractProgress, events.DownloadProgress, events.AdditionProgress:
		j.logger.Debug("progress", fields...)
	default:
		j.logger.Info("maker", fields...)
	}
}

// Error records an error that ended a run.
func (j *Journal) Error(err error) {
	j.logger.Error("run failed", zap.Error(err))
}

func payloadFields(payload any) []zap.Field {
	switch p := payload.(type) {
	case events.RunStartPayload:
		return []zap.Field{zap.Int("targets", len(p.Targets))}
	case events.RunEndPayload:
		return []zap.Field{
			zap.Int("unknown", len(p.Unknown)),
			zap.Int("rounds", p.Rounds),
			zap.Int("failures", p.Failures),
			zap.Int("corruptions", p.Corruptions),
		}
	case events.ExtractStartPayload:
		return []zap.Field{zap.Int("simulations", len(p.Simulations))}
	case events.ExtractEndPayload:
		return []zap.Field{zap.Int("unknown", len(p.Unknown))}
	case events.GenerateStartPayload:
		return []zap.Field{zap.Int("round", p.Round), zap.Int("simulations", len(p.Simulations))}
	case events.GenerateEndPayload:
		return []zap.Field{zap.String("basedir", p.Basedir), zap.String("script", p.Script), zap.Strings("jobs", p.JobIDs)}
	case events.WaitStartPayload:
		return []zap.Field{zap.Strings("jobs", p.JobIDs)}
	case events.WaitProgressPayload:
		fields := make([]zap.Field, 0, len(p.ByState))
		for _, s := range jobs.States() {
			fields = append(fields, zap.Int(s.String(), len(p.ByState[s])))
		}
		return fields
	case events.WaitEndPayload:
		return []zap.Field{zap.Bool("success", p.Success), zap.Duration("elapsed", p.Elapsed)}
	case events.DownloadStartPayload:
		return []zap.Field{zap.Int("simulations", len(p.Simulations))}
	case events.DownloadEndPayload:
		return []zap.Field{zap.Int("missing", p.Missing)}
	case events.AdditionStartPayload:
		return []zap.Field{zap.Int("simulations", len(p.Simulations))}
	case events.AdditionEndPayload:
		return []zap.Field{zap.Int("rejected", p.Rejected)}
	case events.DeleteScriptsPayload:
		return []zap.Field{zap.String("basedir", p.Basedir)}
	}
	return nil
}

// Close flushes the journal.
func (j *Journal) Close() error {
	// Sync reports EINVAL on some terminals; a file never does
	if err := j.logger.Sync(); err != nil && j.Path != "" {
		return err
	}
	return nil
}
