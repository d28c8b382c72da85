package nutriroutine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// TurnLogger records one audit entry per chat turn.
type TurnLogger interface {
	LogTurn(turn TurnLog) error
}

// NewTurnLogFilePath returns a file path tagged with a label (usually the generator backend)
// so local runs against different models are easy to tell apart.
func NewTurnLogFilePath(label string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(label), ":", "_"),
	)
}

// TurnLog is the audit record of a single turn.
type TurnLog struct {
	UserID    int64       `json:"user_id"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message"`
	Route     string      `json:"route"`
	FromStep  string      `json:"from_step"`
	ToStep    string      `json:"to_step"`
	Intent    IntentKind  `json:"intent"`
	Action    ActionKind  `json:"action,omitempty"`
	Effects   []EffectLog `json:"effects,omitempty"`
	Duration  string      `json:"duration"`
	Error     string      `json:"error,omitempty"`
}

// EffectLog records an effect executed during a turn.
type EffectLog struct {
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

// FileTurnLogger accumulates turns and writes them on Flush.
type FileTurnLogger struct {
	mu     sync.Mutex
	turns  []TurnLog
	writer io.Writer
}

func NewFileTurnLogger(writer io.Writer) *FileTurnLogger {
	return &FileTurnLogger{
		turns:  make([]TurnLog, 0),
		writer: writer,
	}
}

func (l *FileTurnLogger) LogTurn(turn TurnLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, turn)
	return nil
}

// Flush writes all accumulated turns and clears the buffer.
func (l *FileTurnLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"chat_session": map[string]any{
			"timestamp": time.Now(),
			"turns":     l.turns,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal turn log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write turn log: %w", err)
	}

	l.turns = l.turns[:0]
	return nil
}

type NoOpTurnLogger struct{}

func NewNoOpTurnLogger() *NoOpTurnLogger {
	return &NoOpTurnLogger{}
}

func (nop *NoOpTurnLogger) LogTurn(turn TurnLog) error {
	return nil
}

// StdoutTurnLogger writes each turn as a JSON line (for Lambda/CloudWatch).
type StdoutTurnLogger struct {
	w io.Writer
}

func NewStdoutTurnLogger() *StdoutTurnLogger {
	return &StdoutTurnLogger{w: os.Stdout}
}

func (l *StdoutTurnLogger) LogTurn(turn TurnLog) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.w, string(data))
	return err
}
