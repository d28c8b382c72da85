package nutriroutine

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFileTurnLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileTurnLogger(&buf)

	require.NoError(t, logger.LogTurn(TurnLog{UserID: 7, Message: "generar rutina", Route: "generate_routine"}))
	require.NoError(t, logger.LogTurn(TurnLog{
		UserID:  7,
		Message: "finalizar",
		Effects: []EffectLog{{Kind: "finalize_routine", Error: "boom"}},
	}))
	require.NoError(t, logger.Flush())

	var doc struct {
		ChatSession struct {
			Turns []TurnLog `json:"turns"`
		} `json:"chat_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.ChatSession.Turns, 2)
	assert.Equal(t, "generate_routine", doc.ChatSession.Turns[0].Route)
	assert.Equal(t, "boom", doc.ChatSession.Turns[1].Effects[0].Error)

	buf.Reset()
	require.NoError(t, logger.Flush())
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Empty(t, doc.ChatSession.Turns)
}

func TestFileTurnLogger_WriteError(t *testing.T) {
	logger := NewFileTurnLogger(failingWriter{})
	require.NoError(t, logger.LogTurn(TurnLog{UserID: 1}))

	err := logger.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write turn log")
}

func TestFileTurnLogger_NilWriter(t *testing.T) {
	logger := NewFileTurnLogger(nil)
	require.NoError(t, logger.LogTurn(TurnLog{UserID: 1}))
	assert.NoError(t, logger.Flush())
}

func TestStdoutTurnLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutTurnLogger{w: &buf}

	require.NoError(t, logger.LogTurn(TurnLog{UserID: 3, Intent: IntentOther}))
	require.NoError(t, logger.LogTurn(TurnLog{UserID: 4}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var turn TurnLog
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &turn))
	assert.Equal(t, int64(3), turn.UserID)
	assert.Equal(t, IntentOther, turn.Intent)
}

func TestNewTurnLogFilePath(t *testing.T) {
	path := NewTurnLogFilePath("Llama3.1:8B")
	assert.True(t, strings.HasPrefix(path, "./logs/"))
	assert.True(t, strings.HasSuffix(path, ".llama3.1_8b.json"))
}
