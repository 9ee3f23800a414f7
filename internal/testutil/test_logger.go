package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rs/zerolog"
)

func NewTestLogger() *zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
	return &logger
}

// NewBufferedLogger returns a logger that echoes to stdout and keeps the raw
// JSON entries in the returned buffer for assertions.
func NewBufferedLogger() (*zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	consoleWriter := zerolog.ConsoleWriter{
		Out: os.Stdout,
	}
	logger := zerolog.New(io.MultiWriter(consoleWriter, &buf)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
	return &logger, &buf
}

// EntriesAt decodes the JSON entries captured by NewBufferedLogger and keeps
// the ones logged at level.
func EntriesAt(buf *bytes.Buffer, level zerolog.Level) []map[string]interface{} {
	var entries []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var entry map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry[zerolog.LevelFieldName] == level.String() {
			entries = append(entries, entry)
		}
	}
	return entries
}
