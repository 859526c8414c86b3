package session

import (
	"fmt"
	"sync"
	"time"
)

// OpType labels one dispatcher operation in the in-memory log.
type OpType string

const (
	OpProject OpType = "project"
	OpCreate  OpType = "create"
	OpRename  OpType = "rename"
	OpMove    OpType = "move"
	OpDelete  OpType = "delete"
	OpUpdate  OpType = "update"
	OpReplace OpType = "replace"
	OpUndo    OpType = "undo"
	OpRedo    OpType = "redo"
	OpBatch   OpType = "ai_batch"
	OpSearch  OpType = "search"
	OpResync  OpType = "resync"
)

// LogLevel represents severity level.
type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// OpLog is a single operation log entry.
type OpLog struct {
	ID       int64     `json:"id"`
	Time     time.Time `json:"time"`
	Level    LogLevel  `json:"level"`
	Type     OpType    `json:"type"`
	Project  string    `json:"project,omitempty"`
	Path     string    `json:"path,omitempty"`
	Message  string    `json:"message"`
	Duration int64     `json:"duration_ms,omitempty"`
	Success  bool      `json:"success"`
}

// OpLogger stores recent operation logs in memory.
type OpLogger struct {
	mu      sync.RWMutex
	logs    []OpLog
	maxLogs int
	nextID  int64
}

// NewOpLogger creates a new operation logger.
func NewOpLogger(maxLogs int) *OpLogger {
	if maxLogs <= 0 {
		maxLogs = 500
	}
	return &OpLogger{
		logs:    make([]OpLog, 0, maxLogs),
		maxLogs: maxLogs,
		nextID:  1,
	}
}

func (l *OpLogger) log(level LogLevel, opType OpType, proj, path, message string, d time.Duration, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, OpLog{
		ID:       l.nextID,
		Time:     time.Now(),
		Level:    level,
		Type:     opType,
		Project:  proj,
		Path:     path,
		Message:  message,
		Duration: d.Milliseconds(),
		Success:  success,
	})
	l.nextID++
	if len(l.logs) > l.maxLogs {
		l.logs = l.logs[len(l.logs)-l.maxLogs:]
	}
}

// Info records a successful operation.
func (l *OpLogger) Info(opType OpType, proj, path, message string) {
	l.log(LevelInfo, opType, proj, path, message, 0, true)
}

// Infof records a successful operation with a formatted message.
func (l *OpLogger) Infof(opType OpType, proj, path, format string, args ...any) {
	l.log(LevelInfo, opType, proj, path, fmt.Sprintf(format, args...), 0, true)
}

// Warn records a non-fatal problem.
func (l *OpLogger) Warn(opType OpType, proj, path, message string) {
	l.log(LevelWarn, opType, proj, path, message, 0, false)
}

// Error records a rejected or failed operation.
func (l *OpLogger) Error(opType OpType, proj, path, message string) {
	l.log(LevelError, opType, proj, path, message, 0, false)
}

// Recent returns the most recent n logs (newest first).
func (l *OpLogger) Recent(n int) []OpLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.logs) {
		n = len(l.logs)
	}
	result := make([]OpLog, n)
	for i := 0; i < n; i++ {
		result[i] = l.logs[len(l.logs)-1-i]
	}
	return result
}

// Since returns logs with an ID greater than afterID, newest first.
func (l *OpLogger) Since(afterID int64) []OpLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []OpLog
	for i := len(l.logs) - 1; i >= 0; i-- {
		if l.logs[i].ID > afterID {
			result = append(result, l.logs[i])
		}
	}
	return result
}
