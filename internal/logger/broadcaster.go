package logger

import (
	"encoding/json"
	"sync"
)

const defaultBufferSize = 1000

// Broadcaster sends a typed message to every connected client.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// LogEntry is a parsed zerolog line as streamed to clients.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogBroadcaster is an io.Writer that keeps recent entries and forwards
// each one to the hub as "logs:entry".
type LogBroadcaster struct {
	mu     sync.RWMutex
	hub    Broadcaster
	buffer *RingBuffer[LogEntry]
}

// NewLogBroadcaster creates a broadcaster. hub may be nil and set later.
func NewLogBroadcaster(hub Broadcaster, bufferSize int) *LogBroadcaster {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &LogBroadcaster{
		hub:    hub,
		buffer: NewRingBuffer[LogEntry](bufferSize),
	}
}

// SetHub sets the hub entries are forwarded to.
func (b *LogBroadcaster) SetHub(hub Broadcaster) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hub = hub
}

// Write implements io.Writer. Lines that are not zerolog JSON are dropped.
func (b *LogBroadcaster) Write(p []byte) (int, error) {
	entry, ok := parseLogEntry(p)
	if !ok {
		return len(p), nil
	}

	b.buffer.Push(entry)

	b.mu.RLock()
	hub := b.hub
	b.mu.RUnlock()

	if hub != nil {
		_ = hub.Broadcast("logs:entry", entry)
	}
	return len(p), nil
}

// GetRecentLogs returns all buffered entries, oldest first.
func (b *LogBroadcaster) GetRecentLogs() []LogEntry {
	return b.buffer.GetAll()
}

func parseLogEntry(data []byte) (LogEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, false
	}

	entry := LogEntry{}
	take := func(key string) string {
		v, _ := raw[key].(string)
		delete(raw, key)
		return v
	}
	entry.Timestamp = take("time")
	entry.Level = take("level")
	entry.Component = take("component")
	entry.Message = take("message")

	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}
