package domain

import "time"

type LogLevel string

const (
	LogInfo     LogLevel = "info"
	LogWarning  LogLevel = "warning"
	LogError    LogLevel = "error"
	LogCritical LogLevel = "critical"
)

// LogEntry is one activity log record. Entries are append-only and never
// mutated after creation. UserID 0 means the system acted.
type LogEntry struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Level     LogLevel  `json:"level"`
	TableName string    `json:"tableName"`
	UserID    int       `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
