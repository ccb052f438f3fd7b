package domain

import "time"

// AlarmStatus 报警生命周期状态（单向推进，不允许回退）
type AlarmStatus string

const (
	AlarmOpen         AlarmStatus = "OPEN"
	AlarmAcknowledged AlarmStatus = "ACKNOWLEDGED"
	AlarmResolved     AlarmStatus = "RESOLVED"
)

// AlarmSeverity 报警级别
type AlarmSeverity string

const (
	SeverityCritical AlarmSeverity = "CRITICAL"
	SeverityMajor    AlarmSeverity = "MAJOR"
	SeverityMinor    AlarmSeverity = "MINOR"
	SeverityWarning  AlarmSeverity = "WARNING"
)

// Alarm 报警领域模型
// 确认元数据仅在进入 ACKNOWLEDGED 时写入，解决元数据仅在进入 RESOLVED 时写入
type Alarm struct {
	AlarmID  string        `json:"alarm_id"`
	PlantID  string        `json:"plant_id"`
	DeviceID string        `json:"device_id"`
	Severity AlarmSeverity `json:"severity"`
	Status   AlarmStatus   `json:"status"`
	Message  string        `json:"message,omitempty"`

	TriggeredAt time.Time `json:"triggered_at"`

	AcknowledgedBy   *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedNote *string    `json:"acknowledged_note,omitempty"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`

	ResolvedBy   *string    `json:"resolved_by,omitempty"`
	ResolvedNote *string    `json:"resolved_note,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// AlarmStatistics 报警统计聚合（按级别/状态计数）
// 独立于报警列表缓存，只通过显式刷新更新
type AlarmStatistics struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
	FetchedAt  time.Time      `json:"fetched_at"`
}
