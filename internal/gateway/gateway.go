package gateway

import (
	"context"

	"plantd-admin/internal/domain"
)

// ProvisionRequest 模板实例化创建设备的请求载荷
// 可选字段为空时整体省略，不以空字符串发送
type ProvisionRequest struct {
	PlantID        string              `json:"plantId"`
	TemplateID     string              `json:"templateId"`
	ParentDeviceID *string             `json:"parentDeviceId,omitempty"`
	Name           string              `json:"name"`
	SerialNumber   string              `json:"serialNumber,omitempty"`
	Manufacturer   string              `json:"manufacturer,omitempty"`
	Model          string              `json:"model,omitempty"`
	Description    string              `json:"description,omitempty"`
	Status         domain.DeviceStatus `json:"status"`
}

// Gateway 远端资源网关
// 对命名资源集合执行 CRUD 及领域操作，失败时返回分类后的 *Error。
// 本层不做重试，失败分类原样交给调用方处理。
type Gateway interface {
	// 设备
	ListDevices(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error)
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	CreateDevice(ctx context.Context, fields domain.Fields) (*domain.Device, error)
	CreateDeviceFromTemplate(ctx context.Context, req ProvisionRequest) (*domain.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, fields domain.Fields) (*domain.Device, error)
	DeleteDevice(ctx context.Context, deviceID string) error

	// 设备模板（只读）
	ListTemplates(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.DeviceTemplate, domain.Pagination, error)

	// 标签与绑定
	ListTags(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Tag, domain.Pagination, error)
	GetTag(ctx context.Context, tagID string) (*domain.Tag, error)
	CreateTag(ctx context.Context, fields domain.Fields) (*domain.Tag, error)
	UpdateTag(ctx context.Context, tagID string, fields domain.Fields) (*domain.Tag, error)
	DeleteTag(ctx context.Context, tagID string) error
	AssignTag(ctx context.Context, deviceID, tagID, mqttPath string) (*domain.TagAssignment, error)
	UnassignTag(ctx context.Context, deviceID, tagID string) error
	ListAssignments(ctx context.Context, deviceID string) ([]domain.TagAssignment, error)

	// 报警
	ListAlarms(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Alarm, domain.Pagination, error)
	GetAlarm(ctx context.Context, alarmID string) (*domain.Alarm, error)
	AcknowledgeAlarm(ctx context.Context, alarmID, note string) (*domain.Alarm, error)
	ResolveAlarm(ctx context.Context, alarmID, note string) (*domain.Alarm, error)
	GetAlarmStatistics(ctx context.Context, filters domain.Filters) (*domain.AlarmStatistics, error)

	// 用户
	ListUsers(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.User, domain.Pagination, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, fields domain.Fields) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, fields domain.Fields) (*domain.User, error)
	// DeactivateUser 软删除：置 is_active=false，不从远端硬删除
	DeactivateUser(ctx context.Context, userID string) (*domain.User, error)
}
