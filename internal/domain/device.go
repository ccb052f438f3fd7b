package domain

// DeviceStatus 设备运行状态
type DeviceStatus string

const (
	DeviceOnline      DeviceStatus = "ONLINE"
	DeviceOffline     DeviceStatus = "OFFLINE"
	DeviceMaintenance DeviceStatus = "MAINTENANCE"
	DeviceError       DeviceStatus = "ERROR"
)

// Valid 检查是否为合法的设备状态
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceOnline, DeviceOffline, DeviceMaintenance, DeviceError:
		return true
	}
	return false
}

// Device 设备领域模型（远端 devices 集合的快照）
// 所有字段为值快照：每次变更整体替换，不做局部原地修改
type Device struct {
	DeviceID       string       `json:"device_id"`
	PlantID        string       `json:"plant_id"`
	ParentDeviceID *string      `json:"parent_device_id,omitempty"` // nullable，null 表示顶层设备
	TemplateID     *string      `json:"template_id,omitempty"`      // 模板创建的设备携带来源模板
	DeviceName     string       `json:"device_name"`
	SerialNumber   string       `json:"serial_number,omitempty"`
	Manufacturer   string       `json:"manufacturer,omitempty"`
	Model          string       `json:"model,omitempty"`
	Status         DeviceStatus `json:"status"`
	Description    string       `json:"description,omitempty"`
	MQTTTopic      string       `json:"mqtt_topic,omitempty"` // 由远端生成
	TagCount       int          `json:"tag_count,omitempty"`  // 模板实例化自动创建的标签数
}
