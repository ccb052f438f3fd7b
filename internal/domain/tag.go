package domain

// Tag 标签领域模型（共享的标签定义）
type Tag struct {
	TagID    string `json:"tag_id"`
	TagName  string `json:"tag_name"`
	DataType string `json:"data_type"`
}

// TagAssignment 设备-标签绑定实例
// 唯一性由 (device_id, tag_id) 对确定，同一对不允许重复共存
type TagAssignment struct {
	DeviceID string `json:"device_id"`
	TagID    string `json:"tag_id"`
	MQTTPath string `json:"mqtt_path"`
}
