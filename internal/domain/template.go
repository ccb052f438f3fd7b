package domain

// DeviceTemplate 设备模板（provisioning 只读，不被设备创建修改）
type DeviceTemplate struct {
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
	Shortform    string `json:"shortform"`
	DeviceType   string `json:"device_type"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	TagCount     int    `json:"tag_count"`
	IsActive     bool   `json:"is_active"`
}
