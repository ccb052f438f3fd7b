// Package provision 模板驱动的设备创建工作流
//
// 四步严格顺序：模板发现 → 模板选择（一次性自动填充）→ 字段录入 → 提交。
// 工作流不可中途恢复：部分失败后操作员从第 1 步重新开始（Open 清空表单）。
package provision

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"plantd-admin/internal/domain"
	"plantd-admin/internal/gateway"
	"plantd-admin/internal/store"

	"go.uber.org/zap"
)

// ErrNoTemplate 未选择模板时提交被客户端拒绝（不触发网关调用）
// 模板选择是远端所有自动派生副作用的前置条件。
var ErrNoTemplate = errors.New("Please select a device template")

// genericSubmitError 网关未给出可展示信息时的兜底文案
const genericSubmitError = "Failed to create device. Please try again."

// Form 设备创建表单状态
type Form struct {
	Name           string
	SerialNumber   string
	Manufacturer   string
	Model          string
	Description    string
	Status         domain.DeviceStatus
	ParentDeviceID *string
}

// Provisioner 工作流消费的网关操作子集
type Provisioner interface {
	CreateDeviceFromTemplate(ctx context.Context, req gateway.ProvisionRequest) (*domain.Device, error)
}

// Workflow 设备创建工作流
// 模板 Store 只读共享（跨 Store 读取为快照，不被本组件修改）。
type Workflow struct {
	gw        Provisioner
	templates *store.TemplateStore
	logger    *zap.Logger

	mu       sync.Mutex
	plantID  string
	selected *domain.DeviceTemplate
	form     Form
	errMsg   string
}

// NewWorkflow 创建设备创建工作流
func NewWorkflow(gw Provisioner, templates *store.TemplateStore, logger *zap.Logger) *Workflow {
	return &Workflow{
		gw:        gw,
		templates: templates,
		logger:    logger,
	}
}

// Open 第 1 步：打开工作流并急切加载激活模板（isActive=true）
// 表单整体清空。加载失败时工作流保持打开、记录行内错误，提交被阻塞。
func (w *Workflow) Open(ctx context.Context, plantID string) error {
	w.mu.Lock()
	w.plantID = plantID
	w.selected = nil
	w.form = Form{}
	w.errMsg = ""
	w.mu.Unlock()

	_, err := w.templates.FetchList(ctx, domain.Filters{"isActive": "true"}, domain.PageRequest{})
	if err != nil {
		w.mu.Lock()
		w.errMsg = "Failed to load device templates. Please try again."
		w.mu.Unlock()
		return err
	}
	return nil
}

// Templates 当前可选的模板列表快照
func (w *Workflow) Templates() []domain.DeviceTemplate {
	return w.templates.Items()
}

// Select 第 2 步：选择模板并触发一次性字段自动填充
// manufacturer/model 仅在对应表单字段为空时从模板拷贝，绝不覆盖操作员已录入的值；
// name 为空时默认 "<模板名> 1"（仅为便利种子，不保证唯一，重名由远端拒绝）。
func (w *Workflow) Select(templateID string) error {
	tpl, ok := w.templates.Find(templateID)
	if !ok {
		return fmt.Errorf("unknown device template: %s", templateID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = &tpl
	if w.form.Manufacturer == "" {
		w.form.Manufacturer = tpl.Manufacturer
	}
	if w.form.Model == "" {
		w.form.Model = tpl.Model
	}
	if w.form.Name == "" {
		w.form.Name = tpl.TemplateName + " 1"
	}
	return nil
}

// Selected 返回当前选中的模板
func (w *Workflow) Selected() (domain.DeviceTemplate, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return domain.DeviceTemplate{}, false
	}
	return *w.selected, true
}

// 第 3 步：字段录入

func (w *Workflow) SetName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Name = name
}

func (w *Workflow) SetSerialNumber(sn string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.SerialNumber = sn
}

func (w *Workflow) SetManufacturer(m string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Manufacturer = m
}

func (w *Workflow) SetModel(m string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Model = m
}

func (w *Workflow) SetDescription(d string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Description = d
}

func (w *Workflow) SetStatus(s domain.DeviceStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Status = s
}

// SetParentDevice 设置父设备（nil 表示顶层设备）
func (w *Workflow) SetParentDevice(parentDeviceID *string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.ParentDeviceID = parentDeviceID
}

// Form 返回表单状态快照
func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Submit 第 4 步：提交
// 未选模板时客户端直接拒绝，不触发网关调用。可选字段为空时整体省略。
// 成功返回远端成形的设备（含生成的 ID、MQTT 主题、按模板实例化的标签集）并清空表单；
// 失败保留表单原样并记录行内错误，操作员可修正后重试而无需重新选择模板。
func (w *Workflow) Submit(ctx context.Context) (*domain.Device, error) {
	w.mu.Lock()
	if w.selected == nil {
		w.errMsg = ErrNoTemplate.Error()
		w.mu.Unlock()
		return nil, ErrNoTemplate
	}
	if w.form.Name == "" {
		w.errMsg = "Device name is required"
		w.mu.Unlock()
		return nil, errors.New("device name is required")
	}
	status := w.form.Status
	if status == "" {
		status = domain.DeviceOnline
	}
	if !status.Valid() {
		w.errMsg = fmt.Sprintf("Invalid device status: %s", status)
		w.mu.Unlock()
		return nil, fmt.Errorf("invalid device status: %s", status)
	}

	req := gateway.ProvisionRequest{
		PlantID:        w.plantID,
		TemplateID:     w.selected.TemplateID,
		ParentDeviceID: w.form.ParentDeviceID,
		Name:           w.form.Name,
		SerialNumber:   w.form.SerialNumber,
		Manufacturer:   w.form.Manufacturer,
		Model:          w.form.Model,
		Description:    w.form.Description,
		Status:         status,
	}
	w.mu.Unlock()

	device, err := w.gw.CreateDeviceFromTemplate(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.errMsg = submitMessage(err)
		w.logger.Warn("Device provisioning failed",
			zap.String("plant_id", req.PlantID),
			zap.String("template_id", req.TemplateID),
			zap.Error(err),
		)
		return nil, err
	}

	w.logger.Info("Device provisioned from template",
		zap.String("device_id", device.DeviceID),
		zap.String("template_id", req.TemplateID),
		zap.Int("tag_count", device.TagCount),
	)

	w.selected = nil
	w.form = Form{}
	w.errMsg = ""
	return device, nil
}

// Reset 清空表单与选择（表单取消）
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = nil
	w.form = Form{}
	w.errMsg = ""
}

// Err 当前行内错误信息，空串表示无错误
func (w *Workflow) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

// submitMessage 提取网关的可展示信息，否则用兜底文案
func submitMessage(err error) string {
	var ge *gateway.Error
	if errors.As(err, &ge) && ge.Message != "" {
		switch ge.Kind {
		case gateway.KindNetworkFailure, gateway.KindServerFailure:
			return genericSubmitError
		default:
			return ge.Message
		}
	}
	return genericSubmitError
}
