package store

import (
	"context"

	"plantd-admin/internal/domain"

	"go.uber.org/zap"
)

// byID 将网关的指针返回适配为 Store Ops 的值返回
func byID[T any](f func(context.Context, string) (*T, error)) func(context.Context, string) (T, error) {
	return func(ctx context.Context, id string) (T, error) {
		p, err := f(ctx, id)
		if err != nil {
			var zero T
			return zero, err
		}
		return *p, nil
	}
}

func byFields[T any](f func(context.Context, domain.Fields) (*T, error)) func(context.Context, domain.Fields) (T, error) {
	return func(ctx context.Context, fields domain.Fields) (T, error) {
		p, err := f(ctx, fields)
		if err != nil {
			var zero T
			return zero, err
		}
		return *p, nil
	}
}

func byIDFields[T any](f func(context.Context, string, domain.Fields) (*T, error)) func(context.Context, string, domain.Fields) (T, error) {
	return func(ctx context.Context, id string, fields domain.Fields) (T, error) {
		p, err := f(ctx, id, fields)
		if err != nil {
			var zero T
			return zero, err
		}
		return *p, nil
	}
}

// DeviceGateway 设备 Store 消费的网关操作子集
type DeviceGateway interface {
	ListDevices(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error)
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	CreateDevice(ctx context.Context, fields domain.Fields) (*domain.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, fields domain.Fields) (*domain.Device, error)
	DeleteDevice(ctx context.Context, deviceID string) error
}

// DeviceStore 设备集合 Store
type DeviceStore struct {
	*Store[domain.Device]
}

// NewDeviceStore 创建设备 Store
func NewDeviceStore(gw DeviceGateway, logger *zap.Logger) *DeviceStore {
	return &DeviceStore{
		Store: New[domain.Device]("devices", Ops[domain.Device]{
			ID:     func(d domain.Device) string { return d.DeviceID },
			List:   gw.ListDevices,
			Get:    byID(gw.GetDevice),
			Create: byFields(gw.CreateDevice),
			Update: byIDFields(gw.UpdateDevice),
			Delete: gw.DeleteDevice,
		}, logger),
	}
}

// ApplyStatus 应用远端推送的设备状态快照（非法状态值直接丢弃）
// 命中缓存则整体替换该设备快照，返回是否命中。
func (s *DeviceStore) ApplyStatus(deviceID string, status domain.DeviceStatus) bool {
	if !status.Valid() {
		return false
	}
	d, ok := s.Find(deviceID)
	if !ok {
		return false
	}
	d.Status = status
	return s.ApplyConfirmed(d)
}

// TagGateway 标签 Store 消费的网关操作子集
type TagGateway interface {
	ListTags(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Tag, domain.Pagination, error)
	GetTag(ctx context.Context, tagID string) (*domain.Tag, error)
	CreateTag(ctx context.Context, fields domain.Fields) (*domain.Tag, error)
	UpdateTag(ctx context.Context, tagID string, fields domain.Fields) (*domain.Tag, error)
	DeleteTag(ctx context.Context, tagID string) error
}

// TagStore 标签定义集合 Store
type TagStore struct {
	*Store[domain.Tag]
}

// NewTagStore 创建标签 Store
func NewTagStore(gw TagGateway, logger *zap.Logger) *TagStore {
	return &TagStore{
		Store: New[domain.Tag]("tags", Ops[domain.Tag]{
			ID:     func(t domain.Tag) string { return t.TagID },
			List:   gw.ListTags,
			Get:    byID(gw.GetTag),
			Create: byFields(gw.CreateTag),
			Update: byIDFields(gw.UpdateTag),
			Delete: gw.DeleteTag,
		}, logger),
	}
}

// UserGateway 用户 Store 消费的网关操作子集
type UserGateway interface {
	ListUsers(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.User, domain.Pagination, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, fields domain.Fields) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, fields domain.Fields) (*domain.User, error)
	DeactivateUser(ctx context.Context, userID string) (*domain.User, error)
}

// UserStore 用户集合 Store
// 用户不做硬删除：Delete 未绑定，去激活走 Deactivate。
type UserStore struct {
	*Store[domain.User]
	gw UserGateway
}

// NewUserStore 创建用户 Store
func NewUserStore(gw UserGateway, logger *zap.Logger) *UserStore {
	return &UserStore{
		Store: New[domain.User]("users", Ops[domain.User]{
			ID:     func(u domain.User) string { return u.UserID },
			List:   gw.ListUsers,
			Get:    byID(gw.GetUser),
			Create: byFields(gw.CreateUser),
			Update: byIDFields(gw.UpdateUser),
		}, logger),
		gw: gw,
	}
}

// Deactivate 软删除用户（is_active=false），确认后原位替换缓存快照
func (s *UserStore) Deactivate(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.RunConfirm(ctx, func(ctx context.Context) (domain.User, error) {
		p, err := s.gw.DeactivateUser(ctx, userID)
		if err != nil {
			return domain.User{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TemplateGateway 模板 Store 消费的网关操作子集
type TemplateGateway interface {
	ListTemplates(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.DeviceTemplate, domain.Pagination, error)
}

// TemplateStore 设备模板集合 Store（只读）
type TemplateStore struct {
	*Store[domain.DeviceTemplate]
}

// NewTemplateStore 创建模板 Store
func NewTemplateStore(gw TemplateGateway, logger *zap.Logger) *TemplateStore {
	return &TemplateStore{
		Store: New[domain.DeviceTemplate]("device-templates", Ops[domain.DeviceTemplate]{
			ID:   func(t domain.DeviceTemplate) string { return t.TemplateID },
			List: gw.ListTemplates,
		}, logger),
	}
}
