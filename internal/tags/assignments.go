// Package tags 设备-标签绑定子系统
//
// 维护设备与标签的多对多关系。绑定实例由 (deviceId, tagId) 对唯一确定；
// 客户端不做重复对预检，重复拒绝（如有）是远端的契约。
package tags

import (
	"context"
	"sync"

	"plantd-admin/internal/domain"

	"go.uber.org/zap"
)

// Gateway 绑定子系统消费的网关操作子集
type Gateway interface {
	AssignTag(ctx context.Context, deviceID, tagID, mqttPath string) (*domain.TagAssignment, error)
	UnassignTag(ctx context.Context, deviceID, tagID string) error
	ListAssignments(ctx context.Context, deviceID string) ([]domain.TagAssignment, error)
}

// Assignments 设备标签绑定集合
type Assignments struct {
	gw     Gateway
	logger *zap.Logger

	mu       sync.RWMutex
	byDevice map[string][]domain.TagAssignment
}

// NewAssignments 创建绑定子系统
func NewAssignments(gw Gateway, logger *zap.Logger) *Assignments {
	return &Assignments{
		gw:       gw,
		logger:   logger,
		byDevice: make(map[string][]domain.TagAssignment),
	}
}

// Load 拉取某设备的绑定集合并整体替换本地缓存
func (a *Assignments) Load(ctx context.Context, deviceID string) ([]domain.TagAssignment, error) {
	list, err := a.gw.ListAssignments(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.byDevice[deviceID] = list
	a.mu.Unlock()
	return a.ForDevice(deviceID), nil
}

// Assign 绑定标签到设备（含 MQTT 路径），网关确认后追加到绑定集合
func (a *Assignments) Assign(ctx context.Context, deviceID, tagID, mqttPath string) (*domain.TagAssignment, error) {
	rec, err := a.gw.AssignTag(ctx, deviceID, tagID, mqttPath)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.byDevice[deviceID] = append(a.byDevice[deviceID], *rec)
	a.mu.Unlock()

	a.logger.Info("Tag assigned to device",
		zap.String("device_id", deviceID),
		zap.String("tag_id", tagID),
		zap.String("mqtt_path", mqttPath),
	)
	return rec, nil
}

// Remove 解除绑定，确认后按 (deviceId, tagId) 精确对过滤本地集合
// 不相关的绑定保持原样。集合中本就不存在该对时为 no-op。
func (a *Assignments) Remove(ctx context.Context, deviceID, tagID string) error {
	if err := a.gw.UnassignTag(ctx, deviceID, tagID); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	existing := a.byDevice[deviceID]
	kept := existing[:0:0]
	for _, rec := range existing {
		if rec.DeviceID == deviceID && rec.TagID == tagID {
			continue
		}
		kept = append(kept, rec)
	}
	a.byDevice[deviceID] = kept

	a.logger.Info("Tag removed from device",
		zap.String("device_id", deviceID),
		zap.String("tag_id", tagID),
	)
	return nil
}

// ForDevice 返回某设备绑定集合的副本
func (a *Assignments) ForDevice(deviceID string) []domain.TagAssignment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	src := a.byDevice[deviceID]
	out := make([]domain.TagAssignment, len(src))
	copy(out, src)
	return out
}
