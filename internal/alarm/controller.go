// Package alarm 报警生命周期控制器
//
// 在资源 Store 之上叠加报警状态机语义：OPEN → ACKNOWLEDGED → RESOLVED，单向推进。
// 控制器不在本地预判转移合法性：acknowledge/resolve 原样转发给网关，
// 远端是合法性的唯一权威，缓存只套用网关确认后的快照。
package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"plantd-admin/internal/domain"
	"plantd-admin/internal/store"

	"go.uber.org/zap"
)

// statsKey 统计聚合的缓存键
const statsKey = "plantd:alarms:statistics"

// Gateway 报警控制器消费的网关操作子集
type Gateway interface {
	ListAlarms(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Alarm, domain.Pagination, error)
	GetAlarm(ctx context.Context, alarmID string) (*domain.Alarm, error)
	AcknowledgeAlarm(ctx context.Context, alarmID, note string) (*domain.Alarm, error)
	ResolveAlarm(ctx context.Context, alarmID, note string) (*domain.Alarm, error)
	GetAlarmStatistics(ctx context.Context, filters domain.Filters) (*domain.AlarmStatistics, error)
}

// Controller 报警控制器
type Controller struct {
	*store.Store[domain.Alarm]

	gw       Gateway
	kv       store.KV
	statsTTL time.Duration
	logger   *zap.Logger
}

// NewController 创建报警控制器
// statsTTL 限定统计聚合的缓存寿命；统计只通过 RefreshStatistics 显式刷新，
// acknowledge/resolve 不会增量更新聚合。
func NewController(gw Gateway, kv store.KV, statsTTL time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		Store: store.New[domain.Alarm]("alarms", store.Ops[domain.Alarm]{
			ID:   func(a domain.Alarm) string { return a.AlarmID },
			List: gw.ListAlarms,
			Get: func(ctx context.Context, id string) (domain.Alarm, error) {
				p, err := gw.GetAlarm(ctx, id)
				if err != nil {
					return domain.Alarm{}, err
				}
				return *p, nil
			},
		}, logger),
		gw:       gw,
		kv:       kv,
		statsTTL: statsTTL,
		logger:   logger,
	}
}

// Acknowledge 确认报警（OPEN → ACKNOWLEDGED）
// 不做本地状态预校验，远端拒绝非法转移时缓存保持不变。
func (c *Controller) Acknowledge(ctx context.Context, alarmID, note string) (*domain.Alarm, error) {
	a, err := c.RunConfirm(ctx, func(ctx context.Context) (domain.Alarm, error) {
		p, err := c.gw.AcknowledgeAlarm(ctx, alarmID, note)
		if err != nil {
			return domain.Alarm{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("Alarm acknowledged",
		zap.String("alarm_id", alarmID),
		zap.String("status", string(a.Status)),
	)
	return &a, nil
}

// Resolve 解决报警（ACKNOWLEDGED → RESOLVED）
func (c *Controller) Resolve(ctx context.Context, alarmID, note string) (*domain.Alarm, error) {
	a, err := c.RunConfirm(ctx, func(ctx context.Context) (domain.Alarm, error) {
		p, err := c.gw.ResolveAlarm(ctx, alarmID, note)
		if err != nil {
			return domain.Alarm{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("Alarm resolved",
		zap.String("alarm_id", alarmID),
		zap.String("status", string(a.Status)),
	)
	return &a, nil
}

// RefreshStatistics 显式刷新统计聚合并写入缓存
func (c *Controller) RefreshStatistics(ctx context.Context, filters domain.Filters) (*domain.AlarmStatistics, error) {
	stats, err := c.gw.GetAlarmStatistics(ctx, filters)
	if err != nil {
		return nil, err
	}
	stats.FetchedAt = time.Now().UTC()

	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshal alarm statistics: %w", err)
	}
	if err := c.kv.Set(ctx, statsKey, string(raw), c.statsTTL); err != nil {
		// 缓存写失败不影响本次结果，下次读取会再走刷新
		c.logger.Warn("Failed to cache alarm statistics", zap.Error(err))
	}
	return stats, nil
}

// Statistics 读取缓存的统计聚合
// 未命中返回 store.ErrMiss；调用方不应假定聚合反映了最近的 acknowledge/resolve。
func (c *Controller) Statistics(ctx context.Context) (*domain.AlarmStatistics, error) {
	raw, err := c.kv.Get(ctx, statsKey)
	if err != nil {
		return nil, err
	}
	var stats domain.AlarmStatistics
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("unmarshal alarm statistics: %w", err)
	}
	return &stats, nil
}
