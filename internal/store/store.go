package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"plantd-admin/internal/domain"
	"plantd-admin/internal/gateway"

	"go.uber.org/zap"
)

// Status 实体类型的同步状态：Idle → Loading → {Ready, Failed}，可重入
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

// String 返回状态名称（用于日志）
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// ErrUnsupported 该实体类型未绑定此操作
var ErrUnsupported = errors.New("store: operation not supported")

// Ops 将泛型 Store 绑定到网关的类型化操作
// 未绑定的操作保持 nil，调用时返回 ErrUnsupported
type Ops[T any] struct {
	ID     func(T) string
	List   func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]T, domain.Pagination, error)
	Get    func(ctx context.Context, id string) (T, error)
	Create func(ctx context.Context, fields domain.Fields) (T, error)
	Update func(ctx context.Context, id string, fields domain.Fields) (T, error)
	Delete func(ctx context.Context, id string) error
}

// Store 单一实体类型的资源同步状态
// 持有缓存集合、分页、过滤条件和 Current Item。缓存只在网关确认后更新，
// 不做乐观本地变更。失败时保留原缓存，仅记录错误信息。
//
// 并发：所有公开方法线程安全。并发 FetchList 通过代数（generation）守卫，
// 过期响应不会覆盖较新结果。
type Store[T any] struct {
	name   string
	ops    Ops[T]
	logger *zap.Logger

	mu         sync.RWMutex
	items      []T
	pagination domain.Pagination
	filters    domain.Filters
	current    T
	hasCurrent bool
	status     Status
	errMsg     string

	nextGen    uint64
	appliedGen uint64
}

// New 创建资源 Store
func New[T any](name string, ops Ops[T], logger *zap.Logger) *Store[T] {
	if ops.ID == nil {
		panic("store: Ops.ID is required")
	}
	return &Store[T]{
		name:    name,
		ops:     ops,
		filters: make(domain.Filters),
		logger:  logger,
	}
}

// FetchList 拉取列表并整体替换缓存集合与分页（不与上一页合并）
// 失败时保留原集合，记录错误并置 Failed；调用自身的返回值携带本次载荷。
func (s *Store[T]) FetchList(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]T, error) {
	if s.ops.List == nil {
		return nil, fmt.Errorf("%s: %w", s.name, ErrUnsupported)
	}

	s.mu.Lock()
	s.status = StatusLoading
	s.filters = filters.Clone()
	s.nextGen++
	gen := s.nextGen
	s.mu.Unlock()

	items, pg, err := s.ops.List(ctx, filters, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(err)
		return nil, err
	}

	if gen < s.appliedGen {
		// 过期响应：更新的结果已经落地，丢弃本次结果（不覆盖缓存）
		s.logger.Debug("Discarding stale list result",
			zap.String("resource", s.name),
			zap.Uint64("generation", gen),
			zap.Uint64("applied_generation", s.appliedGen),
		)
		return items, nil
	}

	s.appliedGen = gen
	s.items = items
	s.pagination = pg
	s.status = StatusReady
	s.errMsg = ""
	return items, nil
}

// FetchOne 拉取单个实体并设置 Current Item，不触碰集合缓存
func (s *Store[T]) FetchOne(ctx context.Context, id string) (T, error) {
	var zero T
	if s.ops.Get == nil {
		return zero, fmt.Errorf("%s: %w", s.name, ErrUnsupported)
	}

	s.setLoading()

	item, err := s.ops.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(err)
		return zero, err
	}
	s.current = item
	s.hasCurrent = true
	s.status = StatusReady
	s.errMsg = ""
	return item, nil
}

// Create 创建实体，确认后前插到集合头部（最新优先的展示约定）
// Total 随前插同步 +1，保持分页记录一致，直到下一次 FetchList 整体替换。
func (s *Store[T]) Create(ctx context.Context, fields domain.Fields) (T, error) {
	var zero T
	if s.ops.Create == nil {
		return zero, fmt.Errorf("%s: %w", s.name, ErrUnsupported)
	}

	s.setLoading()

	item, err := s.ops.Create(ctx, fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(err)
		return zero, err
	}
	s.items = append([]T{item}, s.items...)
	s.pagination.Total++
	if s.pagination.Limit > 0 {
		s.pagination.TotalPages = (s.pagination.Total + s.pagination.Limit - 1) / s.pagination.Limit
	}
	s.status = StatusReady
	s.errMsg = ""
	return item, nil
}

// Update 更新实体，确认后按标识符在原位置替换集合元素，
// Current Item 命中同一标识符时一并替换
func (s *Store[T]) Update(ctx context.Context, id string, fields domain.Fields) (T, error) {
	var zero T
	if s.ops.Update == nil {
		return zero, fmt.Errorf("%s: %w", s.name, ErrUnsupported)
	}

	s.setLoading()

	item, err := s.ops.Update(ctx, id, fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(err)
		return zero, err
	}
	s.replaceLocked(id, item)
	s.status = StatusReady
	s.errMsg = ""
	return item, nil
}

// Delete 删除实体，确认后按标识符从集合中过滤移除（重复删除为 no-op）
// Current Item 指向被删实体时自动清空，调用方无需自行清理。
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if s.ops.Delete == nil {
		return fmt.Errorf("%s: %w", s.name, ErrUnsupported)
	}

	s.setLoading()

	err := s.ops.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(err)
		return err
	}
	kept := s.items[:0:0]
	for _, it := range s.items {
		if s.ops.ID(it) != id {
			kept = append(kept, it)
		}
	}
	removed := len(kept) != len(s.items)
	s.items = kept
	if removed && s.pagination.Total > 0 {
		s.pagination.Total--
		if s.pagination.Limit > 0 {
			s.pagination.TotalPages = (s.pagination.Total + s.pagination.Limit - 1) / s.pagination.Limit
		}
	}
	if s.hasCurrent && s.ops.ID(s.current) == id {
		var zero T
		s.current = zero
		s.hasCurrent = false
	}
	s.status = StatusReady
	s.errMsg = ""
	return nil
}

// RunConfirm 执行一个返回实体快照的网关操作并将确认结果合并进缓存
// 走与内置操作相同的状态机：Loading → Ready/Failed，失败保留原缓存。
// 报警确认/解决、用户去激活等领域操作经由此路径。
func (s *Store[T]) RunConfirm(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	s.setLoading()

	item, err := op(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(err)
		var zero T
		return zero, err
	}
	s.replaceLocked(s.ops.ID(item), item)
	s.status = StatusReady
	s.errMsg = ""
	return item, nil
}

// ApplyConfirmed 将远端确认过的实体快照合并进缓存（推送通道等旁路确认使用）
// 标识符命中集合或 Current Item 时原位替换，返回是否命中。
func (s *Store[T]) ApplyConfirmed(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(s.ops.ID(item), item)
}

// Find 按标识符在缓存集合中查找快照
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if s.ops.ID(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// SetFilters 暂存过滤条件，不触发拉取（由调用方决定何时重新拉取）
func (s *Store[T]) SetFilters(filters domain.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters.Clone()
}

// SetPagination 暂存分页，不触发拉取
func (s *Store[T]) SetPagination(p domain.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagination = p
}

// Items 返回缓存集合的副本（顺序为服务端顺序，不在客户端重排）
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Pagination 返回当前分页记录
func (s *Store[T]) Pagination() domain.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// Filters 返回当前过滤条件的副本
func (s *Store[T]) Filters() domain.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

// Current 返回 Current Item
func (s *Store[T]) Current() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.hasCurrent
}

// SetCurrent 直接设置 Current Item（详情页进入时使用已有快照）
func (s *Store[T]) SetCurrent(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = item
	s.hasCurrent = true
}

// ClearCurrent 清空 Current Item
func (s *Store[T]) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.current = zero
	s.hasCurrent = false
}

// Status 返回同步状态
func (s *Store[T]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err 返回最近一次失败的提示信息，空串表示无错误
// 信息保留到被显式清除或被下一次操作结果取代。
func (s *Store[T]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearError 显式清除错误信息
func (s *Store[T]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	if s.status == StatusFailed {
		s.status = StatusReady
	}
}

// replaceLocked 按标识符原位替换，需持有写锁
func (s *Store[T]) replaceLocked(id string, item T) bool {
	hit := false
	for i := range s.items {
		if s.ops.ID(s.items[i]) == id {
			s.items[i] = item
			hit = true
			break
		}
	}
	if s.hasCurrent && s.ops.ID(s.current) == id {
		s.current = item
		hit = true
	}
	return hit
}

func (s *Store[T]) setLoading() {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()
}

// fail 记录失败并保留原缓存，需持有写锁
func (s *Store[T]) fail(err error) {
	s.status = StatusFailed
	s.errMsg = humanMessage(err)
	s.logger.Warn("Store operation failed",
		zap.String("resource", s.name),
		zap.String("kind", gateway.KindOf(err).String()),
		zap.Error(err),
	)
}

// humanMessage 将网关错误转为面向用户的提示信息
// 网络/服务端失败统一用建议重试的通用文案，不自动重试。
func humanMessage(err error) string {
	var ge *gateway.Error
	if errors.As(err, &ge) {
		switch ge.Kind {
		case gateway.KindNetworkFailure, gateway.KindServerFailure:
			return "The request could not be completed. Please try again."
		default:
			if ge.Message != "" {
				return ge.Message
			}
		}
	}
	return err.Error()
}
