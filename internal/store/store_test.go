package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"plantd-admin/internal/domain"
	"plantd-admin/internal/gateway"
	"plantd-admin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func device(id, name string) domain.Device {
	return domain.Device{DeviceID: id, PlantID: "plant-1", DeviceName: name, Status: domain.DeviceOnline}
}

func devices(ids ...string) []domain.Device {
	out := make([]domain.Device, 0, len(ids))
	for _, id := range ids {
		out = append(out, device(id, "Device "+id))
	}
	return out
}

// fixedOps 返回固定列表载荷的 Ops（按需覆盖单项操作）
func fixedOps(items []domain.Device, pg domain.Pagination) store.Ops[domain.Device] {
	return store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			return items, pg, nil
		},
	}
}

func TestFetchList_ReplacesCollectionWholesale(t *testing.T) {
	payloads := [][]domain.Device{
		devices("d1", "d2", "d3"),
		devices("d9", "d8"),
	}
	call := 0
	ops := store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			p := payloads[call]
			call++
			return p, domain.Pagination{Page: 1, Limit: 20, Total: len(p), TotalPages: 1}, nil
		},
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, s.Items(), 3)

	_, err = s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{Page: 1, Limit: 20})
	require.NoError(t, err)

	// 整体替换：不与上一页合并，顺序保持服务端顺序
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "d9", items[0].DeviceID)
	assert.Equal(t, "d8", items[1].DeviceID)
	assert.Equal(t, store.StatusReady, s.Status())
	assert.Equal(t, 2, s.Pagination().Total)
}

func TestFetchList_FailureKeepsPreviousCollection(t *testing.T) {
	call := 0
	ops := store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			call++
			if call == 1 {
				return devices("d1", "d2"), domain.Pagination{Page: 1, Limit: 20, Total: 2, TotalPages: 1}, nil
			}
			return nil, domain.Pagination{}, &gateway.Error{Kind: gateway.KindServerFailure, Message: "boom", HTTPStatus: 500}
		},
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)

	_, err = s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.Error(t, err)
	assert.Equal(t, gateway.KindServerFailure, gateway.KindOf(err))

	// 缓存保持失败前的状态，错误信息为面向用户的通用重试文案
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "d1", items[0].DeviceID)
	assert.Equal(t, store.StatusFailed, s.Status())
	assert.Equal(t, "The request could not be completed. Please try again.", s.Err())
}

func TestFetchList_ValidationMessageSurfaced(t *testing.T) {
	ops := store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			return nil, domain.Pagination{}, &gateway.Error{Kind: gateway.KindValidationFailed, Message: "invalid filter: severity"}
		},
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{"severity": "HUGE"}, domain.PageRequest{})
	require.Error(t, err)
	assert.Equal(t, "invalid filter: severity", s.Err())
}

func TestCreate_PrependsAndKeepsTotalConsistent(t *testing.T) {
	ops := fixedOps(devices("d1", "d2"), domain.Pagination{Page: 1, Limit: 2, Total: 2, TotalPages: 1})
	ops.Create = func(ctx context.Context, fields domain.Fields) (domain.Device, error) {
		return device("d-new", fields["device_name"].(string)), nil
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)

	created, err := s.Create(context.Background(), domain.Fields{"device_name": "Fresh"})
	require.NoError(t, err)
	assert.Equal(t, "d-new", created.DeviceID)

	// 最新优先：前插到头部，Total 同步 +1，TotalPages 随之一致
	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "d-new", items[0].DeviceID)
	assert.Equal(t, "d1", items[1].DeviceID)
	assert.Equal(t, 3, s.Pagination().Total)
	assert.Equal(t, 2, s.Pagination().TotalPages)
}

func TestCreate_PrependDoesNotSurviveRefetch(t *testing.T) {
	serverItems := devices("d1", "d2")
	ops := store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			return serverItems, domain.Pagination{Page: 1, Limit: 20, Total: len(serverItems), TotalPages: 1}, nil
		},
		Create: func(ctx context.Context, fields domain.Fields) (domain.Device, error) {
			return device("d-new", "Fresh"), nil
		},
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)
	_, err = s.Create(context.Background(), domain.Fields{})
	require.NoError(t, err)
	require.Len(t, s.Items(), 3)

	// 再次 FetchList：缓存完全由新载荷决定，前插的实体是否存在取决于服务端
	_, err = s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "d1", items[0].DeviceID)
	assert.Equal(t, "d2", items[1].DeviceID)
}

func TestUpdate_ReplacesInPlaceAtPosition(t *testing.T) {
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("d%d", i)
	}
	ops := fixedOps(devices(ids...), domain.Pagination{Page: 1, Limit: 10, Total: 10, TotalPages: 1})
	ops.Update = func(ctx context.Context, id string, fields domain.Fields) (domain.Device, error) {
		return device(id, "Renamed"), nil
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)
	s.SetCurrent(device("d4", "Device d4"))

	_, err = s.Update(context.Background(), "d4", domain.Fields{"device_name": "Renamed"})
	require.NoError(t, err)

	items := s.Items()
	require.Len(t, items, 10)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("d%d", i), it.DeviceID, "position %d must keep its identifier", i)
	}
	assert.Equal(t, "Renamed", items[4].DeviceName)
	assert.Equal(t, "Device d3", items[3].DeviceName)

	// Current Item 命中同一标识符时一并替换
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "Renamed", current.DeviceName)
}

func TestDelete_RemovesAndClearsCurrent(t *testing.T) {
	ops := fixedOps(devices("d1", "d2", "d3"), domain.Pagination{Page: 1, Limit: 20, Total: 3, TotalPages: 1})
	ops.Delete = func(ctx context.Context, id string) error { return nil }
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)
	s.SetCurrent(device("d2", "Device d2"))

	require.NoError(t, s.Delete(context.Background(), "d2"))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "d1", items[0].DeviceID)
	assert.Equal(t, "d3", items[1].DeviceID)
	assert.Equal(t, 2, s.Pagination().Total)

	_, ok := s.Current()
	assert.False(t, ok, "current item referencing the deleted entity must be cleared")

	// 幂等：对已不含该标识符的缓存重复删除是 no-op
	require.NoError(t, s.Delete(context.Background(), "d2"))
	assert.Len(t, s.Items(), 2)
	assert.Equal(t, 2, s.Pagination().Total)
}

func TestFetchOne_SetsCurrentWithoutTouchingCollection(t *testing.T) {
	ops := fixedOps(devices("d1", "d2"), domain.Pagination{Page: 1, Limit: 20, Total: 2, TotalPages: 1})
	ops.Get = func(ctx context.Context, id string) (domain.Device, error) {
		return device(id, "Detail "+id), nil
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)

	_, err = s.FetchOne(context.Background(), "d7")
	require.NoError(t, err)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "d7", current.DeviceID)
	assert.Len(t, s.Items(), 2, "collection must not be touched by FetchOne")
}

func TestFetchList_StaleResultDiscarded(t *testing.T) {
	oldPayload := devices("old-1", "old-2")
	newPayload := devices("new-1")

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	call := 0

	ops := store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			mu.Lock()
			n := call
			call++
			mu.Unlock()
			if n == 0 {
				close(entered)
				<-release
				return oldPayload, domain.Pagination{Page: 1, Limit: 20, Total: 2, TotalPages: 1}, nil
			}
			return newPayload, domain.Pagination{Page: 1, Limit: 20, Total: 1, TotalPages: 1}, nil
		},
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	done := make(chan []domain.Device, 1)
	go func() {
		items, _ := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
		done <- items
	}()
	<-entered

	// 第二次请求先落地
	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)

	// 放行第一次请求：其结果携带给调用方，但不得覆盖较新的缓存
	close(release)
	first := <-done
	require.Len(t, first, 2)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "new-1", items[0].DeviceID)
}

func TestSetFilters_DoesNotTriggerFetch(t *testing.T) {
	calls := 0
	ops := store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			calls++
			return nil, domain.Pagination{}, nil
		},
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	s.SetFilters(domain.Filters{"status": "ONLINE", "plant": ""})
	assert.Equal(t, 0, calls, "staging filters must not fetch")
	assert.Equal(t, "ONLINE", s.Filters()["status"])
}

func TestClearError_ResetsFailedState(t *testing.T) {
	ops := store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
		List: func(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
			return nil, domain.Pagination{}, &gateway.Error{Kind: gateway.KindNetworkFailure, Message: "dial tcp: refused"}
		},
	}
	s := store.New[domain.Device]("devices", ops, zap.NewNop())

	_, err := s.FetchList(context.Background(), domain.Filters{}, domain.PageRequest{})
	require.Error(t, err)
	require.NotEmpty(t, s.Err())

	s.ClearError()
	assert.Empty(t, s.Err())
	assert.Equal(t, store.StatusReady, s.Status())
}

func TestUnboundOperationReturnsErrUnsupported(t *testing.T) {
	s := store.New[domain.Device]("devices", store.Ops[domain.Device]{
		ID: func(d domain.Device) string { return d.DeviceID },
	}, zap.NewNop())

	_, err := s.Create(context.Background(), domain.Fields{})
	assert.ErrorIs(t, err, store.ErrUnsupported)
}
