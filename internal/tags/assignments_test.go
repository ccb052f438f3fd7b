package tags_test

import (
	"context"
	"testing"

	"plantd-admin/internal/domain"
	"plantd-admin/internal/gateway"
	"plantd-admin/internal/tags"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTagGateway 记录调用并无条件确认
type fakeTagGateway struct {
	assignCalls   int
	unassignCalls int
	assignErr     error
	unassignErr   error
	existing      map[string][]domain.TagAssignment
}

func (f *fakeTagGateway) AssignTag(ctx context.Context, deviceID, tagID, mqttPath string) (*domain.TagAssignment, error) {
	f.assignCalls++
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	return &domain.TagAssignment{DeviceID: deviceID, TagID: tagID, MQTTPath: mqttPath}, nil
}

func (f *fakeTagGateway) UnassignTag(ctx context.Context, deviceID, tagID string) error {
	f.unassignCalls++
	return f.unassignErr
}

func (f *fakeTagGateway) ListAssignments(ctx context.Context, deviceID string) ([]domain.TagAssignment, error) {
	return f.existing[deviceID], nil
}

func TestAssignThenRemove(t *testing.T) {
	gw := &fakeTagGateway{}
	a := tags.NewAssignments(gw, zap.NewNop())
	ctx := context.Background()

	_, err := a.Assign(ctx, "deviceA", "tag1", "topic/a")
	require.NoError(t, err)
	_, err = a.Assign(ctx, "deviceA", "tag2", "topic/b")
	require.NoError(t, err)
	_, err = a.Assign(ctx, "deviceB", "tag1", "topic/c")
	require.NoError(t, err)

	require.Len(t, a.ForDevice("deviceA"), 2)

	require.NoError(t, a.Remove(ctx, "deviceA", "tag1"))

	// 精确对 (deviceA, tag1) 被移除，不相关的绑定保持原样
	left := a.ForDevice("deviceA")
	require.Len(t, left, 1)
	assert.Equal(t, "tag2", left[0].TagID)
	assert.Equal(t, "topic/b", left[0].MQTTPath)

	other := a.ForDevice("deviceB")
	require.Len(t, other, 1)
	assert.Equal(t, "tag1", other[0].TagID)
}

func TestRemove_AbsentPairIsNoOp(t *testing.T) {
	gw := &fakeTagGateway{}
	a := tags.NewAssignments(gw, zap.NewNop())
	ctx := context.Background()

	_, err := a.Assign(ctx, "deviceA", "tag1", "topic/a")
	require.NoError(t, err)

	require.NoError(t, a.Remove(ctx, "deviceA", "tag-missing"))
	assert.Len(t, a.ForDevice("deviceA"), 1)
}

func TestAssign_NoLocalDuplicateCheck(t *testing.T) {
	gw := &fakeTagGateway{}
	a := tags.NewAssignments(gw, zap.NewNop())
	ctx := context.Background()

	// 重复对的拒绝是远端契约：客户端不做预检，照常转发
	_, err := a.Assign(ctx, "deviceA", "tag1", "topic/a")
	require.NoError(t, err)
	gw.assignErr = &gateway.Error{Kind: gateway.KindValidationFailed, Message: "assignment already exists"}
	_, err = a.Assign(ctx, "deviceA", "tag1", "topic/a")
	require.Error(t, err)
	assert.Equal(t, 2, gw.assignCalls)

	// 远端拒绝后本地集合不变
	assert.Len(t, a.ForDevice("deviceA"), 1)
}

func TestRemove_GatewayFailureKeepsSet(t *testing.T) {
	gw := &fakeTagGateway{}
	a := tags.NewAssignments(gw, zap.NewNop())
	ctx := context.Background()

	_, err := a.Assign(ctx, "deviceA", "tag1", "topic/a")
	require.NoError(t, err)

	gw.unassignErr = &gateway.Error{Kind: gateway.KindNetworkFailure, Message: "timeout"}
	require.Error(t, a.Remove(ctx, "deviceA", "tag1"))
	assert.Len(t, a.ForDevice("deviceA"), 1, "removal is applied only after confirmation")
}

func TestLoad_ReplacesLocalSet(t *testing.T) {
	gw := &fakeTagGateway{existing: map[string][]domain.TagAssignment{
		"deviceA": {
			{DeviceID: "deviceA", TagID: "tag1", MQTTPath: "topic/a"},
			{DeviceID: "deviceA", TagID: "tag2", MQTTPath: "topic/b"},
		},
	}}
	a := tags.NewAssignments(gw, zap.NewNop())

	list, err := a.Load(context.Background(), "deviceA")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Len(t, a.ForDevice("deviceA"), 2)
}
