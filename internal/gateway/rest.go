package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"plantd-admin/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// result 与后端统一响应信封保持一致
// - code: 2000 = success
// - type: 'success' | 'error' | 'warning'
type result struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

const resultSuccess = 2000

// listPayload 列表响应载荷（集合 + 分页）
type listPayload[T any] struct {
	Items      []T               `json:"items"`
	Pagination domain.Pagination `json:"pagination"`
}

// RestGateway Gateway 的 REST 实现
type RestGateway struct {
	http   *resty.Client
	logger *zap.Logger
}

var _ Gateway = (*RestGateway)(nil)

// NewRestGateway 创建 REST 网关客户端
// 重试次数固定为 0：失败分类直接上交调用方，本层不做重试
func NewRestGateway(baseURL, authToken string, timeout time.Duration, logger *zap.Logger) *RestGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if authToken != "" {
		client.SetAuthToken(authToken)
	}

	return &RestGateway{
		http:   client,
		logger: logger,
	}
}

// do 执行一次远端调用并解析统一信封，返回 result 载荷
func (g *RestGateway) do(ctx context.Context, method, path string, query map[string]string, body any) (json.RawMessage, error) {
	reqID := uuid.NewString()
	req := g.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	var envelope result
	req.SetResult(&envelope).SetError(&envelope)

	resp, err := req.Execute(method, path)
	if err != nil {
		g.logger.Error("Gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindNetworkFailure, Message: err.Error()}
	}

	if resp.IsError() {
		kind := classify(resp.StatusCode())
		msg := envelope.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		g.logger.Warn("Gateway returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("kind", kind.String()),
			zap.String("message", msg),
		)
		return nil, &Error{Kind: kind, Message: msg, HTTPStatus: resp.StatusCode()}
	}

	// 2xx 但业务码非 2000：按调用方可纠正的校验失败处理
	if envelope.Code != resultSuccess {
		return nil, &Error{Kind: KindValidationFailed, Message: envelope.Message, HTTPStatus: resp.StatusCode()}
	}

	return envelope.Result, nil
}

// listQuery 构建列表查询参数（过滤条件 + 分页）
func listQuery(filters domain.Filters, page domain.PageRequest) map[string]string {
	q := make(map[string]string)
	for k, v := range filters.Active() {
		q[k] = v
	}
	if page.Page > 0 {
		q["page"] = strconv.Itoa(page.Page)
	}
	if page.Limit > 0 {
		q["limit"] = strconv.Itoa(page.Limit)
	}
	return q
}

func doList[T any](g *RestGateway, ctx context.Context, path string, filters domain.Filters, page domain.PageRequest) ([]T, domain.Pagination, error) {
	raw, err := g.do(ctx, http.MethodGet, path, listQuery(filters, page), nil)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	var payload listPayload[T]
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.Pagination{}, &Error{Kind: KindServerFailure, Message: fmt.Sprintf("decode list payload: %v", err)}
	}
	return payload.Items, payload.Pagination, nil
}

func doOne[T any](g *RestGateway, ctx context.Context, method, path string, body any) (*T, error) {
	raw, err := g.do(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Kind: KindServerFailure, Message: fmt.Sprintf("decode payload: %v", err)}
	}
	return &out, nil
}

func doSlice[T any](g *RestGateway, ctx context.Context, path string) ([]T, error) {
	raw, err := g.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Kind: KindServerFailure, Message: fmt.Sprintf("decode payload: %v", err)}
	}
	return out, nil
}

// ============================================
// 设备
// ============================================

func (g *RestGateway) ListDevices(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Device, domain.Pagination, error) {
	return doList[domain.Device](g, ctx, "/api/v1/devices", filters, page)
}

func (g *RestGateway) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	return doOne[domain.Device](g, ctx, http.MethodGet, "/api/v1/devices/"+deviceID, nil)
}

func (g *RestGateway) CreateDevice(ctx context.Context, fields domain.Fields) (*domain.Device, error) {
	return doOne[domain.Device](g, ctx, http.MethodPost, "/api/v1/devices", fields)
}

func (g *RestGateway) CreateDeviceFromTemplate(ctx context.Context, req ProvisionRequest) (*domain.Device, error) {
	return doOne[domain.Device](g, ctx, http.MethodPost, "/api/v1/devices/from-template", req)
}

func (g *RestGateway) UpdateDevice(ctx context.Context, deviceID string, fields domain.Fields) (*domain.Device, error) {
	return doOne[domain.Device](g, ctx, http.MethodPatch, "/api/v1/devices/"+deviceID, fields)
}

func (g *RestGateway) DeleteDevice(ctx context.Context, deviceID string) error {
	_, err := g.do(ctx, http.MethodDelete, "/api/v1/devices/"+deviceID, nil, nil)
	return err
}

// ============================================
// 设备模板
// ============================================

func (g *RestGateway) ListTemplates(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.DeviceTemplate, domain.Pagination, error) {
	return doList[domain.DeviceTemplate](g, ctx, "/api/v1/device-templates", filters, page)
}

// ============================================
// 标签与绑定
// ============================================

func (g *RestGateway) ListTags(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Tag, domain.Pagination, error) {
	return doList[domain.Tag](g, ctx, "/api/v1/tags", filters, page)
}

func (g *RestGateway) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	return doOne[domain.Tag](g, ctx, http.MethodGet, "/api/v1/tags/"+tagID, nil)
}

func (g *RestGateway) CreateTag(ctx context.Context, fields domain.Fields) (*domain.Tag, error) {
	return doOne[domain.Tag](g, ctx, http.MethodPost, "/api/v1/tags", fields)
}

func (g *RestGateway) UpdateTag(ctx context.Context, tagID string, fields domain.Fields) (*domain.Tag, error) {
	return doOne[domain.Tag](g, ctx, http.MethodPatch, "/api/v1/tags/"+tagID, fields)
}

func (g *RestGateway) DeleteTag(ctx context.Context, tagID string) error {
	_, err := g.do(ctx, http.MethodDelete, "/api/v1/tags/"+tagID, nil, nil)
	return err
}

func (g *RestGateway) AssignTag(ctx context.Context, deviceID, tagID, mqttPath string) (*domain.TagAssignment, error) {
	body := map[string]string{
		"tag_id":    tagID,
		"mqtt_path": mqttPath,
	}
	return doOne[domain.TagAssignment](g, ctx, http.MethodPost, "/api/v1/devices/"+deviceID+"/tags", body)
}

func (g *RestGateway) UnassignTag(ctx context.Context, deviceID, tagID string) error {
	_, err := g.do(ctx, http.MethodDelete, "/api/v1/devices/"+deviceID+"/tags/"+tagID, nil, nil)
	return err
}

func (g *RestGateway) ListAssignments(ctx context.Context, deviceID string) ([]domain.TagAssignment, error) {
	return doSlice[domain.TagAssignment](g, ctx, "/api/v1/devices/"+deviceID+"/tags")
}

// ============================================
// 报警
// ============================================

func (g *RestGateway) ListAlarms(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.Alarm, domain.Pagination, error) {
	return doList[domain.Alarm](g, ctx, "/api/v1/alarms", filters, page)
}

func (g *RestGateway) GetAlarm(ctx context.Context, alarmID string) (*domain.Alarm, error) {
	return doOne[domain.Alarm](g, ctx, http.MethodGet, "/api/v1/alarms/"+alarmID, nil)
}

func (g *RestGateway) AcknowledgeAlarm(ctx context.Context, alarmID, note string) (*domain.Alarm, error) {
	body := map[string]string{"note": note}
	return doOne[domain.Alarm](g, ctx, http.MethodPost, "/api/v1/alarms/"+alarmID+"/acknowledge", body)
}

func (g *RestGateway) ResolveAlarm(ctx context.Context, alarmID, note string) (*domain.Alarm, error) {
	body := map[string]string{"note": note}
	return doOne[domain.Alarm](g, ctx, http.MethodPost, "/api/v1/alarms/"+alarmID+"/resolve", body)
}

func (g *RestGateway) GetAlarmStatistics(ctx context.Context, filters domain.Filters) (*domain.AlarmStatistics, error) {
	raw, err := g.do(ctx, http.MethodGet, "/api/v1/alarms/statistics", listQuery(filters, domain.PageRequest{}), nil)
	if err != nil {
		return nil, err
	}
	var stats domain.AlarmStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, &Error{Kind: KindServerFailure, Message: fmt.Sprintf("decode payload: %v", err)}
	}
	return &stats, nil
}

// ============================================
// 用户
// ============================================

func (g *RestGateway) ListUsers(ctx context.Context, filters domain.Filters, page domain.PageRequest) ([]domain.User, domain.Pagination, error) {
	return doList[domain.User](g, ctx, "/api/v1/users", filters, page)
}

func (g *RestGateway) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return doOne[domain.User](g, ctx, http.MethodGet, "/api/v1/users/"+userID, nil)
}

func (g *RestGateway) CreateUser(ctx context.Context, fields domain.Fields) (*domain.User, error) {
	return doOne[domain.User](g, ctx, http.MethodPost, "/api/v1/users", fields)
}

func (g *RestGateway) UpdateUser(ctx context.Context, userID string, fields domain.Fields) (*domain.User, error) {
	return doOne[domain.User](g, ctx, http.MethodPatch, "/api/v1/users/"+userID, fields)
}

func (g *RestGateway) DeactivateUser(ctx context.Context, userID string) (*domain.User, error) {
	return doOne[domain.User](g, ctx, http.MethodPost, "/api/v1/users/"+userID+"/deactivate", nil)
}
