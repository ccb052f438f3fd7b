// Package mqtt 设备状态推送通道
//
// 监控平台在 MQTT 主题上推送设备状态变更，订阅端把远端确认过的状态快照
// 套用到设备 Store。只做快照替换，不做本地推断。
package mqtt

import (
	"encoding/json"
	"fmt"

	"plantd-admin/internal/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// StatusApplier 状态快照的套用端（由设备 Store 实现）
type StatusApplier interface {
	ApplyStatus(deviceID string, status domain.DeviceStatus) bool
}

// Options MQTT 连接参数
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// statusMessage 状态推送消息格式
type statusMessage struct {
	DeviceID string `json:"device_id"`
	Status   string `json:"status"`
}

// StatusFeed 设备状态订阅端
type StatusFeed struct {
	client  mqtt.Client
	opts    Options
	applier StatusApplier
	logger  *zap.Logger
}

// NewStatusFeed 连接 Broker 并创建状态订阅端
func NewStatusFeed(opts Options, applier StatusApplier, logger *zap.Logger) (*StatusFeed, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(true)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &StatusFeed{
		client:  client,
		opts:    opts,
		applier: applier,
		logger:  logger,
	}, nil
}

// Start 订阅状态主题
func (f *StatusFeed) Start() error {
	token := f.client.Subscribe(f.opts.Topic, f.opts.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		f.handle(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", f.opts.Topic, token.Error())
	}
	f.logger.Info("Subscribed to device status feed", zap.String("topic", f.opts.Topic))
	return nil
}

// handle 解析并套用一条状态消息
func (f *StatusFeed) handle(topic string, payload []byte) {
	var msg statusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		f.logger.Warn("Invalid status message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}

	status := domain.DeviceStatus(msg.Status)
	if msg.DeviceID == "" || !status.Valid() {
		f.logger.Warn("Discarding malformed status message",
			zap.String("topic", topic),
			zap.String("device_id", msg.DeviceID),
			zap.String("status", msg.Status),
		)
		return
	}

	if applied := f.applier.ApplyStatus(msg.DeviceID, status); !applied {
		// 设备不在当前缓存窗口内：忽略，下次 FetchList 会带回最新状态
		f.logger.Debug("Status update for device outside cache window",
			zap.String("device_id", msg.DeviceID),
		)
		return
	}

	f.logger.Debug("Applied device status update",
		zap.String("device_id", msg.DeviceID),
		zap.String("status", msg.Status),
	)
}

// Stop 取消订阅并断开连接
func (f *StatusFeed) Stop() {
	if token := f.client.Unsubscribe(f.opts.Topic); token.Wait() && token.Error() != nil {
		f.logger.Warn("Failed to unsubscribe", zap.Error(token.Error()))
	}
	f.client.Disconnect(250)
}
