/*
 * @module service/event/publisher
 * @description 治理运行事件发布器，向Kafka发布运行完成事件供下游告警消费
 * @architecture 适配器模式 - 封装第三方Kafka客户端，提供统一的发布接口
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 运行完成 -> 事件构建 -> Kafka写入
 * @rules 事件发布是边界输出，发布失败记录日志但不改变运行结果
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/governance/governance_service.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"governance-service/service/models"

	"github.com/segmentio/kafka-go"
)

// RunCompletedEvent 运行完成事件载荷
type RunCompletedEvent struct {
	RunID          string `json:"run_id"`
	Pipeline       string `json:"pipeline"`
	OverallStatus  string `json:"overall_status"`
	ViolationCount int    `json:"violation_count"`
	Timestamp      string `json:"timestamp"`
}

// Publisher 治理运行事件发布器
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher 创建事件发布器
func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	return &Publisher{writer: writer}
}

// PublishRunCompleted 发布运行完成事件
func (p *Publisher) PublishRunCompleted(ctx context.Context, pipeline string, summary *models.RunSummary) error {
	payload, err := json.Marshal(RunCompletedEvent{
		RunID:          summary.RunID,
		Pipeline:       pipeline,
		OverallStatus:  summary.OverallStatus,
		ViolationCount: len(summary.Violations),
		Timestamp:      summary.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("序列化运行事件失败: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(summary.RunID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("发布运行事件失败: %w", err)
	}
	return nil
}

// Close 关闭底层写入器
func (p *Publisher) Close() error {
	return p.writer.Close()
}
