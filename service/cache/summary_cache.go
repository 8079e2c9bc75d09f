/*
 * @module service/cache/summary_cache
 * @description 运行摘要缓存，按流水线缓存最近一次运行摘要供看板快速读取
 * @architecture 适配器模式 - 封装Redis客户端，提供摘要读写接口
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 运行完成 -> 摘要写入缓存 -> 看板读取 -> 过期自动淘汰
 * @rules 缓存只是读取加速层，未命中时回源数据库；写失败不影响运行结果
 * @dependencies github.com/go-redis/redis/v8, encoding/json
 * @refs service/governance/governance_service.go
 */

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"governance-service/service/models"

	"github.com/go-redis/redis/v8"
)

// 缓存键前缀
const summaryKeyPrefix = "governance:summary:"

// SummaryCache 最近运行摘要缓存
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache 创建摘要缓存，ttl为0时使用默认24小时
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// SetLatest 写入流水线的最近运行摘要
func (c *SummaryCache) SetLatest(ctx context.Context, pipeline string, summary *models.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("序列化摘要失败: %w", err)
	}
	if err := c.client.Set(ctx, summaryKeyPrefix+pipeline, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入摘要缓存失败: %w", err)
	}
	return nil
}

// GetLatest 读取流水线的最近运行摘要，未命中返回nil
func (c *SummaryCache) GetLatest(ctx context.Context, pipeline string) (*models.RunSummary, error) {
	payload, err := c.client.Get(ctx, summaryKeyPrefix+pipeline).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取摘要缓存失败: %w", err)
	}

	var summary models.RunSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("反序列化摘要失败: %w", err)
	}
	return &summary, nil
}
