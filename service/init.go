/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移和治理相关服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 进程级装配只建立连接和服务实例；治理规则配置逐次运行传入，不在此缓存
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, github.com/go-redis/redis/v8
 * @refs service/governance/governance_service.go
 */

package service

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"governance-service/service/cache"
	"governance-service/service/event"
	"governance-service/service/governance"
	"governance-service/service/loader"
	"governance-service/service/models"
	"governance-service/service/monitoring"
	"governance-service/service/scheduler"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                      *gorm.DB
	GlobalGovernanceService *governance.Service
	GlobalSchedulerService  *scheduler.SchedulerService
	GlobalMetricsCollector  *monitoring.MetricsCollector
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := DB.AutoMigrate(&models.GovernanceRunRecord{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	log.Println("数据库表结构迁移完成")
}

// initServices 初始化服务
func initServices() {
	GlobalMetricsCollector = monitoring.NewMetricsCollector()

	dataSchema := getEnvWithDefault("DATA_SCHEMA", "")
	GlobalGovernanceService = governance.NewService(DB, loader.NewDBLoader(DB, dataSchema)).
		WithMetrics(GlobalMetricsCollector)

	// 摘要缓存按需启用
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		GlobalGovernanceService.WithCache(cache.NewSummaryCache(client, 24*time.Hour))
		log.Println("摘要缓存已启用")
	}

	// 运行事件发布按需启用
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := getEnvWithDefault("KAFKA_RUN_TOPIC", "governance-run-events")
		GlobalGovernanceService.WithPublisher(event.NewPublisher(strings.Split(brokers, ","), topic))
		log.Println("运行事件发布已启用")
	}

	GlobalSchedulerService = scheduler.NewSchedulerService(GlobalGovernanceService, 10*time.Minute)
	GlobalSchedulerService.Start()

	log.Println("服务初始化完成")
}
