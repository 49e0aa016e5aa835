// Package main 提供数据库迁移管理的命令行工具
// 基于 go-migrate 库，支持向上迁移、向下迁移和版本查询
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jamthebest/Sales-web-page/internal/config"
	"github.com/jamthebest/Sales-web-page/internal/database"
	"github.com/jamthebest/Sales-web-page/internal/logger"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, status")
		steps  = flag.Int("steps", 1, "Number of steps for down migration")
	)
	flag.Parse()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 初始化日志
	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	// 连接数据库
	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database", "error", err)
		}
	}()

	migrationsDir := cfg.Migrations.Dir

	switch *action {
	case "up":
		lg.Info("running up migrations...")
		if err := db.RunMigrations(migrationsDir); err != nil {
			lg.Sugar().Fatalw("failed to run up migrations", "error", err)
		}
		lg.Info("up migrations completed successfully")

	case "down":
		lg.Sugar().Infow("running down migrations", "steps", *steps)
		if err := db.MigrateDown(migrationsDir, *steps); err != nil {
			lg.Sugar().Fatalw("failed to run down migrations", "error", err)
		}
		lg.Info("down migrations completed successfully")

	case "status":
		version, dirty, err := db.MigrationVersion(migrationsDir)
		if err != nil {
			lg.Sugar().Fatalw("failed to read migration version", "error", err)
		}
		lg.Sugar().Infow("migration status", "version", version, "dirty", dirty)

	default:
		fmt.Printf("Usage: %s -action=[up|down|status] [options]\n", os.Args[0])
		fmt.Println("Options:")
		fmt.Println("  -action string")
		fmt.Println("        Migration action: up, down, status (default \"up\")")
		fmt.Println("  -steps int")
		fmt.Println("        Number of steps for down migration (default 1)")
		os.Exit(1)
	}
}
