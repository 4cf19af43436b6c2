package main

import (
	"fmt"

	"gitcloner/internal/database"
	"gitcloner/internal/services"
	"gitcloner/pkg/config"
	"gitcloner/pkg/logger"
)

// seedAdmin 用户表为空时创建默认管理员。
// 未配置SEED_ADMIN_PASSWORD则跳过，用户通过gitc工具创建
func seedAdmin(cfg *config.Config) error {
	appLogger := logger.GetLogger()

	userService := services.NewUserService(database.GetDB())
	count, err := userService.CountUsers()
	if err != nil {
		return fmt.Errorf("查询用户数失败: %v", err)
	}
	if count > 0 {
		return nil
	}

	if cfg.Seed.AdminPassword == "" {
		appLogger.Warn("用户表为空且未配置SEED_ADMIN_PASSWORD，请用gitc工具创建用户")
		return nil
	}

	if _, err := userService.EnsureUser(cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	appLogger.Infof("已创建默认管理员用户 %s", cfg.Seed.AdminUsername)
	return nil
}
