package main

import (
	"fmt"
	"os"

	"gitcloner/internal/database"
	"gitcloner/internal/services"
	"gitcloner/pkg/config"
)

// gitc GitCloner管理工具：维护操作员账户
func main() {
	args := os.Args
	if len(args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.Initialize(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "连接数据库失败: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "数据库迁移失败: %v\n", err)
		os.Exit(1)
	}

	userService := services.NewUserService(database.GetDB())

	switch args[1] {
	case "add":
		if len(args) != 4 {
			fmt.Fprintf(os.Stderr, "用法: %s add <username> <password>\n", args[0])
			os.Exit(1)
		}
		addUser(userService, args[2], args[3])
	case "remove":
		if len(args) != 3 {
			fmt.Fprintf(os.Stderr, "用法: %s remove <username>\n", args[0])
			os.Exit(1)
		}
		removeUser(userService, args[2])
	case "update":
		if len(args) != 4 {
			fmt.Fprintf(os.Stderr, "用法: %s update <username> <new_password>\n", args[0])
			os.Exit(1)
		}
		updatePassword(userService, args[2], args[3])
	case "list":
		listUsers(userService)
	default:
		fmt.Fprintf(os.Stderr, "未知命令: %s\n", args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("GitCloner 管理工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("    gitc add <username> <password>     - 创建或更新用户")
	fmt.Println("    gitc remove <username>             - 删除用户")
	fmt.Println("    gitc update <username> <password>  - 更新用户密码")
	fmt.Println("    gitc list                          - 列出全部用户")
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("    DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME - 数据库连接（支持.env）")
}

func addUser(userService *services.UserService, username, password string) {
	if _, err := userService.EnsureUser(username, password); err != nil {
		fmt.Fprintf(os.Stderr, "创建用户 %s 失败: %v\n", username, err)
		os.Exit(1)
	}
	fmt.Printf("用户 %s 创建/更新成功\n", username)
}

func removeUser(userService *services.UserService, username string) {
	found, err := userService.DeleteByUsername(username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "删除用户 %s 失败: %v\n", username, err)
		os.Exit(1)
	}
	if !found {
		fmt.Printf("用户 %s 不存在\n", username)
		return
	}
	fmt.Printf("用户 %s 已删除\n", username)
}

func updatePassword(userService *services.UserService, username, password string) {
	// update要求用户已存在，与add区分开
	if _, err := userService.GetByUsername(username); err != nil {
		fmt.Fprintf(os.Stderr, "用户 %s 不存在，请先用 add %s <password> 创建\n", username, username)
		os.Exit(1)
	}
	if _, err := userService.EnsureUser(username, password); err != nil {
		fmt.Fprintf(os.Stderr, "更新用户 %s 密码失败: %v\n", username, err)
		os.Exit(1)
	}
	fmt.Printf("用户 %s 密码已更新\n", username)
}

func listUsers(userService *services.UserService) {
	users, err := userService.ListAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询用户失败: %v\n", err)
		os.Exit(1)
	}
	if len(users) == 0 {
		fmt.Println("暂无用户")
		return
	}

	fmt.Println("用户列表:")
	for _, user := range users {
		fmt.Printf("  %s (状态: %s, 创建于: %s)\n",
			user.Username, user.Status, user.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
