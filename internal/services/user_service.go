package services

import (
	"errors"
	"time"

	"gitcloner/internal/models"

	"gorm.io/gorm"
)

// UserService 操作员账户服务
type UserService struct {
	db *gorm.DB
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByUsername 按用户名查询
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID 按ID查询
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin 更新最后登录时间
func (s *UserService) UpdateLastLogin(id uint) error {
	now := time.Now()
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("last_login_at", now).Error
}

// EnsureUser 创建或更新用户密码（gitc管理工具使用）
func (s *UserService) EnsureUser(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		if err := user.SetPassword(password); err != nil {
			return nil, err
		}
		if err := s.db.Save(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Username: username, Status: models.UserStatusActive}
		if err := user.SetPassword(password); err != nil {
			return nil, err
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	default:
		return nil, err
	}
}

// DeleteByUsername 删除用户，返回是否存在
func (s *UserService) DeleteByUsername(username string) (bool, error) {
	result := s.db.Where("username = ?", username).Delete(&models.User{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListAll 列出全部用户（gitc管理工具使用）
func (s *UserService) ListAll() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers 用户总数
func (s *UserService) CountUsers() (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
