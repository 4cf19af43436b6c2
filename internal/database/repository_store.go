package database

import (
	"errors"

	"gitcloner/internal/models"

	"gorm.io/gorm"
)

// GormRepositoryStore 基于gorm的仓库记录存储，
// 实现services.RepositoryStore与services.SyncLogStore
type GormRepositoryStore struct {
	db *gorm.DB
}

// NewGormRepositoryStore 创建仓库存储
func NewGormRepositoryStore(db *gorm.DB) *GormRepositoryStore {
	return &GormRepositoryStore{db: db}
}

// Get 按ID查询，不存在时返回nil
func (s *GormRepositoryStore) Get(id uint) (*models.Repository, error) {
	var repo models.Repository
	if err := s.db.First(&repo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &repo, nil
}

// FindByURL 按远程地址查询，不存在时返回nil
func (s *GormRepositoryStore) FindByURL(url string) (*models.Repository, error) {
	var repo models.Repository
	if err := s.db.Where("url = ?", url).First(&repo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &repo, nil
}

// List 分页查询仓库列表，limit<=0时返回全部
func (s *GormRepositoryStore) List(offset, limit int) ([]models.Repository, int64, error) {
	var total int64
	if err := s.db.Model(&models.Repository{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.db.Order("created_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var repos []models.Repository
	if err := query.Find(&repos).Error; err != nil {
		return nil, 0, err
	}
	return repos, total, nil
}

// Upsert 写入仓库记录（新记录插入，已有记录整行更新）
func (s *GormRepositoryStore) Upsert(repo *models.Repository) error {
	if repo.ID == 0 {
		return s.db.Create(repo).Error
	}
	return s.db.Save(repo).Error
}

// Delete 删除仓库记录，不触碰工作副本
func (s *GormRepositoryStore) Delete(id uint) error {
	return s.db.Delete(&models.Repository{}, id).Error
}

// AppendLog 追加一条同步日志
func (s *GormRepositoryStore) AppendLog(log *models.SyncLog) error {
	return s.db.Create(log).Error
}

// ListLogs 分页查询某仓库的同步日志
func (s *GormRepositoryStore) ListLogs(repositoryID uint, offset, limit int) ([]models.SyncLog, int64, error) {
	var total int64
	if err := s.db.Model(&models.SyncLog{}).Where("repository_id = ?", repositoryID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.SyncLog
	err := s.db.Where("repository_id = ?", repositoryID).
		Order("started_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
