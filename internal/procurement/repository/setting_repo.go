package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	settingCachePrefix = "procurement:setting:"
	settingCacheTTL    = 10 * time.Minute
)

// SettingRepository 系统设置仓库,读路径带Redis缓存。
// rdb 可以为nil(测试环境),此时直接读库
type SettingRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewSettingRepository(db *gorm.DB, rdb *redis.Client) *SettingRepository {
	return &SettingRepository{db: db, rdb: rdb}
}

// Get 读取设置值,未配置时返回 ErrNotFound
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	if r.rdb != nil {
		if cached, err := r.rdb.Get(ctx, settingCachePrefix+key).Result(); err == nil {
			return cached, nil
		}
	}

	var setting entity.Setting
	err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if r.rdb != nil {
		r.rdb.Set(ctx, settingCachePrefix+key, setting.Value, settingCacheTTL)
	}
	return setting.Value, nil
}

// Set 写入设置并使缓存失效
func (r *SettingRepository) Set(ctx context.Context, key, value, updatedBy string) error {
	setting := entity.Setting{
		Key:       key,
		Value:     value,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Save(&setting).Error
	if err != nil {
		return err
	}

	if r.rdb != nil {
		r.rdb.Del(ctx, settingCachePrefix+key)
	}
	return nil
}

// ApprovalThreshold 返回总经理审批限额;未配置或不可解析时返回兜底值
func (r *SettingRepository) ApprovalThreshold(ctx context.Context) float64 {
	value, err := r.Get(ctx, entity.SettingApprovalThreshold)
	if err != nil {
		return entity.DefaultApprovalThreshold
	}
	threshold, err := strconv.ParseFloat(value, 64)
	if err != nil || threshold <= 0 {
		return entity.DefaultApprovalThreshold
	}
	return threshold
}
