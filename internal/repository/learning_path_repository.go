package repository

import (
	"errors"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"

	"gorm.io/gorm"
)

type LearningPathRepository struct {
	DB *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: db}
}

func (r *LearningPathRepository) Create(path *model.LearningPath) error {
	return r.DB.Create(path).Error
}

func (r *LearningPathRepository) FindByID(id string) (*model.LearningPath, error) {
	var p model.LearningPath
	err := r.DB.Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPathNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LearningPathRepository) ListByOwner(ownerID uint) ([]model.LearningPath, error) {
	var ps []model.LearningPath
	err := r.DB.Where("owner_id = ?", ownerID).
		Order("created_at desc").Find(&ps).Error
	return ps, err
}

func (r *LearningPathRepository) Save(path *model.LearningPath) error {
	return r.DB.Save(path).Error
}
