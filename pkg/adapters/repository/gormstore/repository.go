package gormstore

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

// Repository stores links through GORM. Production uses Postgres; any
// dialector works.
type Repository struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New wraps an open connection and runs auto-migration.
func New(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// TryCreate inserts with ON CONFLICT DO NOTHING so the database decides the winner.
func (r *Repository) TryCreate(ctx context.Context, link *domain.Link) (domain.CreateOutcome, error) {
	m := fromLink(link)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return domain.Conflict, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Conflict, nil
	}
	return domain.Created, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	var m LinkModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	link := m.toDomain()
	return &link, nil
}

func (r *Repository) AppendClick(ctx context.Context, code string, click *domain.Click) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&LinkModel{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrLinkNotFound
		}

		m := fromClick(code, click)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		click.ID = m.ID
		click.LinkCode = code
		return nil
	})
}

func (r *Repository) ListClicks(ctx context.Context, code string) ([]domain.Click, error) {
	if _, err := r.FindByCode(ctx, code); err != nil {
		return nil, err
	}

	var rows []ClickModel
	if err := r.db.WithContext(ctx).Where("link_code = ?", code).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	clicks := make([]domain.Click, 0, len(rows))
	for _, row := range rows {
		clicks = append(clicks, row.toDomain())
	}
	return clicks, nil
}

func (r *Repository) Dump(ctx context.Context) ([]domain.Link, error) {
	var rows []LinkModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	links := make([]domain.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toDomain())
	}
	return links, nil
}

var _ ports.LinkArchive = (*Repository)(nil)
