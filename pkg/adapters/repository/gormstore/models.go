package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
)

// LinkModel is the links table. Code is the primary key, which is what
// makes concurrent inserts of the same code collide.
type LinkModel struct {
	Code        string    `gorm:"primaryKey;size:20"`
	OriginalURL string    `gorm:"size:2048;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

func (LinkModel) TableName() string { return "links" }

// ClickModel is the clicks table. Seq gives insertion order; ID is the
// opaque identifier handed to callers.
type ClickModel struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"size:36;uniqueIndex;not null"`
	LinkCode  string    `gorm:"size:20;not null;index"`
	ClickedAt time.Time `gorm:"not null"`
	Source    string
	Latitude  string
	Longitude string
	City      string
	Country   string
}

func (ClickModel) TableName() string { return "clicks" }

func (m *ClickModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AllModels returns all models for migration
func AllModels() []interface{} {
	return []interface{}{&LinkModel{}, &ClickModel{}}
}

func fromLink(l *domain.Link) LinkModel {
	return LinkModel{
		Code:        l.Code,
		OriginalURL: l.OriginalURL,
		CreatedAt:   l.CreatedAt.UTC(),
		ExpiresAt:   l.ExpiresAt.UTC(),
	}
}

func (m LinkModel) toDomain() domain.Link {
	return domain.Link{
		Code:        m.Code,
		OriginalURL: m.OriginalURL,
		CreatedAt:   m.CreatedAt.UTC(),
		ExpiresAt:   m.ExpiresAt.UTC(),
	}
}

func fromClick(code string, c *domain.Click) ClickModel {
	return ClickModel{
		ID:        c.ID,
		LinkCode:  code,
		ClickedAt: c.Timestamp.UTC(),
		Source:    c.Source,
		Latitude:  c.Geo.Latitude,
		Longitude: c.Geo.Longitude,
		City:      c.Geo.City,
		Country:   c.Geo.Country,
	}
}

func (m ClickModel) toDomain() domain.Click {
	return domain.Click{
		ID:        m.ID,
		LinkCode:  m.LinkCode,
		Timestamp: m.ClickedAt.UTC(),
		Source:    m.Source,
		Geo: domain.Geo{
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			City:      m.City,
			Country:   m.Country,
		},
	}
}
