package models

import "time"

// Project is the top-level unit of work: one BOM submission. Its
// identifier is an opaque, caller-visible UUID string minted at
// creation, not a surrogate database key.
type Project struct {
	ID          string `gorm:"primaryKey;type:varchar(64)"`
	Name        *string
	Description *string
	Status      ProjectStatus `gorm:"not null;index;type:varchar(32)"`
	CreatedAt   time.Time     `gorm:"not null;index;autoCreateTime"`
	StartedAt   *time.Time
	EndedAt     *time.Time

	BomItems []BomItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID"`
}

func (Project) TableName() string { return "projects" }

// BomItem is one line of a Project's bill of materials. Immutable after
// ingestion; insertion order is preserved by the surrogate ID.
type BomItem struct {
	ID          uint `gorm:"primaryKey"`
	ProjectID   string `gorm:"not null;index;type:varchar(64)"`
	Qty         int    `gorm:"not null"`
	Description string `gorm:"not null"`
	Package     string `gorm:"not null"`
	Notes       *string
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`

	Matches          []BomItemMatch      `gorm:"constraint:OnDelete:CASCADE;foreignKey:BomItemID"`
	PotentialMatches []PotentialBomMatch `gorm:"constraint:OnDelete:CASCADE;foreignKey:BomItemID"`
}

func (BomItem) TableName() string { return "bom_items" }
