package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Component is the system's knowledge of one concrete purchasable part.
// Shared across projects: at most one row per DistributorPartNumber.
type Component struct {
	ID                      uint   `gorm:"primaryKey"`
	DistributorPartNumber   string `gorm:"not null;uniqueIndex;type:varchar(128)"`
	ManufacturerPartNumber  string `gorm:"not null;index;type:varchar(128)"`
	ManufacturerName        string
	Description             string
	DatasheetURL            string
	Package                 string
	UnitPrice               *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Availability            string
	LastUpdatedAt           time.Time `gorm:"not null;autoUpdateTime"`
}

func (Component) TableName() string { return "components" }

// BomItemMatch records the outcome of one MatchPipeline run for one
// BomItem. Exactly one terminal row is written per BomItem per run; the
// Component link is populated only when Status is MatchMatched.
type BomItemMatch struct {
	ID          uint   `gorm:"primaryKey"`
	BomItemID   uint   `gorm:"not null;index"`
	ComponentID *uint  `gorm:"index"`
	Component   *Component
	Status      string    `gorm:"not null;type:varchar(32)"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
}

func (BomItemMatch) TableName() string { return "bom_item_matches" }

// PotentialBomMatch is one ranked alternative the LLM proposed for a
// BomItem in addition to (or instead of) the chosen match.
type PotentialBomMatch struct {
	ID                     uint   `gorm:"primaryKey"`
	BomItemID              uint   `gorm:"not null;uniqueIndex:idx_potential_bom_item_rank"`
	Rank                   int    `gorm:"not null;uniqueIndex:idx_potential_bom_item_rank"`
	ManufacturerPartNumber string `gorm:"not null"`
	Reason                 string
	SelectionState         string `gorm:"not null;type:varchar(16)"`
	ComponentID            *uint  `gorm:"index"`
	Component              *Component
	CreatedAt              time.Time `gorm:"not null;autoCreateTime"`
}

func (PotentialBomMatch) TableName() string { return "potential_bom_matches" }

// CacheEntry is a read-through cache row over a distributor search
// response, keyed by (SearchTerm, SearchType). Newest row for a key
// wins; uniqueness is enforced at rest.
type CacheEntry struct {
	ID           uint       `gorm:"primaryKey"`
	SearchTerm   string     `gorm:"not null;uniqueIndex:idx_cache_term_type;type:varchar(256)"`
	SearchType   string     `gorm:"not null;uniqueIndex:idx_cache_term_type;type:varchar(16)"`
	ResponseData JSONBlob   `gorm:"not null"`
	CachedAt     time.Time  `gorm:"not null;index;autoCreateTime"`
}

func (CacheEntry) TableName() string { return "mouser_api_cache" }
