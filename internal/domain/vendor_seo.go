package domain

import "time"

// VendorSEOKeywords is the latest generated keyword set for a vendor.
// One row per vendor; a new generation overwrites every field.
type VendorSEOKeywords struct {
	VendorID      string      `gorm:"type:text;primaryKey" json:"vendor_id"`
	BusinessType  string      `gorm:"type:text" json:"business_type"`
	BusinessModel string      `gorm:"type:text" json:"business_model"`
	Niche         string      `gorm:"type:text" json:"niche"`
	Location      string      `gorm:"type:text" json:"location"`
	NearestAreas  StringArray `gorm:"type:text" json:"nearest_areas"`
	TargetGender  string      `gorm:"type:text" json:"target_gender"`
	PriceTier     string      `gorm:"type:text" json:"price_tier"`
	StyleTags     StringArray `gorm:"type:text" json:"style_tags"`
	Keywords      StringArray `gorm:"type:text" json:"keywords"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName returns the database table name for VendorSEOKeywords.
func (VendorSEOKeywords) TableName() string {
	return "vendor_seo_keywords"
}

// Audit log actions.
const (
	ActionDebugAIOutput  = "debug_ai_output"
	ActionGenerate       = "generate"
	ActionGenerateFailed = "generate_failed"
)

// EntityVendor is the audit entity for vendor keyword runs.
const EntityVendor = "vendor"

// SEOLogEntry is an append-only audit record.
type SEOLogEntry struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Entity    string    `gorm:"type:text;not null;index:idx_seo_logs_entity" json:"entity"`
	EntityID  string    `gorm:"type:text;not null;index:idx_seo_logs_entity" json:"entity_id"`
	Action    string    `gorm:"type:text;not null" json:"action"`
	Inputs    JSONMap   `gorm:"type:text" json:"inputs"`
	Outputs   JSONMap   `gorm:"type:text" json:"outputs"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for SEOLogEntry.
func (SEOLogEntry) TableName() string {
	return "seo_logs"
}
