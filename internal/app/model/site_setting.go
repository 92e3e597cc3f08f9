package model

import "time"

// SiteSetting stores admin-configurable key/value settings. Keys are seeded by
// migrations; the API only updates values of existing keys.
type SiteSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SiteSetting) TableName() string { return "site_settings" }

// Keys seeded on migration.
var DefaultSiteSettings = map[string]string{
	"site_name":        "Shopfront",
	"header_notice":    "",
	"footer_text":      "",
	"contact_email":    "",
	"free_shipping_at": "50000",
}
