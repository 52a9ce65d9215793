package models

// MediaAsset points at a file kept in the media store. It is never modified:
// replacing an asset means removing the old one and storing a new one.
type MediaAsset struct {
	URL       string `gorm:"type:varchar(2000);not null" json:"url"`
	StorageID string `gorm:"type:varchar(300);not null" json:"storageId"`
}
