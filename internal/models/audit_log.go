package models

// AuditLog records sensitive financial operations for traceability.
type AuditLog struct {
	Base
	StudentID    uint   `gorm:"not null;index" json:"student_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   uint   `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
