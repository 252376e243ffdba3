// Package models contains the GORM models of the settings store.
package models

import "time"

// Persisted setting keys.
const (
	SettingMQTTServer = "mqtt_server"
	SettingMQTTPort   = "mqtt_port"
)

// Setting is one persisted key/value pair.
// Table: settings
type Setting struct {
	ID        string    `gorm:"column:id;primaryKey" json:"-"`
	Key       string    `gorm:"column:key;uniqueIndex" json:"key"`
	Value     string    `gorm:"column:value" json:"value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }
