package models

import (
	"gorm.io/gorm"
)

// Transporter is a carrier company branch. Login lookup is by GST number
// (15-char tax id, compared case-insensitively with a trimmed fallback).
type Transporter struct {
	gorm.Model
	TransportName   string `json:"transport_name" gorm:"not null"`
	GSTNumber       string `json:"gst_number" gorm:"index"`
	MobNumber       string `json:"mob_number"` // registered mobile, may be empty
	CityName        string `json:"city_name"`
	Address         string `json:"address"`
	BranchOwnerName string `json:"branch_owner_name"`
	Website         string `json:"website"`
}

func (Transporter) TableName() string {
	return "transports"
}

// PrincipalID implements services.Principal
func (t *Transporter) PrincipalID() uint {
	return t.ID
}

// PrincipalPhone implements services.Principal
func (t *Transporter) PrincipalPhone() string {
	return t.MobNumber
}

// PrincipalKind implements services.Principal
func (t *Transporter) PrincipalKind() string {
	return "transporter"
}
