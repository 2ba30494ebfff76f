package models

import (
	"gorm.io/gorm"
)

// Consignor is a shipment sender. Login lookup is by the registered
// phone number (the "number" column, exact match).
type Consignor struct {
	gorm.Model
	CompanyName    string `json:"company_name" gorm:"not null"`
	CompanyAddress string `json:"company_add" gorm:"column:company_add"`
	Number         string `json:"number" gorm:"uniqueIndex;not null"` // registered mobile
	GSTNumber      string `json:"gst_num" gorm:"column:gst_num"`
	Aadhar         string `json:"adhar" gorm:"column:adhar"`
	PAN            string `json:"pan" gorm:"column:pan"`
}

func (Consignor) TableName() string {
	return "consignors"
}

// PrincipalID implements services.Principal
func (c *Consignor) PrincipalID() uint {
	return c.ID
}

// PrincipalPhone implements services.Principal
func (c *Consignor) PrincipalPhone() string {
	return c.Number
}

// PrincipalKind implements services.Principal
func (c *Consignor) PrincipalKind() string {
	return "consignor"
}
