package models

import (
	"time"

	"gorm.io/gorm"
)

// Bilty is a consignment note, the business record the app tracks. This
// subsystem only reads bilties; creation/editing happens in the office
// software that owns the table.
type Bilty struct {
	gorm.Model
	GRNumber        string     `json:"gr_no" gorm:"column:gr_no;uniqueIndex"`
	BiltyDate       *time.Time `json:"bilty_date"`
	ConsignorName   string     `json:"consignor_name" gorm:"index"`
	ConsignorNumber string     `json:"consignor_number" gorm:"index"`
	ConsignorGST    string     `json:"consignor_gst" gorm:"column:consignor_gst"`
	ConsigneeName   string     `json:"consignee_name"`
	ConsigneeNumber string     `json:"consignee_number"`
	TransportGST    string     `json:"transport_gst" gorm:"column:transport_gst;index"`
	FromCityID      uint       `json:"from_city_id"`
	ToCityID        uint       `json:"to_city_id"`
	PackageCount    int        `json:"package_count"`
	Contents        string     `json:"contents"`
	Weight          float64    `json:"weight"`
	FreightAmount   float64    `json:"freight_amount"`
	SavingOption    string     `json:"saving_option"` // "paid", "to_pay"
	IsActive        bool       `json:"is_active" gorm:"default:true"`
}

func (Bilty) TableName() string {
	return "bilty"
}

// BiltyView is a Bilty joined with its city names for the client.
type BiltyView struct {
	Bilty
	FromCityName string `json:"from_city_name"`
	FromCityCode string `json:"from_city_code"`
	ToCityName   string `json:"to_city_name"`
	ToCityCode   string `json:"to_city_code"`
}

// City backs the from/to lookups and the city rates screen.
type City struct {
	gorm.Model
	CityName string `json:"city_name" gorm:"not null;index"`
	CityCode string `json:"city_code"`
	State    string `json:"state"`
}

func (City) TableName() string {
	return "cities"
}

// BiltyStats summarizes a principal's bilty history.
type BiltyStats struct {
	Total int64 `json:"total"`
	Paid  int64 `json:"paid"`
	ToPay int64 `json:"to_pay"`
}
