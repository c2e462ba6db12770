package models

type Product struct {
	ID     int     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title  string  `gorm:"not null"                 json:"title"`
	Price  float64 `gorm:"not null"                 json:"price"`
	Image  string  `json:"image"`
	Amount int     `gorm:"-"                        json:"amount,omitempty"`
}

type Stock struct {
	ID     int `gorm:"primaryKey"           json:"id"`
	Amount int `gorm:"not null;default:0"   json:"amount"`
}

func (Stock) TableName() string {
	return "stock"
}
