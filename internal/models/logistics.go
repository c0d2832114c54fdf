package models

import "time"

// DistributionShift is a time slot on collect day during which a handful
// of members hand out the delivered goods.
type DistributionShift struct {
	ID           uint `gorm:"primaryKey"`
	OrderRoundID uint `gorm:"index;not null"`
	OrderRound   OrderRound
	Start        time.Time `gorm:"not null"`
	End          time.Time `gorm:"not null"`
	Capacity     int       `gorm:"not null;default:3"`
	Members      []User    `gorm:"many2many:shift_members"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TransportRide is a car ride picking up goods from a supplier for a round.
type TransportRide struct {
	ID           uint `gorm:"primaryKey"`
	OrderRoundID uint `gorm:"index;not null"`
	OrderRound   OrderRound
	SupplierID   uint `gorm:"index;not null"`
	Supplier     Supplier
	DriverID     *uint `gorm:"index"`
	Driver       *User
	DepartAt     time.Time `gorm:"not null"`
	Notes        string    `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
