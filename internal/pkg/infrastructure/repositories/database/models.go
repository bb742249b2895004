package database

import (
	"time"
)

// Device is the root of the inventory model. The device number is the
// primary identity; all monitoring rows hang off it and are removed
// with it.
type Device struct {
	DeviceNo        string `gorm:"primaryKey;size:50"`
	Category        string
	ComputerName    string `gorm:"size:100"`
	CompanyName     string `gorm:"size:100;index"`
	OperatingSystem string
	SoftwareCount   int
	User            string
	Initializer     string
	Notes           *string
	Version         string

	RegistrationDate   time.Time
	RegistrationStatus string

	HardwareSnapshots []HardwareSnapshot   `gorm:"foreignKey:DeviceNo;references:DeviceNo;constraint:OnDelete:CASCADE"`
	SoftwareRecords   []SoftwareRecord     `gorm:"foreignKey:DeviceNo;references:DeviceNo;constraint:OnDelete:CASCADE"`
	AlertEvents       []AlertEvent         `gorm:"foreignKey:DeviceNo;references:DeviceNo;constraint:OnDelete:CASCADE"`
	PowerEvents       []PowerEvent         `gorm:"foreignKey:DeviceNo;references:DeviceNo;constraint:OnDelete:CASCADE"`
	DiskRecords       []DiskRecord         `gorm:"foreignKey:DeviceNo;references:DeviceNo;constraint:OnDelete:CASCADE"`
	GraphicsCards     []GraphicsCardRecord `gorm:"foreignKey:DeviceNo;references:DeviceNo;constraint:OnDelete:CASCADE"`
}

// HardwareSnapshot is a point in time view of a device's hardware,
// reported by the monitoring agent. The snapshot with the latest
// UpdateDate is considered current.
type HardwareSnapshot struct {
	ID       uint   `gorm:"primaryKey"`
	DeviceNo string `gorm:"size:50;index"`

	Processor         string
	Motherboard       string
	MemoryTotalGB     int64
	MemoryAvailableGB int64
	IPAddress         string

	CreateDate time.Time
	UpdateDate time.Time
}

type SoftwareRecord struct {
	ID       uint   `gorm:"primaryKey"`
	DeviceNo string `gorm:"size:50;index"`

	SoftwareName     string
	Publisher        string
	InstallationDate time.Time
	Version          string
}

// AlertEvent is a sensor threshold alert. T columns are temperatures,
// U columns are utilisation percentages.
type AlertEvent struct {
	ID       uint   `gorm:"primaryKey"`
	DeviceNo string `gorm:"size:50;index"`

	AlertDate time.Time

	CpuT         float64
	MotherboardT float64
	GpuT         float64
	HddT         float64

	CpuU    float64
	MemoryU float64
	GpuU    float64
	HddU    float64

	Device Device `gorm:"belongsTo;foreignKey:DeviceNo;references:DeviceNo"`
}

type PowerEvent struct {
	ID       uint   `gorm:"primaryKey"`
	DeviceNo string `gorm:"size:50;index"`

	Timestamp time.Time
	Action    string

	Device Device `gorm:"belongsTo;foreignKey:DeviceNo;references:DeviceNo"`
}

type DiskRecord struct {
	ID       uint   `gorm:"primaryKey"`
	DeviceNo string `gorm:"size:50;index"`

	SlotName            string
	TotalCapacityGB     int64
	AvailableCapacityGB int64
}

type GraphicsCardRecord struct {
	ID       uint   `gorm:"primaryKey"`
	DeviceNo string `gorm:"size:50;index"`

	CardName string
}

// Account is an identity credential. The password hash never leaves
// the repository layer.
type Account struct {
	UserID       uint   `gorm:"primaryKey"`
	Account      string `gorm:"uniqueIndex;size:50"`
	PasswordHash string
	Role         string
	CompanyName  string `gorm:"size:100"`
}

// Company rows are provisioned by an external process and only read
// and aggregated here.
type Company struct {
	CompanyCode       string `gorm:"primaryKey;size:50"`
	CompanyName       string `gorm:"uniqueIndex;size:100"`
	RegistrationLimit int
	Status            string

	CreateDate time.Time
	UpdateDate time.Time
}
