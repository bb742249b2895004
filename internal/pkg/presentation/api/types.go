package api

import (
	"time"

	"github.com/samber/lo"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/directory"
	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
)

type DeviceSummary struct {
	DeviceNo           string  `json:"deviceNo"`
	Category           string  `json:"category"`
	CompanyName        string  `json:"companyName"`
	RegistrationStatus string  `json:"registrationStatus"`
	Notes              *string `json:"notes"`
}

type DeviceBaseInfo struct {
	DeviceNo           string    `json:"deviceNo"`
	Category           string    `json:"category"`
	ComputerName       string    `json:"computerName"`
	CompanyName        string    `json:"companyName"`
	OperatingSystem    string    `json:"operatingSystem"`
	SoftwareCount      int       `json:"softwareCount"`
	User               string    `json:"user"`
	Initializer        string    `json:"initializer"`
	Notes              *string   `json:"notes"`
	Version            string    `json:"version"`
	RegistrationDate   time.Time `json:"registrationDate"`
	RegistrationStatus string    `json:"registrationStatus"`
}

type GraphicsCardDetail struct {
	ID       uint   `json:"id"`
	CardName string `json:"cardName"`
}

type DiskDetail struct {
	ID                  uint   `json:"id"`
	SlotName            string `json:"slotName"`
	TotalCapacityGB     int64  `json:"totalCapacityGB"`
	AvailableCapacityGB int64  `json:"availableCapacityGB"`
}

type HardwareDetailInfo struct {
	Processor         string    `json:"processor"`
	Motherboard       string    `json:"motherboard"`
	MemoryTotalGB     int64     `json:"memoryTotalGB"`
	MemoryAvailableGB int64     `json:"memoryAvailableGB"`
	IPAddress         string    `json:"ipAddress"`
	UpdateDate        time.Time `json:"updateDate"`
	CreateDate        time.Time `json:"createDate"`

	GraphicsCards []GraphicsCardDetail `json:"graphicsCards"`
	Disks         []DiskDetail         `json:"disks"`
}

type SoftwareDetail struct {
	ID               uint      `json:"id"`
	SoftwareName     string    `json:"softwareName"`
	Publisher        string    `json:"publisher"`
	InstallationDate time.Time `json:"installationDate"`
	Version          string    `json:"version"`
}

type AlertDetail struct {
	ID        uint      `json:"id"`
	AlertDate time.Time `json:"alertDate"`

	CpuT         float64 `json:"cpuT"`
	MotherboardT float64 `json:"motherboardT"`
	GpuT         float64 `json:"gpuT"`
	HddT         float64 `json:"hddT"`

	CpuU    float64 `json:"cpuU"`
	MemoryU float64 `json:"memoryU"`
	GpuU    float64 `json:"gpuU"`
	HddU    float64 `json:"hddU"`
}

type PowerLogDetail struct {
	ID        uint      `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
}

type DeviceDetail struct {
	BaseInfo       DeviceBaseInfo     `json:"baseInfo"`
	HardwareDetail HardwareDetailInfo `json:"hardwareDetail"`
	SoftwareList   []SoftwareDetail   `json:"softwareList"`
	AlertList      []AlertDetail      `json:"alertList"`
	PowerLogList   []PowerLogDetail   `json:"powerLogList"`
}

type PowerLogListItem struct {
	ID           uint      `json:"id"`
	DeviceNo     string    `json:"deviceNo"`
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	ComputerName string    `json:"computerName"`
	CompanyName  string    `json:"companyName"`
}

type AlertLogListItem struct {
	ID        uint      `json:"id"`
	DeviceNo  string    `json:"deviceNo"`
	AlertDate time.Time `json:"alertDate"`

	CpuT         float64 `json:"cpuT"`
	MotherboardT float64 `json:"motherboardT"`
	GpuT         float64 `json:"gpuT"`
	HddT         float64 `json:"hddT"`

	CpuU    float64 `json:"cpuU"`
	MemoryU float64 `json:"memoryU"`
	GpuU    float64 `json:"gpuU"`
	HddU    float64 `json:"hddU"`

	ComputerName string `json:"computerName"`
	CompanyName  string `json:"companyName"`
}

type AccountListItem struct {
	UserID      uint   `json:"userId"`
	Account     string `json:"account"`
	Role        string `json:"role"`
	CompanyName string `json:"companyName"`
}

type CompanyListItem struct {
	CompanyCode        string    `json:"companyCode"`
	CompanyName        string    `json:"companyName"`
	RegistrationLimit  int       `json:"registrationLimit"`
	Status             string    `json:"status"`
	UpdateDate         time.Time `json:"updateDate"`
	CreateDate         time.Time `json:"createDate"`
	CurrentDeviceCount int       `json:"currentDeviceCount"`
}

type CreateDeviceRequest struct {
	DeviceNo        string  `json:"deviceNo"`
	Category        string  `json:"category"`
	ComputerName    string  `json:"computerName"`
	CompanyName     string  `json:"companyName"`
	OperatingSystem string  `json:"operatingSystem"`
	User            string  `json:"user"`
	Initializer     string  `json:"initializer"`
	Notes           *string `json:"notes"`
	Version         string  `json:"version"`
}

type UpdateNotesRequest struct {
	Notes *string `json:"notes"`
}

type ExportRequest struct {
	DataType string        `json:"dataType"`
	Filters  ExportFilters `json:"filters"`
}

type ExportFilters struct {
	DeviceNo    string `json:"deviceNo"`
	CompanyName string `json:"companyName"`
	Status      string `json:"status"`
}

type RegisterRequest struct {
	Account     string `json:"account"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	CompanyName string `json:"companyName"`
}

type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token       string `json:"token"`
	Account     string `json:"account"`
	Role        string `json:"role"`
	CompanyName string `json:"companyName,omitempty"`
}

func toDeviceSummary(d db.Device) DeviceSummary {
	return DeviceSummary{
		DeviceNo:           d.DeviceNo,
		Category:           d.Category,
		CompanyName:        d.CompanyName,
		RegistrationStatus: d.RegistrationStatus,
		Notes:              d.Notes,
	}
}

func toDeviceDetail(d db.Device) DeviceDetail {
	detail := DeviceDetail{
		BaseInfo: DeviceBaseInfo{
			DeviceNo:           d.DeviceNo,
			Category:           d.Category,
			ComputerName:       d.ComputerName,
			CompanyName:        d.CompanyName,
			OperatingSystem:    d.OperatingSystem,
			SoftwareCount:      d.SoftwareCount,
			User:               d.User,
			Initializer:        d.Initializer,
			Notes:              d.Notes,
			Version:            d.Version,
			RegistrationDate:   d.RegistrationDate,
			RegistrationStatus: d.RegistrationStatus,
		},
		HardwareDetail: toHardwareDetail(d),
		SoftwareList: lo.Map(d.SoftwareRecords, func(s db.SoftwareRecord, _ int) SoftwareDetail {
			return SoftwareDetail{
				ID:               s.ID,
				SoftwareName:     s.SoftwareName,
				Publisher:        s.Publisher,
				InstallationDate: s.InstallationDate,
				Version:          s.Version,
			}
		}),
		AlertList: lo.Map(d.AlertEvents, func(a db.AlertEvent, _ int) AlertDetail {
			return AlertDetail{
				ID:           a.ID,
				AlertDate:    a.AlertDate,
				CpuT:         a.CpuT,
				MotherboardT: a.MotherboardT,
				GpuT:         a.GpuT,
				HddT:         a.HddT,
				CpuU:         a.CpuU,
				MemoryU:      a.MemoryU,
				GpuU:         a.GpuU,
				HddU:         a.HddU,
			}
		}),
		PowerLogList: lo.Map(d.PowerEvents, func(p db.PowerEvent, _ int) PowerLogDetail {
			return PowerLogDetail{
				ID:        p.ID,
				Timestamp: p.Timestamp,
				Action:    p.Action,
			}
		}),
	}

	return detail
}

// toHardwareDetail folds the snapshot history into a current view. The
// repository returns snapshots newest first, so the first one wins.
func toHardwareDetail(d db.Device) HardwareDetailInfo {
	info := HardwareDetailInfo{
		Processor:   "N/A",
		Motherboard: "N/A",
		IPAddress:   "N/A",
		GraphicsCards: lo.Map(d.GraphicsCards, func(g db.GraphicsCardRecord, _ int) GraphicsCardDetail {
			return GraphicsCardDetail{ID: g.ID, CardName: g.CardName}
		}),
		Disks: lo.Map(d.DiskRecords, func(disk db.DiskRecord, _ int) DiskDetail {
			return DiskDetail{
				ID:                  disk.ID,
				SlotName:            disk.SlotName,
				TotalCapacityGB:     disk.TotalCapacityGB,
				AvailableCapacityGB: disk.AvailableCapacityGB,
			}
		}),
	}

	if len(d.HardwareSnapshots) > 0 {
		latest := d.HardwareSnapshots[0]
		info.Processor = latest.Processor
		info.Motherboard = latest.Motherboard
		info.MemoryTotalGB = latest.MemoryTotalGB
		info.MemoryAvailableGB = latest.MemoryAvailableGB
		info.IPAddress = latest.IPAddress
		info.UpdateDate = latest.UpdateDate
		info.CreateDate = latest.CreateDate
	}

	return info
}

func toPowerLogListItem(e db.PowerEvent) PowerLogListItem {
	return PowerLogListItem{
		ID:           e.ID,
		DeviceNo:     e.DeviceNo,
		Timestamp:    e.Timestamp,
		Action:       e.Action,
		ComputerName: e.Device.ComputerName,
		CompanyName:  e.Device.CompanyName,
	}
}

func toAlertLogListItem(e db.AlertEvent) AlertLogListItem {
	return AlertLogListItem{
		ID:           e.ID,
		DeviceNo:     e.DeviceNo,
		AlertDate:    e.AlertDate,
		CpuT:         e.CpuT,
		MotherboardT: e.MotherboardT,
		GpuT:         e.GpuT,
		HddT:         e.HddT,
		CpuU:         e.CpuU,
		MemoryU:      e.MemoryU,
		GpuU:         e.GpuU,
		HddU:         e.HddU,
		ComputerName: e.Device.ComputerName,
		CompanyName:  e.Device.CompanyName,
	}
}

func toAccountListItem(a db.Account) AccountListItem {
	return AccountListItem{
		UserID:      a.UserID,
		Account:     a.Account,
		Role:        a.Role,
		CompanyName: a.CompanyName,
	}
}

func toCompanyListItem(c directory.CompanyInfo) CompanyListItem {
	return CompanyListItem{
		CompanyCode:        c.CompanyCode,
		CompanyName:        c.CompanyName,
		RegistrationLimit:  c.RegistrationLimit,
		Status:             c.Status,
		UpdateDate:         c.UpdateDate,
		CreateDate:         c.CreateDate,
		CurrentDeviceCount: c.DeviceCount,
	}
}
