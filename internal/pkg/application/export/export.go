// Package export produces CSV report downloads of the device
// inventory and the monitoring logs. Reports honour the same row
// visibility rules as the listings they mirror.
package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/access"
	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

//go:generate moq -rm -out export_mock.go . Export

type Export interface {
	Generate(ctx context.Context, p access.Principal, req Request) (Report, error)
}

type Request struct {
	DataType    types.ReportType
	DeviceNo    string
	CompanyName string
	Status      string
}

type Report struct {
	Filename string
	Data     []byte
}

type exporter struct {
	deviceRepository db.DeviceRepository
	logRepository    db.LogRepository
}

func New(d db.DeviceRepository, l db.LogRepository) Export {
	return &exporter{
		deviceRepository: d,
		logRepository:    l,
	}
}

func (svc *exporter) Generate(ctx context.Context, p access.Principal, req Request) (Report, error) {
	var headers []string
	var rows [][]string
	var err error

	switch req.DataType {
	case types.ReportTypeDevice:
		headers, rows, err = svc.deviceRows(ctx, p, req)
	case types.ReportTypePowerLogs:
		headers, rows, err = svc.powerLogRows(ctx, p, req)
	case types.ReportTypeAlertLogs:
		headers, rows, err = svc.alertLogRows(ctx, p, req)
	default:
		return Report{}, fmt.Errorf("unsupported report type %s", req.DataType)
	}

	if err != nil {
		return Report{}, err
	}

	report := Report{
		Filename: fmt.Sprintf("%s_report_%s.csv", req.DataType, time.Now().UTC().Format("20060102150405")),
	}

	if len(rows) == 0 {
		report.Data = []byte("no data")
		return report, nil
	}

	report.Data = renderCSV(headers, rows)

	return report, nil
}

func (svc *exporter) deviceRows(ctx context.Context, p access.Principal, req Request) ([]string, [][]string, error) {
	conditions, err := access.DeviceListScope(p)
	if err != nil {
		return nil, nil, err
	}

	if req.DeviceNo != "" {
		conditions = append(conditions, db.WithDeviceNo(req.DeviceNo))
	}
	if req.Status != "" {
		conditions = append(conditions, db.WithStatus(req.Status))
	}
	if req.CompanyName != "" && access.AdminFilterAllowed(p) {
		conditions = append(conditions, db.WithCompanyName(req.CompanyName))
	}

	devices, err := svc.deviceRepository.QueryDevices(ctx, conditions...)
	if err != nil {
		return nil, nil, err
	}

	headers := []string{"deviceNo", "category", "computerName", "operatingSystem", "softwareCount", "user", "initializer", "version"}

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{
			d.DeviceNo,
			d.Category,
			d.ComputerName,
			d.OperatingSystem,
			strconv.Itoa(d.SoftwareCount),
			d.User,
			d.Initializer,
			d.Version,
		})
	}

	return headers, rows, nil
}

func (svc *exporter) powerLogRows(ctx context.Context, p access.Principal, req Request) ([]string, [][]string, error) {
	conditions, err := svc.logConditions(p, req)
	if err != nil {
		return nil, nil, err
	}

	events, err := svc.logRepository.QueryPowerEvents(ctx, conditions...)
	if err != nil {
		return nil, nil, err
	}

	headers := []string{"deviceNo", "category", "timestamp", "action"}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.DeviceNo,
			e.Device.Category,
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Action,
		})
	}

	return headers, rows, nil
}

func (svc *exporter) alertLogRows(ctx context.Context, p access.Principal, req Request) ([]string, [][]string, error) {
	conditions, err := svc.logConditions(p, req)
	if err != nil {
		return nil, nil, err
	}

	events, err := svc.logRepository.QueryAlertEvents(ctx, conditions...)
	if err != nil {
		return nil, nil, err
	}

	headers := []string{
		"deviceNo", "category", "alertDate",
		"cpuTemp", "cpuUsage", "motherboardTemp", "memoryUsage",
		"gpuTemp", "gpuUsage", "hddTemp", "hddUsage",
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.DeviceNo,
			e.Device.Category,
			e.AlertDate.Format("2006-01-02 15:04:05"),
			formatFloat(e.CpuT),
			formatFloat(e.CpuU),
			formatFloat(e.MotherboardT),
			formatFloat(e.MemoryU),
			formatFloat(e.GpuT),
			formatFloat(e.GpuU),
			formatFloat(e.HddT),
			formatFloat(e.HddU),
		})
	}

	return headers, rows, nil
}

func (svc *exporter) logConditions(p access.Principal, req Request) ([]db.ConditionFunc, error) {
	conditions, err := access.LogListScope(p)
	if err != nil {
		return nil, err
	}

	if req.DeviceNo != "" {
		conditions = append(conditions, db.WithDeviceNo(req.DeviceNo))
	}
	if req.CompanyName != "" && access.AdminFilterAllowed(p) {
		conditions = append(conditions, db.WithCompanyName(req.CompanyName))
	}

	return conditions, nil
}

// renderCSV writes a UTF-8 BOM followed by comma separated lines with
// every field quoted, so that spreadsheet tools open the file with the
// right encoding regardless of cell content.
func renderCSV(headers []string, rows [][]string) []byte {
	var buf strings.Builder

	buf.WriteString("\xEF\xBB\xBF")

	writeLine := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
			buf.WriteByte('"')
		}
		buf.WriteString("\r\n")
	}

	writeLine(headers)
	for _, row := range rows {
		writeLine(row)
	}

	return []byte(buf.String())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
