package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestQueryDevicesOrdersByCompanyThenDeviceNo(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(2, "beta")))
	is.NoErr(r.Create(ctx, createDevice(1, "beta")))
	is.NoErr(r.Create(ctx, createDevice(3, "acme")))

	devices, err := r.QueryDevices(ctx)
	is.NoErr(err)
	is.Equal(3, len(devices))
	is.Equal("acme", devices[0].CompanyName)
	is.Equal("device-1", devices[1].DeviceNo)
	is.Equal("device-2", devices[2].DeviceNo)
}

func TestQueryDevicesScopedToCompanies(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(1, "acme")))
	is.NoErr(r.Create(ctx, createDevice(2, "acme")))
	is.NoErr(r.Create(ctx, createDevice(3, "globex")))

	devices, err := r.QueryDevices(ctx, WithCompanies([]string{"acme"}))
	is.NoErr(err)
	is.Equal(2, len(devices))

	devices, err = r.QueryDevices(ctx, WithCompanies([]string{}))
	is.NoErr(err)
	is.Equal(0, len(devices))
}

func TestQueryDevicesWithFilters(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(11, "acme")))
	is.NoErr(r.Create(ctx, createDevice(12, "acme")))
	is.NoErr(r.Create(ctx, createDevice(20, "globex")))

	devices, err := r.QueryDevices(ctx, WithDeviceNo("1"))
	is.NoErr(err)
	is.Equal(2, len(devices))

	devices, err = r.QueryDevices(ctx, WithCompanyName("glo"))
	is.NoErr(err)
	is.Equal(1, len(devices))
	is.Equal("device-20", devices[0].DeviceNo)

	devices, err = r.QueryDevices(ctx, WithStatus("unregistered"))
	is.NoErr(err)
	is.Equal(0, len(devices))
}

func TestGetByDeviceNoHonoursCompanyScope(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(1, "acme")))

	_, err := r.GetByDeviceNo(ctx, "device-1", "acme")
	is.NoErr(err)

	_, err = r.GetByDeviceNo(ctx, "device-1", "globex")
	is.Equal(ErrDeviceNotFound, err)

	_, err = r.GetByDeviceNo(ctx, "device-404")
	is.Equal(ErrDeviceNotFound, err)
}

func TestGetDetailsPreloadsChildren(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	device := createDevice(1, "acme")
	device.HardwareSnapshots = []HardwareSnapshot{
		{Processor: "old", UpdateDate: time.Now().Add(-time.Hour)},
		{Processor: "new", UpdateDate: time.Now()},
	}
	device.GraphicsCards = []GraphicsCardRecord{{CardName: "gpu-0"}}
	device.DiskRecords = []DiskRecord{{SlotName: "C:", TotalCapacityGB: 512, AvailableCapacityGB: 100}}
	is.NoErr(r.Create(ctx, device))

	fromDb, err := r.GetDetails(ctx, "device-1")
	is.NoErr(err)
	is.Equal(2, len(fromDb.HardwareSnapshots))
	is.Equal("new", fromDb.HardwareSnapshots[0].Processor)
	is.Equal("gpu-0", fromDb.GraphicsCards[0].CardName)
	is.Equal("C:", fromDb.DiskRecords[0].SlotName)
}

func TestCreateDuplicateDeviceNo(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(1, "acme")))

	err := r.Create(ctx, createDevice(1, "globex"))
	is.Equal(ErrDeviceAlreadyExists, err)
}

func TestUpdateNotes(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(1, "acme")))

	notes := "replaced fan"
	is.NoErr(r.UpdateNotes(ctx, "device-1", &notes))

	fromDb, err := r.GetByDeviceNo(ctx, "device-1")
	is.NoErr(err)
	is.Equal("replaced fan", *fromDb.Notes)

	is.NoErr(r.UpdateNotes(ctx, "device-1", nil))

	fromDb, err = r.GetByDeviceNo(ctx, "device-1")
	is.NoErr(err)
	is.Equal((*string)(nil), fromDb.Notes)

	err = r.UpdateNotes(ctx, "device-404", &notes)
	is.Equal(ErrDeviceNotFound, err)
}

func TestSetRegistrationStatus(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(1, "acme")))

	is.NoErr(r.SetRegistrationStatus(ctx, "device-1", "unregistered"))

	fromDb, err := r.GetByDeviceNo(ctx, "device-1")
	is.NoErr(err)
	is.Equal("unregistered", fromDb.RegistrationStatus)

	err = r.SetRegistrationStatus(ctx, "device-404", "unregistered")
	is.Equal(ErrDeviceNotFound, err)
}

func TestCountByCompany(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	is.NoErr(r.Create(ctx, createDevice(1, "acme")))
	is.NoErr(r.Create(ctx, createDevice(2, "acme")))
	is.NoErr(r.Create(ctx, createDevice(3, "globex")))

	counts, err := r.CountByCompany(ctx)
	is.NoErr(err)
	is.Equal(2, counts["acme"])
	is.Equal(1, counts["globex"])
	is.Equal(0, counts["initech"])
}

func testSetupDeviceRepository(t *testing.T) (*is.I, context.Context, DeviceRepository) {
	is, ctx, conn := setup(t)

	r, err := NewDeviceRepository(conn)
	is.NoErr(err)

	return is, ctx, r
}

func setup(t *testing.T) (*is.I, context.Context, ConnectorFunc) {
	is := is.New(t)
	ctx := context.Background()
	conn := NewSQLiteConnector(zerolog.Nop())

	return is, ctx, conn
}

func createDevice(n int, company string) *Device {
	return &Device{
		DeviceNo:           fmt.Sprintf("device-%d", n),
		Category:           "laptop",
		ComputerName:       fmt.Sprintf("host-%d", n),
		CompanyName:        company,
		OperatingSystem:    "Windows 11 Pro",
		SoftwareCount:      0,
		User:               "mallory",
		Initializer:        "provisioner",
		Version:            "1.0.0",
		RegistrationDate:   time.Now().UTC(),
		RegistrationStatus: "registered",
	}
}
