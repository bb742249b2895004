package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fleetmon/hardware-monitor/pkg/types"
)

// SeedDevices loads the device inventory from a semicolon separated
// file. The first row is a header and is skipped.
func SeedDevices(ctx context.Context, repo DeviceRepository, reader io.Reader) error {
	r := csv.NewReader(reader)
	r.Comma = ';'

	rows, err := r.ReadAll()
	if err != nil {
		return err
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}

		rec, err := newDeviceSeedRecord(row)
		if err != nil {
			return err
		}

		device := rec.Device()
		err = repo.Create(ctx, &device)
		if err != nil {
			return err
		}
	}

	return nil
}

// SeedAccounts loads credentials from a semicolon separated file. The
// password column holds a bcrypt hash, never a clear text password.
func SeedAccounts(ctx context.Context, repo AccountRepository, reader io.Reader) error {
	r := csv.NewReader(reader)
	r.Comma = ';'

	rows, err := r.ReadAll()
	if err != nil {
		return err
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}

		if len(row) < 4 {
			return fmt.Errorf("account row %d has %d columns, expected 4", i, len(row))
		}

		if _, ok := types.ParseRole(row[2]); !ok {
			return fmt.Errorf("account row with %s contains invalid role %s", row[0], row[2])
		}

		err = repo.Create(ctx, &Account{
			Account:      row[0],
			PasswordHash: row[1],
			Role:         row[2],
			CompanyName:  row[3],
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// SeedCompanies loads the company register from a semicolon separated
// file.
func SeedCompanies(ctx context.Context, repo CompanyRepository, reader io.Reader) error {
	r := csv.NewReader(reader)
	r.Comma = ';'

	rows, err := r.ReadAll()
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	for i, row := range rows {
		if i == 0 {
			continue
		}

		if len(row) < 4 {
			return fmt.Errorf("company row %d has %d columns, expected 4", i, len(row))
		}

		limit, err := strconv.Atoi(row[2])
		if err != nil {
			return fmt.Errorf("company row with %s contains invalid registration limit %s", row[0], row[2])
		}

		err = repo.Create(ctx, &Company{
			CompanyCode:       row[0],
			CompanyName:       row[1],
			RegistrationLimit: limit,
			Status:            row[3],
			CreateDate:        now,
			UpdateDate:        now,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

type deviceSeedRecord struct {
	deviceNo        string
	category        string
	computerName    string
	companyName     string
	operatingSystem string
	user            string
	initializer     string
	version         string
	registered      time.Time
	status          string
	notes           string
}

func (dr deviceSeedRecord) Device() Device {
	d := Device{
		DeviceNo:           dr.deviceNo,
		Category:           dr.category,
		ComputerName:       dr.computerName,
		CompanyName:        dr.companyName,
		OperatingSystem:    dr.operatingSystem,
		User:               dr.user,
		Initializer:        dr.initializer,
		Version:            dr.version,
		RegistrationDate:   dr.registered,
		RegistrationStatus: dr.status,
	}

	if dr.notes != "" {
		notes := dr.notes
		d.Notes = &notes
	}

	return d
}

func newDeviceSeedRecord(r []string) (deviceSeedRecord, error) {
	if len(r) < 11 {
		return deviceSeedRecord{}, fmt.Errorf("device row with %s has %d columns, expected 11", r[0], len(r))
	}

	strToTime := func(s string) time.Time {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}
		}
		return t
	}

	dr := deviceSeedRecord{
		deviceNo:        strings.TrimSpace(r[0]),
		category:        r[1],
		computerName:    r[2],
		companyName:     r[3],
		operatingSystem: r[4],
		user:            r[5],
		initializer:     r[6],
		version:         r[7],
		registered:      strToTime(r[8]),
		status:          r[9],
		notes:           r[10],
	}

	err := validateDeviceSeedRecord(dr)
	if err != nil {
		return deviceSeedRecord{}, err
	}

	return dr, nil
}

func validateDeviceSeedRecord(r deviceSeedRecord) error {
	if r.deviceNo == "" {
		return fmt.Errorf("device row is missing a device number")
	}

	if r.status != types.RegistrationStatusRegistered && r.status != types.RegistrationStatusUnregistered {
		return fmt.Errorf("device row with %s contains invalid status %s", r.deviceNo, r.status)
	}

	return nil
}
