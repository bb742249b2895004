package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/devicemanagement"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/directory"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/events"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/export"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/identity"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/monitoring"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/router"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/tracing"
	"github.com/fleetmon/hardware-monitor/internal/pkg/presentation/api"
)

const serviceName string = "hardware-monitor"

type flagType int
type flagMap map[flagType]string

const (
	listenAddress flagType = iota
	servicePort

	policiesFile
	notificationsFile
	devicesFile
	accountsFile
	companiesFile

	tokenSecret
	devmode
)

func defaultFlags() flagMap {
	return flagMap{
		listenAddress: "0.0.0.0",
		servicePort:   "8080",

		policiesFile:      "/opt/fleetmon/config/authz.rego",
		notificationsFile: "/opt/fleetmon/config/notifications.yaml",
		devicesFile:       "/opt/fleetmon/data/devices.csv",
		accountsFile:      "/opt/fleetmon/data/accounts.csv",
		companiesFile:     "/opt/fleetmon/data/companies.csv",

		tokenSecret: "",
		devmode:     "false",
	}
}

func main() {
	serviceVersion := version()

	ctx, flags := parseExternalConfig(context.Background(), defaultFlags())
	ctx, logger := logging.NewLogger(ctx, serviceName, serviceVersion)

	logger.Info().Msg("starting up ...")

	cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
	exitIf(err, logger, "failed to init tracing")
	defer cleanup()

	if flags[tokenSecret] == "" {
		exitIf(fmt.Errorf("no signing secret configured"), logger, "HWMON_TOKEN_SECRET must be set")
	}

	connect := newConnector(flags, logger)

	deviceRepository, err := db.NewDeviceRepository(connect)
	exitIf(err, logger, "could not create device repository")

	logRepository, err := db.NewLogRepository(connect)
	exitIf(err, logger, "could not create log repository")

	accountRepository, err := db.NewAccountRepository(connect)
	exitIf(err, logger, "could not create account repository")

	companyRepository, err := db.NewCompanyRepository(connect)
	exitIf(err, logger, "could not create company repository")

	if flags[devmode] == "true" {
		err = seed(ctx, flags, deviceRepository, accountRepository, companyRepository)
		exitIf(err, logger, "failed to seed repositories")
	}

	tokenAuth := jwtauth.New("HS256", []byte(flags[tokenSecret]), nil)

	svcs := api.Services{
		DeviceManagement: devicemanagement.New(deviceRepository, newEventSender(flags, logger)),
		Monitoring:       monitoring.New(logRepository),
		Directory:        directory.New(accountRepository, companyRepository, deviceRepository),
		Export:           export.New(deviceRepository, logRepository),
		Identity:         identity.New(accountRepository, tokenAuth),
	}

	policies, err := os.Open(flags[policiesFile])
	exitIf(err, logger, "unable to open opa policy file")

	r, err := api.RegisterHandlers(ctx, router.New(serviceName), policies, tokenAuth, svcs)
	policies.Close()
	exitIf(err, logger, "failed to register handlers")

	apiPort := fmt.Sprintf("%s:%s", flags[listenAddress], flags[servicePort])

	logger.Info().Str("address", apiPort).Msg("listening for incoming connections")

	err = http.ListenAndServe(apiPort, r)
	exitIf(err, logger, "failed to start request router")
}

func newConnector(flags flagMap, logger zerolog.Logger) db.ConnectorFunc {
	if flags[devmode] == "true" {
		logger.Warn().Msg("devmode enabled, using in memory database")
		return db.NewSQLiteConnector(logger)
	}

	return db.NewPostgreSQLConnector(logger)
}

func newEventSender(flags flagMap, logger zerolog.Logger) events.EventSender {
	cfgFile, err := os.Open(flags[notificationsFile])
	if err != nil {
		logger.Warn().Err(err).Msg("no notification config found, lifecycle events disabled")
		return events.New(nil)
	}
	defer cfgFile.Close()

	cfg, err := events.LoadConfiguration(cfgFile)
	exitIf(err, logger, "could not parse notification config")

	return events.New(cfg)
}

func seed(ctx context.Context, flags flagMap, devices db.DeviceRepository, accounts db.AccountRepository, companies db.CompanyRepository) error {
	seeders := []struct {
		flag flagType
		fn   func(io.Reader) error
	}{
		{devicesFile, func(r io.Reader) error { return db.SeedDevices(ctx, devices, r) }},
		{accountsFile, func(r io.Reader) error { return db.SeedAccounts(ctx, accounts, r) }},
		{companiesFile, func(r io.Reader) error { return db.SeedCompanies(ctx, companies, r) }},
	}

	for _, s := range seeders {
		f, err := os.Open(flags[s.flag])
		if err != nil {
			return err
		}

		err = s.fn(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func parseExternalConfig(ctx context.Context, flags flagMap) (context.Context, flagMap) {
	// Allow environment variables to override certain defaults
	flags[listenAddress] = envOrDef("LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = envOrDef("SERVICE_PORT", flags[servicePort])

	flags[policiesFile] = envOrDef("POLICIES_FILE", flags[policiesFile])
	flags[notificationsFile] = envOrDef("NOTIFICATIONS_FILE", flags[notificationsFile])
	flags[devicesFile] = envOrDef("DEVICES_FILE", flags[devicesFile])
	flags[accountsFile] = envOrDef("ACCOUNTS_FILE", flags[accountsFile])
	flags[companiesFile] = envOrDef("COMPANIES_FILE", flags[companiesFile])

	flags[tokenSecret] = envOrDef("HWMON_TOKEN_SECRET", flags[tokenSecret])
	flags[devmode] = envOrDef("DEV_MODE", flags[devmode])

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments the final say
	flag.Func("policies", "an authorization policy file", apply(policiesFile))
	flag.Func("notifications", "a lifecycle notification config file", apply(notificationsFile))
	flag.Func("devices", "a device seed file", apply(devicesFile))
	flag.Func("accounts", "an account seed file", apply(accountsFile))
	flag.Func("companies", "a company seed file", apply(companiesFile))
	flag.Func("devmode", "enable dev mode", apply(devmode))
	flag.Parse()

	return ctx, flags
}

func envOrDef(name, def string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	return def
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}

func exitIf(err error, logger zerolog.Logger, msg string) {
	if err != nil {
		logger.Error().Err(err).Msg(msg)
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}
}
