package types

// Role is the access tier carried in the verified token claims.
type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleCompanyStaff Role = "CompanyStaff"
	RoleUser         Role = "User"
)

// ParseRole maps a claim value onto a known role. The boolean is false
// for anything that is not one of the three tiers.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleCompanyStaff, RoleUser:
		return Role(s), true
	}
	return "", false
}

const (
	RegistrationStatusRegistered   = "registered"
	RegistrationStatusUnregistered = "unregistered"
)

const (
	PowerActionOn  = "power-on"
	PowerActionOff = "power-off"
)

// ReportType enumerates the data sets the export endpoint can produce.
type ReportType string

const (
	ReportTypeDevice    ReportType = "device"
	ReportTypePowerLogs ReportType = "power-logs"
	ReportTypeAlertLogs ReportType = "alert-logs"
)

func ParseReportType(s string) (ReportType, bool) {
	switch ReportType(s) {
	case ReportTypeDevice, ReportTypePowerLogs, ReportTypeAlertLogs:
		return ReportType(s), true
	}
	return "", false
}
