package database

import (
	"gorm.io/gorm"
)

type ConditionFunc func(*Condition) *Condition

// Condition collects the row predicates a caller may apply to a
// listing query. Company scoping and user supplied filters compose
// through the same mechanism.
type Condition struct {
	DeviceNo    string
	CompanyName string
	Status      string

	Companies []string
	scoped    bool
}

func NewCondition(conditions ...ConditionFunc) *Condition {
	c := &Condition{}
	for _, apply := range conditions {
		c = apply(c)
	}
	return c
}

// WithDeviceNo narrows to device numbers containing the given
// fragment.
func WithDeviceNo(deviceNo string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.DeviceNo = deviceNo
		return c
	}
}

// WithCompanyName narrows to company names containing the given
// fragment.
func WithCompanyName(companyName string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.CompanyName = companyName
		return c
	}
}

// WithStatus narrows to an exact registration status.
func WithStatus(status string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Status = status
		return c
	}
}

// WithCompanies restricts the result to rows owned by any of the named
// companies. An empty slice still marks the query as scoped, yielding
// no rows.
func WithCompanies(companies []string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Companies = companies
		c.scoped = true
		return c
	}
}

// applyJoined composes the predicates onto a monitoring event query
// that has been joined with the devices table.
func (c *Condition) applyJoined(query *gorm.DB) *gorm.DB {
	if c.scoped {
		query = query.Where("devices.company_name IN ?", c.Companies)
	}
	if c.DeviceNo != "" {
		query = query.Where("devices.device_no LIKE ?", "%"+c.DeviceNo+"%")
	}
	if c.CompanyName != "" {
		query = query.Where("devices.company_name LIKE ?", "%"+c.CompanyName+"%")
	}
	if c.Status != "" {
		query = query.Where("devices.registration_status = ?", c.Status)
	}
	return query
}

// apply composes the predicates onto a device query.
func (c *Condition) apply(query *gorm.DB) *gorm.DB {
	if c.scoped {
		query = query.Where("company_name IN ?", c.Companies)
	}
	if c.DeviceNo != "" {
		query = query.Where("device_no LIKE ?", "%"+c.DeviceNo+"%")
	}
	if c.CompanyName != "" {
		query = query.Where("company_name LIKE ?", "%"+c.CompanyName+"%")
	}
	if c.Status != "" {
		query = query.Where("registration_status = ?", c.Status)
	}
	return query
}
