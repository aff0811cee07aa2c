package domain

import "strings"

// EmptyTopLevelDomain is the serialized form of a country without domains.
const EmptyTopLevelDomain = "[]"

type Country struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Alpha2Code     string `db:"alpha2_code" json:"alpha2Code"`
	Alpha3Code     string `db:"alpha3_code" json:"alpha3Code"`
	Population     int64  `db:"population" json:"population"`
	Capital        string `db:"capital" json:"capital"`
	TopLevelDomain string `db:"top_level_domain" json:"topLevelDomain"`
	RegionID       int64  `db:"region_id" json:"region_id"`
	RegionName     string `db:"region_name" json:"region"`
}

// Normalize upper-cases the ISO codes and fills the serialized defaults.
// Every write path calls it, so stored codes are always upper-case.
func (c *Country) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Alpha2Code = strings.ToUpper(strings.TrimSpace(c.Alpha2Code))
	c.Alpha3Code = strings.ToUpper(strings.TrimSpace(c.Alpha3Code))
	c.Capital = strings.TrimSpace(c.Capital)
	if c.TopLevelDomain == "" {
		c.TopLevelDomain = EmptyTopLevelDomain
	}
}

// Differs reports whether other carries changes that must be written over c.
func (c *Country) Differs(other *Country) bool {
	return c.Alpha2Code != other.Alpha2Code ||
		c.Alpha3Code != other.Alpha3Code ||
		c.Population != other.Population ||
		c.Capital != other.Capital ||
		c.TopLevelDomain != other.TopLevelDomain ||
		c.RegionName != other.RegionName
}
