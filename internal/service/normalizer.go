package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/countryapi"
	"github.com/vibe-gaming/countries/internal/domain"
	"github.com/vibe-gaming/countries/pkg/logger"
)

var requiredKeys = []string{"name", "region", "alpha2Code", "alpha3Code", "population"}

var topLevelDomainPattern = regexp.MustCompile(`^\.[a-zA-Z]{2,}$`)

var rowValidator = validator.New(validator.WithRequiredStructEnabled())

type countryRow struct {
	Name       string `validate:"required,max=200"`
	Region     string `validate:"required,max=100"`
	Alpha2Code string `validate:"required,len=2,alpha"`
	Alpha3Code string `validate:"required,len=3,alpha"`
	Population int64  `validate:"gte=0"`
	Capital    string `validate:"max=100"`
}

// NormalizeRow validates one record of the listing and returns it ready to be
// written. Identity problems fail the row with ErrInvalidRow; problems in the
// optional capital and topLevelDomain fields are logged and defaulted.
func NormalizeRow(index int, raw countryapi.RawCountry) (domain.Country, error) {
	var missing []string
	for _, key := range requiredKeys {
		if v, ok := raw[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.Country{}, errors.Wrapf(ErrInvalidRow, "row %d missing required keys: %v", index, missing)
	}

	row := countryRow{}
	var fieldErrs []string
	for key, dst := range map[string]*string{
		"name":       &row.Name,
		"region":     &row.Region,
		"alpha2Code": &row.Alpha2Code,
		"alpha3Code": &row.Alpha3Code,
	} {
		s, ok := raw[key].(string)
		if !ok {
			fieldErrs = append(fieldErrs, key+": must be a string")
			continue
		}
		*dst = strings.TrimSpace(s)
	}

	population, err := toInt64(raw["population"])
	if err != nil {
		fieldErrs = append(fieldErrs, "population: "+err.Error())
	}
	row.Population = population

	row.Capital = normalizeCapital(index, raw["capital"])

	if len(fieldErrs) == 0 {
		if err := rowValidator.Struct(row); err != nil {
			var verr validator.ValidationErrors
			if !errors.As(err, &verr) {
				return domain.Country{}, errors.Wrapf(ErrInvalidRow, "row %d: %v", index, err)
			}
			for _, ferr := range verr {
				fieldErrs = append(fieldErrs, fmt.Sprintf("%s: failed %s", ferr.Field(), tagWithParam(ferr)))
			}
		}
	}
	if len(fieldErrs) > 0 {
		sort.Strings(fieldErrs)
		logger.Debug("row field errors", zap.Int("row", index), zap.Strings("errors", fieldErrs))
		return domain.Country{}, errors.Wrapf(ErrInvalidRow, "row %d invalid: %s", index, strings.Join(fieldErrs, "; "))
	}

	country := domain.Country{
		Name:           row.Name,
		Alpha2Code:     row.Alpha2Code,
		Alpha3Code:     row.Alpha3Code,
		Population:     row.Population,
		Capital:        row.Capital,
		TopLevelDomain: normalizeTopLevelDomain(row.Name, raw["topLevelDomain"]),
		RegionName:     row.Region,
	}
	country.Normalize()

	return country, nil
}

func tagWithParam(ferr validator.FieldError) string {
	if ferr.Param() == "" {
		return ferr.Tag()
	}
	return ferr.Tag() + "=" + ferr.Param()
}

func normalizeCapital(index int, v interface{}) string {
	switch capital := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(capital)
	default:
		logger.Warn("capital is not a string, using empty value", zap.Int("row", index), zap.Any("capital", v))
		return ""
	}
}

// normalizeTopLevelDomain keeps well-formed domains and serializes them as a compact JSON list.
func normalizeTopLevelDomain(country string, v interface{}) string {
	if v == nil {
		return domain.EmptyTopLevelDomain
	}

	values, ok := v.([]interface{})
	if !ok {
		logger.Warn("topLevelDomain is not a list, using empty list", zap.String("country", country), zap.Any("value", v))
		return domain.EmptyTopLevelDomain
	}

	cleaned := make([]string, 0, len(values))
	for _, item := range values {
		tld, ok := item.(string)
		if !ok {
			continue
		}
		tld = strings.TrimSpace(tld)
		if tld == "" {
			logger.Warn("empty top-level domain value", zap.String("country", country))
			continue
		}
		if !topLevelDomainPattern.MatchString(tld) {
			logger.Warn("invalid top-level domain format", zap.String("country", country), zap.String("tld", tld))
			continue
		}
		cleaned = append(cleaned, tld)
	}

	out, err := json.Marshal(cleaned)
	if err != nil {
		return domain.EmptyTopLevelDomain
	}
	return string(out)
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return floatToInt64(n)
	case string:
		return parseInt64(n)
	case fmt.Stringer:
		return parseInt64(n.String())
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}

func parseInt64(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("must be an integer, got %q", s)
	}
	return floatToInt64(f)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("must be an integer, got %v", f)
	}
	return int64(f), nil
}
