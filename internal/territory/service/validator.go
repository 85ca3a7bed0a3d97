package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/northlink/partnerhub/internal/geocode"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Validator resolves addresses against a fixed snapshot of territories. It
// holds no database handle; the service layer rebuilds one per request from
// the active territory set.
type Validator struct {
	territories []territorydomain.Territory
	geocoder    geocode.Geocoder
	validate    *validator.Validate
}

func NewValidator(territories []territorydomain.Territory, geocoder geocode.Geocoder) *Validator {
	return &Validator{
		territories: territories,
		geocoder:    geocoder,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

type candidate struct {
	territory  territorydomain.Territory
	method     territorydomain.MatchMethod
	confidence float64
}

// strategy is one tier of the matching cascade. Tiers run in declaration
// order and the first tier that yields candidates wins; later tiers are
// never consulted. A nil match predicate marks the geocoded polygon tier.
type strategy struct {
	method     territorydomain.MatchMethod
	confidence float64
	available  func() bool
	match      func(b territorydomain.Boundaries, addr territorydomain.Address) bool
}

func (v *Validator) strategies() []strategy {
	always := func() bool { return true }
	return []strategy{
		{
			method:     territorydomain.MethodZipCode,
			confidence: territorydomain.ConfidenceZipCode,
			available:  always,
			match: func(b territorydomain.Boundaries, addr territorydomain.Address) bool {
				return zipListContains(b.ZipCodes, addr.ZipCode)
			},
		},
		{
			method:     territorydomain.MethodCity,
			confidence: territorydomain.ConfidenceCity,
			available:  always,
			match: func(b territorydomain.Boundaries, addr territorydomain.Address) bool {
				return listContainsFold(b.Cities, addr.City)
			},
		},
		{
			method:     territorydomain.MethodState,
			confidence: territorydomain.ConfidenceState,
			available:  always,
			match: func(b territorydomain.Boundaries, addr territorydomain.Address) bool {
				return listContainsFold(b.States, addr.State)
			},
		},
		{
			method:     territorydomain.MethodCoordinates,
			confidence: territorydomain.ConfidenceCoordinates,
			available:  func() bool { return v.geocoder != nil },
		},
	}
}

// ValidateAddress walks the matching cascade and assigns the address to the
// highest-priority matching territory. An unmatched address yields an
// invalid result, not an error; only a malformed address errors.
func (v *Validator) ValidateAddress(ctx context.Context, addr territorydomain.Address, requestingPartnerID string) (*territorydomain.ValidationResult, error) {
	normalized, err := v.normalize(addr)
	if err != nil {
		return nil, err
	}

	var (
		matches  []candidate
		warnings []string
	)
	for _, strat := range v.strategies() {
		if !strat.available() {
			continue
		}
		var (
			cands []candidate
			warns []string
		)
		if strat.match != nil {
			cands = v.collectBoundary(normalized, strat)
		} else {
			cands, warns = v.collectCoordinates(ctx, normalized, strat)
		}
		warnings = append(warnings, warns...)
		if len(cands) > 0 {
			matches = cands
			break
		}
	}

	result := &territorydomain.ValidationResult{
		Method:   territorydomain.MethodState,
		Warnings: warnings,
	}

	if len(matches) > 0 {
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].territory.Priority != matches[j].territory.Priority {
				return matches[i].territory.Priority > matches[j].territory.Priority
			}
			return matches[i].confidence > matches[j].confidence
		})

		winner := matches[0]
		result.IsValid = true
		result.AssignedPartnerID = winner.territory.PartnerID
		result.TerritoryID = winner.territory.ID
		result.TerritoryName = winner.territory.Name
		result.Method = winner.method
		result.Confidence = winner.confidence

		for _, loser := range matches[1:] {
			result.ConflictingTerritories = append(result.ConflictingTerritories, territorydomain.ConflictingTerritory{
				ID:        loser.territory.ID,
				Name:      loser.territory.Name,
				PartnerID: loser.territory.PartnerID,
				Priority:  loser.territory.Priority,
			})
		}
		if len(matches) > 1 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("address matched %d territories; %q selected by priority", len(matches), winner.territory.Name))
		}
		if requestingPartnerID != "" && winner.territory.PartnerID != requestingPartnerID {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("territory %q belongs to partner %s, not requesting partner %s",
					winner.territory.Name, winner.territory.PartnerID, requestingPartnerID))
		}
	}

	if result.Confidence < territorydomain.LowConfidenceThreshold {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("match confidence %.2f is below %.2f; manual review recommended",
				result.Confidence, territorydomain.LowConfidenceThreshold))
	}
	return result, nil
}

// ValidateBulk validates each address independently. A malformed address
// becomes an invalid result carrying the validation failure as a warning;
// it never aborts the rest of the batch.
func (v *Validator) ValidateBulk(ctx context.Context, addrs []territorydomain.Address, requestingPartnerID string) ([]territorydomain.ValidationResult, error) {
	results := make([]territorydomain.ValidationResult, 0, len(addrs))
	for _, addr := range addrs {
		result, err := v.ValidateAddress(ctx, addr, requestingPartnerID)
		if err != nil {
			results = append(results, territorydomain.ValidationResult{
				IsValid:  false,
				Method:   territorydomain.MethodState,
				Warnings: []string{err.Error()},
			})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// Optimize reports boundary overlap for every territory against the rest of
// the set. ZIP overlap weighs heavier than city overlap because it pins the
// conflict to a finer region.
func (v *Validator) Optimize() []territorydomain.ConflictReport {
	const (
		zipWeight  = 2.0
		cityWeight = 1.0
	)

	reports := make([]territorydomain.ConflictReport, 0, len(v.territories))
	for i, t := range v.territories {
		report := territorydomain.ConflictReport{
			TerritoryID: t.ID,
			Name:        t.Name,
		}
		bounds := t.Boundaries.Data()

		for j, other := range v.territories {
			if i == j {
				continue
			}
			otherBounds := other.Boundaries.Data()
			for _, zip := range bounds.ZipCodes {
				if zipListContains(otherBounds.ZipCodes, zip) {
					report.Conflicts = append(report.Conflicts,
						fmt.Sprintf("zip code %s overlaps territory %s (%s)", zip, other.ID, other.Name))
					report.Score += zipWeight
				}
			}
			for _, city := range bounds.Cities {
				if listContainsFold(otherBounds.Cities, city) {
					report.Conflicts = append(report.Conflicts,
						fmt.Sprintf("city %s overlaps territory %s (%s)", city, other.ID, other.Name))
					report.Score += cityWeight
				}
			}
		}
		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Score > reports[j].Score
	})
	return reports
}

func (v *Validator) collectBoundary(addr territorydomain.Address, strat strategy) []candidate {
	var out []candidate
	for _, t := range v.territories {
		if excluded(t, addr) {
			continue
		}
		if strat.match(t.Boundaries.Data(), addr) {
			out = append(out, candidate{territory: t, method: strat.method, confidence: strat.confidence})
		}
	}
	return out
}

// collectCoordinates geocodes once and tests the point against every
// territory polygon. Geocoding failure degrades to a warning so the caller
// still gets the cascade's verdict.
func (v *Validator) collectCoordinates(ctx context.Context, addr territorydomain.Address, strat strategy) ([]candidate, []string) {
	point, err := v.geocoder.Geocode(ctx, addr)
	if err != nil {
		return nil, []string{fmt.Sprintf("geocoding failed: %v; coordinate matching skipped", err)}
	}

	var out []candidate
	for _, t := range v.territories {
		if excluded(t, addr) {
			continue
		}
		if PointInPolygon(point, t.Boundaries.Data().Polygon) {
			out = append(out, candidate{territory: t, method: strat.method, confidence: strat.confidence})
		}
	}
	return out, nil
}

// PointInPolygon runs a ray cast along the lng axis. Fewer than three
// vertices is not a polygon and never contains anything.
func PointInPolygon(p territorydomain.Coordinates, polygon []territorydomain.Coordinates) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Lat > p.Lat) != (pj.Lat > p.Lat) &&
			p.Lng < (pj.Lng-pi.Lng)*(p.Lat-pi.Lat)/(pj.Lat-pi.Lat)+pi.Lng {
			inside = !inside
		}
		j = i
	}
	return inside
}

func (v *Validator) normalize(addr territorydomain.Address) (territorydomain.Address, error) {
	addr.Street = strings.TrimSpace(addr.Street)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.ToUpper(strings.TrimSpace(addr.State))
	addr.ZipCode = strings.TrimSpace(addr.ZipCode)
	if addr.Country == "" {
		addr.Country = "US"
	}
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))

	var fields []territorydomain.FieldError
	if err := v.validate.Struct(addr); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return addr, err
		}
		for _, fe := range vErrs {
			fields = append(fields, territorydomain.FieldError{
				Field:   snakeCase(fe.Field()),
				Code:    fe.Tag(),
				Message: fe.Error(),
			})
		}
	}
	if addr.ZipCode != "" && !zipPattern.MatchString(addr.ZipCode) {
		fields = append(fields, territorydomain.FieldError{
			Field:   "zip_code",
			Code:    "format",
			Message: "zip code must be 5 digits with an optional +4 suffix",
		})
	}
	if len(fields) > 0 {
		return addr, &territorydomain.AddressError{Fields: fields}
	}
	return addr, nil
}

func excluded(t territorydomain.Territory, addr territorydomain.Address) bool {
	ex := t.Exclusions.Data()
	if zipListContains(ex.ZipCodes, addr.ZipCode) {
		return true
	}
	line := strings.ToLower(addr.Street + ", " + addr.City)
	for _, sub := range ex.AddressContains {
		if sub != "" && strings.Contains(line, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// zipListContains matches on the 5-digit base so a ZIP+4 address still hits
// a territory configured with plain ZIP codes.
func zipListContains(list []string, zip string) bool {
	base := zipBase(zip)
	for _, z := range list {
		if z == zip || zipBase(z) == base {
			return true
		}
	}
	return false
}

func zipBase(zip string) string {
	if i := strings.IndexByte(zip, '-'); i >= 0 {
		return zip[:i]
	}
	return zip
}

func listContainsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}

func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
