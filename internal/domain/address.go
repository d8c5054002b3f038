package domain

import (
	"regexp"
	"strings"

	"github.com/veloshop/checkout/pkg/errors"
)

var (
	// Indian mobile numbers: 10 digits starting 6-9.
	phonePattern  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	pinPattern    = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Region is an administrative region (state / union territory) for shipping.
type Region string

const (
	RegionAndhraPradesh   Region = "Andhra Pradesh"
	RegionAssam           Region = "Assam"
	RegionBihar           Region = "Bihar"
	RegionChhattisgarh    Region = "Chhattisgarh"
	RegionDelhi           Region = "Delhi"
	RegionGoa             Region = "Goa"
	RegionGujarat         Region = "Gujarat"
	RegionHaryana         Region = "Haryana"
	RegionHimachalPradesh Region = "Himachal Pradesh"
	RegionJharkhand       Region = "Jharkhand"
	RegionKarnataka       Region = "Karnataka"
	RegionKerala          Region = "Kerala"
	RegionMadhyaPradesh   Region = "Madhya Pradesh"
	RegionMaharashtra     Region = "Maharashtra"
	RegionOdisha          Region = "Odisha"
	RegionPunjab          Region = "Punjab"
	RegionRajasthan       Region = "Rajasthan"
	RegionTamilNadu       Region = "Tamil Nadu"
	RegionTelangana       Region = "Telangana"
	RegionUttarPradesh    Region = "Uttar Pradesh"
	RegionUttarakhand     Region = "Uttarakhand"
	RegionWestBengal      Region = "West Bengal"
)

var allRegions = map[Region]struct{}{
	RegionAndhraPradesh: {}, RegionAssam: {}, RegionBihar: {},
	RegionChhattisgarh: {}, RegionDelhi: {}, RegionGoa: {},
	RegionGujarat: {}, RegionHaryana: {}, RegionHimachalPradesh: {},
	RegionJharkhand: {}, RegionKarnataka: {}, RegionKerala: {},
	RegionMadhyaPradesh: {}, RegionMaharashtra: {}, RegionOdisha: {},
	RegionPunjab: {}, RegionRajasthan: {}, RegionTamilNadu: {},
	RegionTelangana: {}, RegionUttarPradesh: {}, RegionUttarakhand: {},
	RegionWestBengal: {},
}

// IsValid checks if the region is a known administrative region
func (r Region) IsValid() bool {
	_, ok := allRegions[r]
	return ok
}

// ShippingAddress is the mutable address draft owned by the checkout session
// until the shipping phase is confirmed.
type ShippingAddress struct {
	Name       string
	Phone      string
	Email      string
	Line1      string
	Line2      string
	City       string
	State      Region
	PostalCode string
	Country    string
}

// Validate checks required fields and formats. It returns nil or a
// FieldErrors mapping each failing field to a user-facing message.
func (a ShippingAddress) Validate() error {
	errs := errors.FieldErrors{}

	if strings.TrimSpace(a.Name) == "" {
		errs["name"] = "name is required"
	}
	if !phonePattern.MatchString(a.Phone) {
		errs["phone"] = "enter a valid 10-digit mobile number"
	}
	if a.Email != "" && !emailPattern.MatchString(a.Email) {
		errs["email"] = "enter a valid email address"
	}
	if strings.TrimSpace(a.Line1) == "" {
		errs["line1"] = "address is required"
	}
	if strings.TrimSpace(a.City) == "" {
		errs["city"] = "city is required"
	}
	if !a.State.IsValid() {
		errs["state"] = "select a state"
	}
	if !pinPattern.MatchString(a.PostalCode) {
		errs["postal_code"] = "enter a valid 6-digit postal code"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// HasCompletePIN reports whether the postal code is a complete 6-digit code,
// i.e. worth a serviceability check.
func (a ShippingAddress) HasCompletePIN() bool {
	return pinPattern.MatchString(a.PostalCode)
}
