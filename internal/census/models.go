package census

import (
	"fmt"
	"strings"
	"time"

	dErrors "census/pkg/domain-errors"
)

// Sector is the fixed demographic vocabulary assignable to the family head or
// any member. Values outside this set are kept verbatim but contribute to no
// tally.
const (
	SectorRegular       = "Regular"
	SectorPWD           = "PWD"
	SectorSeniorCitizen = "Senior Citizen"
	SectorSoloParent    = "Solo Parent"
	SectorPregnant      = "Pregnant"
)

// HouseholdMember is an occupant attached to a record, distinct from the
// family head. Member identity is ordinal within its parent record.
type HouseholdMember struct {
	Name          string `json:"name"`
	Relationship  string `json:"relationship"`
	Age           int    `json:"age"`
	Sex           string `json:"sex,omitempty"`
	CivilStatus   string `json:"civilStatus,omitempty"`
	Occupation    string `json:"occupation,omitempty"`
	Education     string `json:"education,omitempty"`
	Sector        string `json:"sector,omitempty"`
	MonthlyIncome string `json:"monthlyIncome,omitempty"`
}

// HouseholdRecord is one census submission: a dwelling, its family head, and
// its occupants. JSON names follow the upstream wire format consumed by the
// dashboard.
type HouseholdRecord struct {
	ID              string `json:"id"`
	HouseholdNumber int64  `json:"householdNumber"`
	Address         string `json:"address"`
	Sitio           string `json:"sitio,omitempty"`

	FamilyHeadName        string `json:"familyHeadName"`
	FamilyHeadAge         int    `json:"familyHeadAge"`
	FamilyHeadSex         string `json:"familyHeadSex"`
	FamilyHeadCivilStatus string `json:"familyHeadCivilStatus"`
	FamilyHeadOccupation  string `json:"familyHeadOccupation,omitempty"`
	FamilyHeadIncome      string `json:"familyHeadIncome,omitempty"`
	FamilyHeadEducation   string `json:"familyHeadEducation,omitempty"`
	FamilyHeadReligion    string `json:"familyHeadReligion,omitempty"`
	FamilyHeadSector      string `json:"familyHeadSector,omitempty"`

	HouseholdMembers []HouseholdMember `json:"householdMembers"`

	HouseType         string `json:"houseType,omitempty"`
	RoofMaterial      string `json:"roofMaterial,omitempty"`
	WallMaterial      string `json:"wallMaterial,omitempty"`
	FloorMaterial     string `json:"floorMaterial,omitempty"`
	WaterSource       string `json:"waterSource,omitempty"`
	ToiletFacility    string `json:"toiletFacility,omitempty"`
	ElectricitySource string `json:"electricitySource,omitempty"`
	CookingFuel       string `json:"cookingFuel,omitempty"`

	ContactNumber    string `json:"contactNumber,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`

	// "Yes"/"No" strings, as submitted by the form layer.
	HasDisabledMember string `json:"hasDisabledMember,omitempty"`
	HasSeniorCitizen  string `json:"hasSeniorCitizen,omitempty"`
	HasPregnantMember string `json:"hasPregnantMember,omitempty"`
	HasSoloParent     string `json:"hasSoloParent,omitempty"`
	AdditionalNotes   string `json:"additionalNotes,omitempty"`

	// LegacyEducation predates familyHeadEducation; older records carry the
	// head's education here. Reads prefer FamilyHeadEducation.
	LegacyEducation string `json:"education,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HeadEducation returns the head's education label, preferring the current
// field over the legacy one. Empty when neither is set.
func (r *HouseholdRecord) HeadEducation() string {
	if r.FamilyHeadEducation != "" {
		return r.FamilyHeadEducation
	}
	return r.LegacyEducation
}

// Validate enforces the required fields for a complete record. It is called
// before a household number is allocated so rejected submissions never burn
// one.
func (r *HouseholdRecord) Validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	if strings.TrimSpace(r.FamilyHeadName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "familyHeadName is required")
	}
	if r.FamilyHeadAge <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "familyHeadAge must be a positive number")
	}
	if strings.TrimSpace(r.FamilyHeadSex) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "familyHeadSex is required")
	}
	if strings.TrimSpace(r.FamilyHeadCivilStatus) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "familyHeadCivilStatus is required")
	}
	for i, m := range r.HouseholdMembers {
		if strings.TrimSpace(m.Name) == "" {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("householdMembers[%d].name is required", i))
		}
		if strings.TrimSpace(m.Relationship) == "" {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("householdMembers[%d].relationship is required", i))
		}
		if m.Age < 0 {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("householdMembers[%d].age must not be negative", i))
		}
	}
	return nil
}

// UpdateParams carries a partial update. Only non-nil fields are applied; the
// household number is deliberately absent so an update can never move it even
// when present in the request body. The member list, when supplied, replaces
// the stored list wholesale.
type UpdateParams struct {
	Address *string `json:"address"`
	Sitio   *string `json:"sitio"`

	FamilyHeadName        *string `json:"familyHeadName"`
	FamilyHeadAge         *int    `json:"familyHeadAge"`
	FamilyHeadSex         *string `json:"familyHeadSex"`
	FamilyHeadCivilStatus *string `json:"familyHeadCivilStatus"`
	FamilyHeadOccupation  *string `json:"familyHeadOccupation"`
	FamilyHeadIncome      *string `json:"familyHeadIncome"`
	FamilyHeadEducation   *string `json:"familyHeadEducation"`
	FamilyHeadReligion    *string `json:"familyHeadReligion"`
	FamilyHeadSector      *string `json:"familyHeadSector"`

	HouseholdMembers *[]HouseholdMember `json:"householdMembers"`

	HouseType         *string `json:"houseType"`
	RoofMaterial      *string `json:"roofMaterial"`
	WallMaterial      *string `json:"wallMaterial"`
	FloorMaterial     *string `json:"floorMaterial"`
	WaterSource       *string `json:"waterSource"`
	ToiletFacility    *string `json:"toiletFacility"`
	ElectricitySource *string `json:"electricitySource"`
	CookingFuel       *string `json:"cookingFuel"`

	ContactNumber    *string `json:"contactNumber"`
	EmergencyContact *string `json:"emergencyContact"`

	HasDisabledMember *string `json:"hasDisabledMember"`
	HasSeniorCitizen  *string `json:"hasSeniorCitizen"`
	HasPregnantMember *string `json:"hasPregnantMember"`
	HasSoloParent     *string `json:"hasSoloParent"`
	AdditionalNotes   *string `json:"additionalNotes"`

	LegacyEducation *string `json:"education"`
}

// Apply merges the supplied fields into rec. ID, household number and
// creation timestamp are untouched.
func (p *UpdateParams) Apply(rec *HouseholdRecord) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	setStr(&rec.Address, p.Address)
	setStr(&rec.Sitio, p.Sitio)
	setStr(&rec.FamilyHeadName, p.FamilyHeadName)
	if p.FamilyHeadAge != nil {
		rec.FamilyHeadAge = *p.FamilyHeadAge
	}
	setStr(&rec.FamilyHeadSex, p.FamilyHeadSex)
	setStr(&rec.FamilyHeadCivilStatus, p.FamilyHeadCivilStatus)
	setStr(&rec.FamilyHeadOccupation, p.FamilyHeadOccupation)
	setStr(&rec.FamilyHeadIncome, p.FamilyHeadIncome)
	setStr(&rec.FamilyHeadEducation, p.FamilyHeadEducation)
	setStr(&rec.FamilyHeadReligion, p.FamilyHeadReligion)
	setStr(&rec.FamilyHeadSector, p.FamilyHeadSector)
	if p.HouseholdMembers != nil {
		rec.HouseholdMembers = append([]HouseholdMember(nil), (*p.HouseholdMembers)...)
	}
	setStr(&rec.HouseType, p.HouseType)
	setStr(&rec.RoofMaterial, p.RoofMaterial)
	setStr(&rec.WallMaterial, p.WallMaterial)
	setStr(&rec.FloorMaterial, p.FloorMaterial)
	setStr(&rec.WaterSource, p.WaterSource)
	setStr(&rec.ToiletFacility, p.ToiletFacility)
	setStr(&rec.ElectricitySource, p.ElectricitySource)
	setStr(&rec.CookingFuel, p.CookingFuel)
	setStr(&rec.ContactNumber, p.ContactNumber)
	setStr(&rec.EmergencyContact, p.EmergencyContact)
	setStr(&rec.HasDisabledMember, p.HasDisabledMember)
	setStr(&rec.HasSeniorCitizen, p.HasSeniorCitizen)
	setStr(&rec.HasPregnantMember, p.HasPregnantMember)
	setStr(&rec.HasSoloParent, p.HasSoloParent)
	setStr(&rec.AdditionalNotes, p.AdditionalNotes)
	setStr(&rec.LegacyEducation, p.LegacyEducation)
}
