// Package stats computes demographic aggregates over the full record set.
package stats

import (
	"census/internal/census"
)

// IncomeBucket is one entry of the income distribution.
type IncomeBucket struct {
	Income string `json:"income"`
	Count  int    `json:"count"`
}

// EducationBucket is one entry of the education distribution.
type EducationBucket struct {
	Education string `json:"education"`
	Count     int    `json:"count"`
}

// Snapshot is the aggregate result of one full pass over all records at a
// point in time. Distributions are ordered by first appearance, so identical
// inputs always marshal identically.
type Snapshot struct {
	PWD                   int               `json:"pwd"`
	SoloParent            int               `json:"soloParent"`
	SeniorCitizen         int               `json:"seniorCitizen"`
	Pregnant              int               `json:"pregnant"`
	Households            int               `json:"households"`
	IncomeDistribution    []IncomeBucket    `json:"incomeDistribution"`
	EducationDistribution []EducationBucket `json:"educationDistribution"`
}

// distribution counts labels while preserving first-seen order.
type distribution struct {
	order  []string
	counts map[string]int
}

func newDistribution() *distribution {
	return &distribution{counts: make(map[string]int)}
}

func (d *distribution) add(label string) {
	if label == "" {
		return
	}
	if _, seen := d.counts[label]; !seen {
		d.order = append(d.order, label)
	}
	d.counts[label]++
}

// Compute is a pure function over a point-in-time snapshot of all records.
// It recomputes everything on every call; cost is linear in records plus
// members.
func Compute(records []census.HouseholdRecord) Snapshot {
	snap := Snapshot{Households: len(records)}
	income := newDistribution()
	education := newDistribution()

	countSector := func(sector string) {
		// Exact match, no case folding. Anything else is "no sector".
		switch sector {
		case census.SectorPWD:
			snap.PWD++
		case census.SectorSoloParent:
			snap.SoloParent++
		case census.SectorSeniorCitizen:
			snap.SeniorCitizen++
		case census.SectorPregnant:
			snap.Pregnant++
		}
	}

	for i := range records {
		rec := &records[i]

		countSector(rec.FamilyHeadSector)
		income.add(rec.FamilyHeadIncome)
		education.add(rec.HeadEducation())

		// Members follow the head's sector and education rules but never
		// contribute to the income distribution.
		for _, m := range rec.HouseholdMembers {
			countSector(m.Sector)
			education.add(m.Education)
		}
	}

	snap.IncomeDistribution = make([]IncomeBucket, 0, len(income.order))
	for _, label := range income.order {
		snap.IncomeDistribution = append(snap.IncomeDistribution, IncomeBucket{Income: label, Count: income.counts[label]})
	}
	snap.EducationDistribution = make([]EducationBucket, 0, len(education.order))
	for _, label := range education.order {
		snap.EducationDistribution = append(snap.EducationDistribution, EducationBucket{Education: label, Count: education.counts[label]})
	}
	return snap
}
