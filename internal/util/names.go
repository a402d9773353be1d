package util

import (
	"math/rand/v2"
	"strings"
)

// Synthetic cases are prostate examinations, so only male names are drawn.
var (
	givenNames = []string{
		"James", "John", "Robert", "Michael", "William", "David", "Richard", "Thomas",
		"Charles", "Daniel", "Paul", "Andrew", "George", "Edward", "Peter", "Henry",
		"Jean", "Pierre", "Michel", "Alain", "Philippe", "Bernard", "Christian", "Jacques",
	}
	familyNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller", "Davis", "Wilson",
		"Taylor", "Clark", "Walker", "Hall", "Allen", "Young", "King", "Wright",
		"Martin", "Bernard", "Dubois", "Durand", "Leroy", "Moreau", "Laurent", "Girard",
	}
)

// PatientName draws a synthetic patient name in DICOM PN form,
// "FAMILY^Given".
func PatientName(rng *rand.Rand) string {
	family := familyNames[rng.IntN(len(familyNames))]
	given := givenNames[rng.IntN(len(givenNames))]
	return strings.ToUpper(family) + "^" + given
}

