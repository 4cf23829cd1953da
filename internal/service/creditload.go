package service

// Credit load policy. Students in good standing carry a full load; students
// below the GPA threshold are limited to a reduced load.
const (
	FullLoadCredits    = 18
	ReducedLoadCredits = 9
	FullLoadMinGPA     = 2.0
)

// MaxCreditsFor returns the credit ceiling a GPA allows.
func MaxCreditsFor(gpa float64) int {
	if gpa >= FullLoadMinGPA {
		return FullLoadCredits
	}
	return ReducedLoadCredits
}

// CreditLoadFits reports whether adding newCredits to existingLoad stays
// within the ceiling. Hitting the ceiling exactly still fits.
func CreditLoadFits(existingLoad, newCredits int, gpa float64) bool {
	return existingLoad+newCredits <= MaxCreditsFor(gpa)
}
