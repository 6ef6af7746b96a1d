package fighter

import "strings"

const (
	GenderUnspecified = ""
	GenderMale        = "MALE"
	GenderFemale      = "FEMALE"
)

// WeightClass is the closed set of divisions the pipeline recognizes.
// Unmapped source strings stay empty rather than inventing a division.
type WeightClass string

const (
	WeightClassUnknown  WeightClass = ""
	Strawweight         WeightClass = "STRAWWEIGHT"
	Flyweight           WeightClass = "FLYWEIGHT"
	Bantamweight        WeightClass = "BANTAMWEIGHT"
	Featherweight       WeightClass = "FEATHERWEIGHT"
	Lightweight         WeightClass = "LIGHTWEIGHT"
	Welterweight        WeightClass = "WELTERWEIGHT"
	Middleweight        WeightClass = "MIDDLEWEIGHT"
	LightHeavyweight    WeightClass = "LIGHT_HEAVYWEIGHT"
	Heavyweight         WeightClass = "HEAVYWEIGHT"
	WomensStrawweight   WeightClass = "WOMENS_STRAWWEIGHT"
	WomensFlyweight     WeightClass = "WOMENS_FLYWEIGHT"
	WomensBantamweight  WeightClass = "WOMENS_BANTAMWEIGHT"
	WomensFeatherweight WeightClass = "WOMENS_FEATHERWEIGHT"
	Catchweight         WeightClass = "CATCHWEIGHT"
	SuperHeavyweight    WeightClass = "SUPER_HEAVYWEIGHT"
)

// Record is a professional win/loss/draw line. Components are never negative.
type Record struct {
	Wins   int
	Losses int
	Draws  int
}

// Fighter is the canonical fighter entity. Identity is the case-normalized
// (FirstName, LastName) pair; fighters sharing both names collide, a known
// limitation carried from the source data which offers no disambiguator.
type Fighter struct {
	ID              int64
	FirstName       string
	LastName        string
	Nickname        string
	Record          *Record
	WeightClass     WeightClass
	Gender          string
	Champion        bool
	CountryCode     string
	ProfileImageRef string

	// Derived stats recomputed from persisted fights after each import.
	FinishCount int
	WinStreak   int
}

// NameKey is the natural upsert key.
type NameKey struct {
	FirstName string
	LastName  string
}

func (f Fighter) Key() NameKey {
	return NameKey{
		FirstName: NormalizeNamePart(f.FirstName),
		LastName:  NormalizeNamePart(f.LastName),
	}
}

func NewNameKey(first, last string) NameKey {
	return NameKey{
		FirstName: NormalizeNamePart(first),
		LastName:  NormalizeNamePart(last),
	}
}

func NormalizeNamePart(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// GenderForClass infers gender where the division is sex-specific.
func GenderForClass(class WeightClass) string {
	switch class {
	case WomensStrawweight, WomensFlyweight, WomensBantamweight, WomensFeatherweight:
		return GenderFemale
	case Strawweight, Flyweight, Bantamweight, Featherweight, Lightweight,
		Welterweight, Middleweight, LightHeavyweight, Heavyweight,
		SuperHeavyweight:
		return GenderMale
	default:
		return GenderUnspecified
	}
}
