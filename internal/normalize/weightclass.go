package normalize

import (
	"strings"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
)

var weightClassByName = map[string]fighter.WeightClass{
	"strawweight":           fighter.Strawweight,
	"flyweight":             fighter.Flyweight,
	"bantamweight":          fighter.Bantamweight,
	"featherweight":         fighter.Featherweight,
	"lightweight":           fighter.Lightweight,
	"welterweight":          fighter.Welterweight,
	"middleweight":          fighter.Middleweight,
	"light heavyweight":     fighter.LightHeavyweight,
	"heavyweight":           fighter.Heavyweight,
	"super heavyweight":     fighter.SuperHeavyweight,
	"women's strawweight":   fighter.WomensStrawweight,
	"women's flyweight":     fighter.WomensFlyweight,
	"women's bantamweight":  fighter.WomensBantamweight,
	"women's featherweight": fighter.WomensFeatherweight,
	"catchweight":           fighter.Catchweight,
	"catch weight":          fighter.Catchweight,
}

// WeightClassFromName maps a source division label to the closed enum.
// Unmapped labels return ok=false; the caller stores no division rather
// than guessing one.
func WeightClassFromName(raw string) (fighter.WeightClass, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	key = strings.ReplaceAll(key, "’", "'")
	key = strings.TrimSuffix(key, " bout")
	key = strings.TrimSuffix(key, " title")
	key = strings.TrimSpace(key)
	class, ok := weightClassByName[key]
	return class, ok
}
