package scoring

import "fmt"

// Specialty is an intake exam form.
type Specialty string

const (
	SpecialtyCardiology    Specialty = "cardiology"
	SpecialtyDermatology   Specialty = "dermatology"
	SpecialtyHematology    Specialty = "hematology"
	SpecialtyOphthalmology Specialty = "ophthalmology"
	SpecialtyPneumology    Specialty = "pneumology"
	SpecialtyTraumatology  Specialty = "traumatology"
)

// Definition describes a score for listings and reports.
type Definition struct {
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Specialty Specialty `json:"specialty"`
	Range     string    `json:"range"`
	Unit      string    `json:"unit,omitempty"`
}

var catalog = []Definition{
	{Kind: KindBMI, Title: "Body mass index", Specialty: SpecialtyPneumology, Range: "> 0", Unit: "kg/m2"},
	{Kind: KindPackYears, Title: "Pack-years", Specialty: SpecialtyPneumology, Range: ">= 0", Unit: "pack-years"},
	{Kind: KindCAT, Title: "COPD Assessment Test", Specialty: SpecialtyPneumology, Range: "0-40"},
	{Kind: KindBODE, Title: "BODE index", Specialty: SpecialtyPneumology, Range: "0-10"},
	{Kind: KindSixMinuteWalk, Title: "Six-minute walk", Specialty: SpecialtyPneumology, Range: ">= 0", Unit: "% predicted"},
	{Kind: KindCHA2DS2VASc, Title: "CHA2DS2-VASc", Specialty: SpecialtyCardiology, Range: "0-9"},
	{Kind: KindHASBLED, Title: "HAS-BLED", Specialty: SpecialtyCardiology, Range: "0-9"},
	{Kind: KindGRACE, Title: "GRACE", Specialty: SpecialtyCardiology, Range: "1-372"},
	{Kind: KindTIMI, Title: "TIMI UA/NSTEMI", Specialty: SpecialtyCardiology, Range: "0-7"},
	{Kind: KindABI, Title: "Ankle-brachial index", Specialty: SpecialtyCardiology, Range: ">= 0"},
	{Kind: KindABCDE, Title: "ABCDE melanoma criteria", Specialty: SpecialtyDermatology, Range: "0-5"},
	{Kind: KindDAS28, Title: "DAS28-ESR", Specialty: SpecialtyTraumatology, Range: "0-9.4"},
	{Kind: KindBASDAI, Title: "BASDAI", Specialty: SpecialtyTraumatology, Range: "0-10"},
	{Kind: KindWOMAC, Title: "WOMAC", Specialty: SpecialtyTraumatology, Range: "0-96"},
	{Kind: KindACREULAR, Title: "ACR/EULAR 2010 RA criteria", Specialty: SpecialtyTraumatology, Range: "0-10"},
}

// Catalog returns every supported score in display order. The slice is a copy.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition for kind.
func Lookup(kind Kind) (Definition, error) {
	for _, d := range catalog {
		if d.Kind == kind {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
