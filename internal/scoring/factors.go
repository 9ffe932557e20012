package scoring

import (
	"sort"
	"strings"
)

// Factor is a risk-factor tag checked on an exam form. Tags keep the
// vocabulary of the intake forms.
type Factor string

// CHA2DS2-VASc vocabulary.
const (
	FactorHeartFailure    Factor = "icc"
	FactorHypertension    Factor = "hta"
	FactorAge75           Factor = "edad-75"
	FactorDiabetes        Factor = "diabetes"
	FactorStroke          Factor = "ictus-avc"
	FactorVascularDisease Factor = "enfermedad-vascular"
	FactorAge65To74       Factor = "edad-65-74"
	FactorFemale          Factor = "sexo-femenino"
)

// HAS-BLED vocabulary.
const (
	BleedUncontrolledHypertension Factor = "hta-no-controlada"
	BleedAbnormalRenalFunction    Factor = "funcion-renal-alterada"
	BleedAbnormalLiverFunction    Factor = "funcion-hepatica-alterada"
	BleedPriorStroke              Factor = "ictus"
	BleedBleedingHistory          Factor = "sangrado"
	BleedLabileINR                Factor = "inr-labil"
	BleedElderly                  Factor = "edad-mayor-65"
	BleedDrugs                    Factor = "farmacos"
	BleedAlcohol                  Factor = "alcohol"
)

// TIMI UA/NSTEMI vocabulary.
const (
	TIMIAge65            Factor = "edad-65"
	TIMIThreeRiskFactors Factor = "factores-riesgo-3"
	TIMIKnownCAD         Factor = "estenosis-coronaria-50"
	TIMIAspirinLast7Days Factor = "aspirina-7-dias"
	TIMISevereAngina     Factor = "angina-severa"
	TIMISTDeviation      Factor = "desviacion-st"
	TIMIPositiveMarkers  Factor = "marcadores-positivos"
)

var cha2ds2vascWeights = map[Factor]int{
	FactorHeartFailure:    1,
	FactorHypertension:    1,
	FactorAge75:           2,
	FactorDiabetes:        1,
	FactorStroke:          2,
	FactorVascularDisease: 1,
	FactorAge65To74:       1,
	FactorFemale:          1,
}

var hasBledFactors = map[Factor]bool{
	BleedUncontrolledHypertension: true,
	BleedAbnormalRenalFunction:    true,
	BleedAbnormalLiverFunction:    true,
	BleedPriorStroke:              true,
	BleedBleedingHistory:          true,
	BleedLabileINR:                true,
	BleedElderly:                  true,
	BleedDrugs:                    true,
	BleedAlcohol:                  true,
}

var timiFactors = map[Factor]bool{
	TIMIAge65:            true,
	TIMIThreeRiskFactors: true,
	TIMIKnownCAD:         true,
	TIMIAspirinLast7Days: true,
	TIMISevereAngina:     true,
	TIMISTDeviation:      true,
	TIMIPositiveMarkers:  true,
}

// factorSet normalizes tags, dropping duplicates and splitting out tags not
// in the vocabulary. Known tags come back sorted so results are stable.
func factorSet(tags []Factor, known func(Factor) bool) (present, unknown []Factor) {
	seen := make(map[Factor]bool, len(tags))
	for _, t := range tags {
		t = Factor(strings.ToLower(strings.TrimSpace(string(t))))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if known(t) {
			present = append(present, t)
		} else {
			unknown = append(unknown, t)
		}
	}
	sort.Slice(present, func(i, j int) bool { return present[i] < present[j] })
	return present, unknown
}

func (in *inputs) unknownFactors(unknown []Factor) {
	for _, f := range unknown {
		in.warnf("unknown factor %q ignored", f)
	}
}
