package scoring

import "errors"

// ErrHeightRequired is returned by BMI for a non-positive height.
var ErrHeightRequired = errors.New("height must be greater than zero")

// Anthropometry is the weight/height block shared by all exam forms.
type Anthropometry struct {
	WeightKg *float64 `json:"weight_kg,omitempty" yaml:"weight_kg"`
	HeightCm *float64 `json:"height_cm,omitempty" yaml:"height_cm"`
}

// BMI returns weight / height² in kg/m², rounded to one decimal.
func BMI(weightKg, heightCm float64) (float64, error) {
	if heightCm <= 0 {
		return 0, ErrHeightRequired
	}
	m := heightCm / 100
	return round(weightKg/(m*m), 1), nil
}

func classifyBMI(bmi float64) (string, RiskLevel) {
	switch {
	case bmi < 18.5:
		return "underweight", RiskIntermediate
	case bmi < 25:
		return "normal weight", RiskLow
	case bmi < 30:
		return "overweight", RiskIntermediate
	case bmi < 35:
		return "obesity class I", RiskHigh
	case bmi < 40:
		return "obesity class II", RiskHigh
	default:
		return "obesity class III", RiskCritical
	}
}

// BMI evaluates body mass index with the WHO adult categories.
func (c Calculator) BMI(a Anthropometry) Result {
	in := c.inputs()
	weight := read(in, "weight_kg", a.WeightKg, 0)
	height := read(in, "height_cm", a.HeightCm, 0)
	if r, short := in.short(KindBMI); short {
		return r
	}
	if weight < 0 {
		return in.invalid(KindBMI, "weight must not be negative")
	}
	bmi, err := BMI(weight, height)
	if err != nil {
		return in.invalid(KindBMI, err.Error())
	}
	label, level := classifyBMI(bmi)
	return in.finish(determined(KindBMI, bmi, formatFloat(bmi, 1), label, level))
}
