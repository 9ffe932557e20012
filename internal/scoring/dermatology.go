package scoring

// ABCDEInputs are the melanoma warning criteria observed on one lesion.
type ABCDEInputs struct {
	Asymmetry bool `json:"asymmetry" yaml:"asymmetry"`
	Border    bool `json:"border" yaml:"border"`
	Color     bool `json:"color" yaml:"color"`
	Diameter  bool `json:"diameter" yaml:"diameter"`
	Evolution bool `json:"evolution" yaml:"evolution"`
}

func (a ABCDEInputs) criteria() []Component {
	flags := []struct {
		name string
		set  bool
	}{
		{"asymmetry", a.Asymmetry},
		{"border", a.Border},
		{"color", a.Color},
		{"diameter", a.Diameter},
		{"evolution", a.Evolution},
	}
	var out []Component
	for _, f := range flags {
		if f.set {
			out = append(out, Component{Name: f.name, Points: 1})
		}
	}
	return out
}

// ABCDE counts the criteria present, 0 to 5.
func ABCDE(a ABCDEInputs) int {
	return len(a.criteria())
}

func classifyABCDE(v int) (string, RiskLevel) {
	switch {
	case v >= 3:
		return "high risk (biopsy recommended)", RiskHigh
	case v == 2:
		return "moderate risk", RiskIntermediate
	case v == 1:
		return "low risk", RiskLow
	default:
		return "benign likely", RiskLow
	}
}

// ABCDE evaluates a lesion. No criterion checked is a valid score of 0.
func (c Calculator) ABCDE(a ABCDEInputs) Result {
	in := c.inputs()
	v := ABCDE(a)
	label, level := classifyABCDE(v)
	r := determined(KindABCDE, float64(v), formatInt(v)+"/5", label, level)
	r.Components = a.criteria()
	return in.finish(r)
}
