package catalog

import (
	"strings"
	"unicode"
)

// greekLetters lists the Bayer letters with their catalog abbreviation.
var greekLetters = []struct {
	abbrev, name, letter string
}{
	{"alp", "alpha", "α"},
	{"bet", "beta", "β"},
	{"gam", "gamma", "γ"},
	{"del", "delta", "δ"},
	{"eps", "epsilon", "ε"},
	{"zet", "zeta", "ζ"},
	{"eta", "eta", "η"},
	{"the", "theta", "θ"},
	{"iot", "iota", "ι"},
	{"kap", "kappa", "κ"},
	{"lam", "lambda", "λ"},
	{"mu", "mu", "μ"},
	{"nu", "nu", "ν"},
	{"xi", "xi", "ξ"},
	{"omi", "omicron", "ο"},
	{"pi", "pi", "π"},
	{"rho", "rho", "ρ"},
	{"sig", "sigma", "σ"},
	{"tau", "tau", "τ"},
	{"ups", "upsilon", "υ"},
	{"phi", "phi", "φ"},
	{"chi", "chi", "χ"},
	{"psi", "psi", "ψ"},
	{"ome", "omega", "ω"},
}

// ExpandBayer turns a catalog Bayer abbreviation such as "Alp" or "Zet1" into
// its Greek letter, keeping any numeric suffix: "α", "ζ1". Full letter names
// ("alpha") are accepted as well. The second result is false for anything
// that is not a Bayer letter.
func ExpandBayer(abbrev string) (string, bool) {
	abbrev = strings.TrimSpace(abbrev)
	split := strings.IndexFunc(abbrev, unicode.IsDigit)
	if split < 0 {
		split = len(abbrev)
	}
	word, suffix := strings.ToLower(abbrev[:split]), abbrev[split:]
	if word == "" {
		return "", false
	}

	for _, g := range greekLetters {
		if word == g.abbrev || word == g.name {
			return g.letter + suffix, true
		}
	}
	return "", false
}
