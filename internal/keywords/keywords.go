// Package keywords holds the hand-curated term registries driving relevance
// classification. A Registry is built once at startup and treated as read-only
// afterwards.
package keywords

import (
	"sort"
	"strings"

	"NormasScanner/internal/textnorm"
)

// Lists carries the raw curated phrase lists before normalization. Alternate
// sets can be supplied through configuration for testing or retuning.
type Lists struct {
	Keywords        []string `yaml:"keywords"`
	MandatoryTerms  []string `yaml:"mandatoryTerms"`
	ExcludedSectors []string `yaml:"excludedSectors"`
	PrioritySectors []string `yaml:"prioritySectors"`
}

// Registry is the normalized, immutable view consumed by the classifier and
// the pipeline. Slices keep their curation order so matching is deterministic.
type Registry struct {
	Keywords        []string
	MandatoryTerms  []string
	ExcludedSectors []string
	PrioritySectors []string
	TechnicalTokens []string
}

// minTokenLen filters out short connective words when deriving technical tokens.
const minTokenLen = 2

// NewRegistry normalizes every phrase and derives the technical-token set:
// each distinct word longer than two normalized characters found in the
// keyword phrases.
func NewRegistry(lists Lists) *Registry {
	reg := &Registry{
		Keywords:        normalizeAll(lists.Keywords),
		MandatoryTerms:  normalizeAll(lists.MandatoryTerms),
		ExcludedSectors: normalizeAll(lists.ExcludedSectors),
		PrioritySectors: normalizeAll(lists.PrioritySectors),
	}

	seen := map[string]struct{}{}
	for _, kw := range reg.Keywords {
		for _, tok := range strings.Fields(kw) {
			if len(tok) <= minTokenLen {
				continue
			}
			seen[tok] = struct{}{}
		}
	}
	reg.TechnicalTokens = make([]string, 0, len(seen))
	for tok := range seen {
		reg.TechnicalTokens = append(reg.TechnicalTokens, tok)
	}
	sort.Strings(reg.TechnicalTokens)

	return reg
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := textnorm.Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// DefaultLists returns the curated hydrocarbon-sector term lists for the
// El Peruano gazette.
func DefaultLists() Lists {
	return Lists{
		Keywords: []string{
			"hidrocarburos", "hidrocarburo", "hidrocarburifero", "hidrocarburifera",
			"petroleo", "petrolero", "petrolera", "petrolífero",
			"gas natural", "gas licuado", "gnv", "glp", "gnl",
			"perupetro", "osinergmin", "minem", "oefa", "perúpetro",
			"ministerio de energia", "energia y minas", "dge", "dgh",
			"organismo de evaluacion y fiscalizacion ambiental", "produce",
			"oleoducto", "gasoducto", "poliducto", "refineria", "refinerias",
			"lote", "lotes", "pozo", "pozos", "yacimiento", "yacimientos",
			"planta de gas", "terminal", "estacion de servicio",
			"planta de fraccionamiento", "planta de procesamiento",
			"exploracion", "explotacion", "produccion petrolera", "perforacion",
			"upstream", "downstream", "midstream", "extraccion",
			"transporte de hidrocarburos", "distribucion de gas", "banda de precios",
			"combustible", "combustibles", "diesel", "gasolina", "kerosene", "diesel b5",
			"turbo", "residual", "bunker", "asfalto", "nafta", "gasohol", "electromovilidad",
			"contrato de licencia", "canon gasifero", "canon petrolero",
			"regalia", "concesion hidrocarburos", "licencia de hidrocarburos",
			"designan", "recargos",
			"reservas hidrocarburos", "sismica", "geofisica petrolera",
			"cuenca sedimentaria", "barril", "bep", "barriles equivalentes",
			"estado de emergencia", "lima", "pcm", "parque eolico", "ductos",
			"electricidad", "mineria", "electricas", "energeticos", "fotovoltaica",
			"distribución natural", "fijaron precios", "energeticos renovables",
			"recursos energeticos", "electrica",
		},
		MandatoryTerms: []string{
			"hidrocarburos", "hidrocarburo", "petroleo", "gas natural",
			"perupetro", "gnv", "glp", "oleoducto", "gasoducto", "refineria",
			"minem", "osinergmin", "ministerio de energia y minas",
			"organismo supervisor de la inversión en energía y minería", "oefa",
		},
		ExcludedSectors: []string{
			"educacion", "salud", "defensa", "interior", "mujer",
			"desarrollo social", "trabajo", "migraciones", "comercio exterior",
			"cultura", "vivienda", "comunicaciones", "justicia",
			"relaciones exteriores", "midis",
		},
		PrioritySectors: []string{
			"osinergmin", "perupetro", "minem",
			"ministerio de energia y minas",
			"organismo supervisor de la inversion en energia y mineria",
		},
	}
}
