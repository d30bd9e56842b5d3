package profile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ID identifies a stakeholder profile in the registry.
type ID string

const (
	// ProductionManager targets farm operations: cost and efficiency metrics.
	ProductionManager ID = "gerente_produccion"
	// Investor targets profitability and balance-sheet health.
	Investor ID = "inversor"
	// GeneralManager targets owners who need both operations and finance.
	GeneralManager ID = "gerente_general"
	// FieldStaff targets barn staff with a short plain-language subset.
	FieldStaff ID = "personal_campo"
)

// Profile is the immutable set of narrative preferences for one audience.
type Profile struct {
	ID          ID
	DisplayName string
	// Objective describes what the reader wants to learn from the report.
	Objective string
	// KeyMetrics decides both which metrics reach the prompt and the order in
	// which they are listed.
	KeyMetrics []string
	Tone       string
	Emphasis   string
	// ExamplePhrases is illustrative only and is never sent to the model.
	ExamplePhrases string
}

// ErrNotFound is returned for identifiers that are not in the registry.
var ErrNotFound = errors.New("profile not found")

// order is the fixed display order used by selectors.
var order = []ID{ProductionManager, Investor, GeneralManager, FieldStaff}

// Get returns the profile registered under id. Aliases are accepted, see
// Normalize. The returned value shares nothing with the registry.
func Get(id string) (Profile, error) {
	key := Normalize(id)
	p, ok := registry[key]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrNotFound, id, strings.Join(IDs(), ", "))
	}
	return p.clone(), nil
}

// All returns every profile in display order.
func All() []Profile {
	out := make([]Profile, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id].clone())
	}
	return out
}

// IDs returns the registered identifiers in display order.
func IDs() []string {
	out := make([]string, 0, len(order))
	for _, id := range order {
		out = append(out, string(id))
	}
	return out
}

// Normalize maps user input to a canonical ID. Unknown input is returned
// lower-cased and trimmed so that Get can report it.
func Normalize(s string) ID {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	switch v {
	case "gerente_produccion", "produccion", "production", "production_manager", "operations":
		return ProductionManager
	case "inversor", "inversionista", "investor":
		return Investor
	case "gerente_general", "dueno", "dueño", "owner", "general_manager":
		return GeneralManager
	case "personal_campo", "campo", "field", "field_staff", "staff":
		return FieldStaff
	default:
		return ID(v)
	}
}

// HasMetric reports whether name is one of the profile's key metrics, exact
// match only.
func (p Profile) HasMetric(name string) bool {
	return slices.Contains(p.KeyMetrics, name)
}

func (p Profile) clone() Profile {
	p.KeyMetrics = slices.Clone(p.KeyMetrics)
	return p
}

const (
	mIngresos      = "Ingresos Totales"
	mUtilBruta     = "Utilidad Bruta"
	mUtilNeta      = "Utilidad Neta"
	mMargenBruto   = "Margen Bruto (%)"
	mMargenNeto    = "Margen Neto (%)"
	mROI           = "Retorno sobre la Inversión (ROI)"
	mCostoAlimento = "Costo Alimento"
	mCostoSalud    = "Costo Salud Animal"
	mCostoMO       = "Costo Mano Obra"
	mFCR           = "FCR (Relación Conversión Alimento)"
	mMortalidad    = "Mortalidad (%)"
	mCerdos        = "Cantidad Cerdos Vendidos"
	mPeso          = "Peso Promedio Venta (kg)"
	mActivos       = "Activos Totales"
	mPasivos       = "Pasivos Totales"
	mPatrimonio    = "Patrimonio"
	mLiquidez      = "Razón de Liquidez"
	mApalanc       = "Razón de Apalancamiento"
)

var registry = map[ID]Profile{
	ProductionManager: {
		ID:          ProductionManager,
		DisplayName: "Gerente de Producción (Industria Porcina)",
		Objective:   "comprender el desempeño financiero en relación con las operaciones de la granja, identificar áreas de mejora en costos operativos (especialmente alimento y salud animal) y eficiencia de producción.",
		KeyMetrics: []string{
			mIngresos, mUtilBruta, mCostoAlimento, mCostoSalud, mCostoMO,
			mFCR, mMortalidad, mCerdos, mPeso,
		},
		Tone:           "analítico, enfocado en la acción, claro y directo, evitando jerga contable compleja.",
		Emphasis:       "Explica cómo las métricas operativas impactan los resultados financieros. Resalta los costos clave y la eficiencia. Sugiere áreas generales de enfoque para optimización.",
		ExamplePhrases: "El costo de alimento por cerdo vendido es crucial. ¿Cómo estamos en FCR? La mortalidad impacta directamente la utilidad.",
	},
	Investor: {
		ID:          Investor,
		DisplayName: "Inversor General",
		Objective:   "evaluar la rentabilidad general, el crecimiento, la salud financiera y los riesgos asociados con la inversión en la empresa.",
		KeyMetrics: []string{
			mIngresos, mUtilBruta, mUtilNeta, mMargenBruto, mMargenNeto, mROI,
			mActivos, mPasivos, mPatrimonio, mLiquidez, mApalanc,
		},
		Tone:           "formal, enfocado en el retorno de la inversión, conciso y estratégico.",
		Emphasis:       "Resume los puntos clave de rendimiento financiero, el crecimiento y la sostenibilidad. Identifica los principales generadores de ingresos y costos, y aborda brevemente la solidez del balance y las perspectivas futuras.",
		ExamplePhrases: "La rentabilidad ha mejorado este trimestre. Nuestro margen bruto es competitivo.",
	},
	GeneralManager: {
		ID:          GeneralManager,
		DisplayName: "Gerente General / Propietario",
		Objective:   "tener una visión integral del negocio que conecte la eficiencia operativa con la rentabilidad, la liquidez y el endeudamiento, para tomar decisiones estratégicas.",
		KeyMetrics: []string{
			mIngresos, mUtilBruta, mUtilNeta, mMargenBruto, mMargenNeto,
			mCostoAlimento, mCostoSalud, mCostoMO, mFCR, mMortalidad, mCerdos,
			mActivos, mPasivos, mPatrimonio, mLiquidez, mApalanc,
		},
		Tone:           "ejecutivo, equilibrado y orientado a decisiones, sin tecnicismos innecesarios.",
		Emphasis:       "Conecta los resultados operativos con la rentabilidad y la posición financiera. Señala riesgos de liquidez o endeudamiento y prioriza las decisiones de mayor impacto.",
		ExamplePhrases: "La eficiencia alimenticia sostiene el margen. La liquidez permite financiar el próximo ciclo.",
	},
	FieldStaff: {
		ID:          FieldStaff,
		DisplayName: "Personal de Campo",
		Objective:   "entender de forma sencilla cómo su trabajo diario en la granja afecta los costos y los resultados, y en qué aspectos pueden mejorar.",
		KeyMetrics: []string{
			mCostoAlimento, mFCR, mMortalidad, mCerdos, mPeso,
		},
		Tone:           "cercano, motivador y muy sencillo, con frases cortas y sin términos financieros.",
		Emphasis:       "Explica qué significa cada indicador en la práctica diaria, reconoce lo que va bien y propone acciones concretas y simples en la granja.",
		ExamplePhrases: "Cada kilo de alimento cuenta. Cuidar la salud de los animales reduce la mortalidad.",
	},
}
