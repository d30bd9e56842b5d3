// Package prompt renders the instruction text sent to the model for one
// stakeholder profile and one metric table.
package prompt

import (
	"strings"

	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/table"
)

// DefaultIndustry is the industry label used when none is given.
const DefaultIndustry = "Industria Porcina"

// IndustryPresets are suggested labels; any free text is accepted.
var IndustryPresets = []string{"Industria Porcina", "Laboratorio de Metrología", "Otro"}

// Line is one formatted metric as it appears in the prompt.
type Line struct {
	Metric string
	Value  string
}

// Context is everything the template needs for one generation request.
type Context struct {
	Profile  profile.Profile
	Industry string
	// Lines holds the table rows that match the profile's key metrics, in the
	// profile's declared order.
	Lines []Line
}

// NewContext filters t down to p's key metrics and formats their values.
// Table rows that are not key metrics are dropped.
func NewContext(t *table.Table, p profile.Profile, industry string) Context {
	c := Context{Profile: p, Industry: strings.TrimSpace(industry)}
	if c.Industry == "" {
		c.Industry = DefaultIndustry
	}
	seen := map[string]bool{}
	for _, key := range p.KeyMetrics {
		e, ok := t.Lookup(key)
		if !ok || seen[e.Metric] {
			continue
		}
		seen[e.Metric] = true
		c.Lines = append(c.Lines, Line{Metric: e.Metric, Value: FormatValue(e.Metric, e.Value)})
	}
	return c
}

// Build renders the prompt for t, p and industry.
func Build(t *table.Table, p profile.Profile, industry string) string {
	return NewContext(t, p, industry).Render()
}

// Render writes the fixed four-section template.
func (c Context) Render() string {
	var sb strings.Builder
	sb.WriteString("Eres un analista financiero experto en el sector ")
	sb.WriteString(c.Industry)
	sb.WriteString(". Tu tarea es redactar una narrativa clara y concisa de los resultados financieros y operativos del período para un **")
	sb.WriteString(c.Profile.DisplayName)
	sb.WriteString("**.\n\n")

	sb.WriteString("**Contexto de la empresa:** ")
	sb.WriteString(c.Industry)
	sb.WriteString("\n**Objetivo del lector:** ")
	sb.WriteString(c.Profile.Objective)
	sb.WriteString("\n**Tono de la narrativa:** ")
	sb.WriteString(c.Profile.Tone)
	sb.WriteString("\n**Enfoque de la narrativa:** ")
	sb.WriteString(c.Profile.Emphasis)
	sb.WriteString("\n**Métricas clave a explicar:** ")
	sb.WriteString(strings.Join(c.Profile.KeyMetrics, ", "))

	sb.WriteString("\n\n**Datos del período:**\n")
	if len(c.Lines) == 0 {
		sb.WriteString("(no se proporcionaron datos para las métricas clave)\n")
	}
	for _, l := range c.Lines {
		sb.WriteString("- ")
		sb.WriteString(l.Metric)
		sb.WriteString(": ")
		sb.WriteString(l.Value)
		sb.WriteString("\n")
	}

	sb.WriteString("\n**Estructura requerida:**\n")
	sb.WriteString("1. Resumen ejecutivo: un párrafo con la visión general del desempeño del período.\n")
	sb.WriteString("2. Costos y posición financiera: un párrafo sobre los costos principales y la situación financiera.\n")
	sb.WriteString("3. Indicadores operativos y ratios: un párrafo que interprete la eficiencia operativa y los ratios disponibles.\n")
	sb.WriteString("4. Conclusiones y recomendaciones: un párrafo con las conclusiones y las áreas generales de mejora.\n")

	sb.WriteString("\n**Instrucciones:**\n")
	sb.WriteString("- La extensión debe ser de 3 a 5 párrafos.\n")
	sb.WriteString("- Usa únicamente las cifras proporcionadas. No inventes datos, cifras ni tendencias que no estén en los datos del período.\n")
	sb.WriteString("- Si una métrica clave no aparece en los datos, no la estimes.\n")
	sb.WriteString("- Redacta en prosa natural y fácil de entender, sin listas ni tablas y evitando la jerga contable excesiva.\n")
	return sb.String()
}
