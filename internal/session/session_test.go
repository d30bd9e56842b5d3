package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/prompt"
	"github.com/hyperifyio/gonarrative/internal/table"
)

const productionCSV = `metric,value
Ingresos Totales,5000000
Costo Alimento,1200000
FCR (Relacion Conversion Alimento),2.8
Mortalidad (%),3.1
`

type stubNarrator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   string
	err     error
	// block, when set, is waited on before answering
	block chan struct{}
	// started is closed once the first call arrives
	started chan struct{}
}

func (s *stubNarrator) Generate(ctx context.Context, p string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, p)
	started, block := s.started, s.block
	s.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return s.reply, s.err
}

func loaded(t *testing.T) *Session {
	t.Helper()
	s := New("")
	require.NoError(t, s.Upload("datos.csv", strings.NewReader(productionCSV)))
	return s
}

func generated(t *testing.T) (*Session, *stubNarrator) {
	t.Helper()
	s := loaded(t)
	require.NoError(t, s.SelectProfile(string(profile.ProductionManager)))
	n := &stubNarrator{reply: "Narrativa generada."}
	_, err := s.Generate(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, Generated, s.Step())
	return s, n
}

func TestNew(t *testing.T) {
	s := New("")
	assert.Equal(t, Empty, s.Step())
	assert.Equal(t, prompt.DefaultIndustry, s.Industry())
	assert.Equal(t, "Otro", New(" Otro ").Industry())
}

func TestUpload(t *testing.T) {
	s := loaded(t)
	snap := s.Snapshot()
	assert.Equal(t, Loaded, snap.Step)
	assert.Equal(t, "datos.csv", snap.FileName)
	require.Len(t, snap.Rows, 4)
	assert.Equal(t, PreviewRow{Metric: "Ingresos Totales", Value: "5,000,000"}, snap.Rows[0])
	assert.False(t, snap.CanGenerate)
}

func TestUpload_MissingColumnEmptiesSession(t *testing.T) {
	s, _ := generated(t)
	err := s.Upload("malo.csv", strings.NewReader("metric,amount\nA,1\n"))
	require.Error(t, err)
	assert.True(t, table.IsKind(err, table.MissingColumns))
	assert.Equal(t, Empty, s.Step())
	_, ok := s.Narrative()
	assert.False(t, ok)
}

func TestUpload_InGeneratedStartsOver(t *testing.T) {
	s, _ := generated(t)
	require.NoError(t, s.Upload("nuevo.csv", strings.NewReader("metric,value\nPatrimonio,800000\n")))
	snap := s.Snapshot()
	assert.Equal(t, Loaded, snap.Step)
	assert.Empty(t, snap.ProfileID)
	assert.Empty(t, snap.Narrative)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "Patrimonio", snap.Rows[0].Metric)
}

func TestRemoveFile(t *testing.T) {
	s, _ := generated(t)
	s.SetIndustry("Otro")
	s.RemoveFile()
	assert.Equal(t, Empty, s.Step())
	assert.Equal(t, "Otro", s.Industry())
	_, err := s.Prompt()
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestSelectProfile(t *testing.T) {
	s := New("")
	assert.ErrorIs(t, s.SelectProfile("inversor"), ErrNoTable)
	assert.Equal(t, Empty, s.Step())

	s = loaded(t)
	err := s.SelectProfile("contador")
	assert.ErrorIs(t, err, profile.ErrNotFound)
	assert.Equal(t, Loaded, s.Step())
	assert.ErrorIs(t, s.SelectProfile(""), profile.ErrNotFound)

	require.NoError(t, s.SelectProfile("investor"))
	assert.Equal(t, Configured, s.Step())
	assert.Equal(t, string(profile.Investor), s.Snapshot().ProfileID)
}

func TestSelectProfile_AfterGeneratedClearsNarrative(t *testing.T) {
	for _, id := range []string{string(profile.Investor), string(profile.ProductionManager)} {
		t.Run(id, func(t *testing.T) {
			s, _ := generated(t)
			require.NoError(t, s.SelectProfile(id))
			assert.Equal(t, Configured, s.Step())
			_, ok := s.Narrative()
			assert.False(t, ok)
		})
	}
}

func TestSetIndustry_KeepsStepAndNarrative(t *testing.T) {
	s, _ := generated(t)
	s.SetIndustry("Laboratorio de Metrología")
	assert.Equal(t, Generated, s.Step())
	assert.Equal(t, "Laboratorio de Metrología", s.Industry())
	s.SetIndustry("  ")
	assert.Equal(t, prompt.DefaultIndustry, s.Industry())
}

func TestExport_KeepsIndustryOfGeneration(t *testing.T) {
	s, _ := generated(t)
	s.SetIndustry("Laboratorio de Metrología")

	doc, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, prompt.DefaultIndustry, doc.Industry)

	n := &stubNarrator{reply: "Otra narrativa."}
	_, err = s.Generate(context.Background(), n)
	require.NoError(t, err)
	doc, err = s.Export()
	require.NoError(t, err)
	assert.Equal(t, "Laboratorio de Metrología", doc.Industry)
	assert.Contains(t, n.prompts[0], "sector Laboratorio de Metrología")
}

type panickingNarrator struct{}

func (panickingNarrator) Generate(context.Context, string) (string, error) {
	panic("narrator exploded")
}

func TestGenerate_PanicReleasesInFlightFlag(t *testing.T) {
	s := loaded(t)
	require.NoError(t, s.SelectProfile(string(profile.Investor)))

	assert.Panics(t, func() {
		_, _ = s.Generate(context.Background(), panickingNarrator{})
	})
	assert.False(t, s.Generating())
	assert.Equal(t, Configured, s.Step())

	out, err := s.Generate(context.Background(), &stubNarrator{reply: "Recuperado."})
	require.NoError(t, err)
	assert.Equal(t, "Recuperado.", out)
}

func TestGenerate_Preconditions(t *testing.T) {
	n := &stubNarrator{reply: "x"}
	_, err := New("").Generate(context.Background(), n)
	assert.ErrorIs(t, err, ErrNoTable)
	_, err = loaded(t).Generate(context.Background(), n)
	assert.ErrorIs(t, err, ErrNoProfile)
	assert.Zero(t, n.calls)
}

func TestGenerate_FailureKeepsInputs(t *testing.T) {
	s, _ := generated(t)
	s.SetIndustry("Otro")
	cause := errors.New("boom")
	_, err := s.Generate(context.Background(), &stubNarrator{err: cause})
	require.ErrorIs(t, err, cause)
	snap := s.Snapshot()
	assert.Equal(t, Configured, snap.Step)
	assert.Equal(t, string(profile.ProductionManager), snap.ProfileID)
	assert.Equal(t, "Otro", snap.Industry)
	assert.Len(t, snap.Rows, 4)
	assert.Empty(t, snap.Narrative)
}

func TestGenerate_OneInFlight(t *testing.T) {
	s := loaded(t)
	require.NoError(t, s.SelectProfile("gerente_general"))
	n := &stubNarrator{reply: "ok", block: make(chan struct{}), started: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), n)
		done <- err
	}()
	<-n.started
	assert.True(t, s.Generating())
	assert.False(t, s.Snapshot().CanGenerate)

	_, err := s.Generate(context.Background(), &stubNarrator{reply: "otra"})
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	close(n.block)
	require.NoError(t, <-done)
	assert.False(t, s.Generating())
	text, ok := s.Narrative()
	assert.True(t, ok)
	assert.Equal(t, "ok", text)
}

func TestGenerate_ResetDuringCallDiscardsResult(t *testing.T) {
	s := loaded(t)
	require.NoError(t, s.SelectProfile("personal_campo"))
	n := &stubNarrator{reply: "tarde", block: make(chan struct{}), started: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), n)
		done <- err
	}()
	<-n.started
	s.Reset()
	close(n.block)

	assert.ErrorIs(t, <-done, ErrSessionChanged)
	assert.Equal(t, Empty, s.Step())
	_, ok := s.Narrative()
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	cases := map[string]func(t *testing.T) *Session{
		"empty":      func(t *testing.T) *Session { return New("") },
		"loaded":     loaded,
		"configured": func(t *testing.T) *Session { s := loaded(t); require.NoError(t, s.SelectProfile("inversor")); return s },
		"generated":  func(t *testing.T) *Session { s, _ := generated(t); return s },
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			s := build(t)
			s.SetIndustry("Laboratorio de Metrología")
			s.Reset()
			snap := s.Snapshot()
			assert.Equal(t, Empty, snap.Step)
			assert.Equal(t, prompt.DefaultIndustry, snap.Industry)
			assert.Empty(t, snap.FileName)
			assert.Empty(t, snap.Rows)
			assert.Empty(t, snap.ProfileID)
			assert.Empty(t, snap.Narrative)
		})
	}
}

func TestEndToEnd_ProductionManager(t *testing.T) {
	s := New("")
	require.NoError(t, s.Upload("granja.csv", strings.NewReader(productionCSV)))
	require.NoError(t, s.SelectProfile(string(profile.ProductionManager)))

	n := &stubNarrator{reply: "Durante el período la granja generó ingresos por 5,000,000."}
	text, err := s.Generate(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, 1, n.calls)
	assert.Equal(t, n.reply, text)

	sent := n.prompts[0]
	for _, line := range []string{
		"- Ingresos Totales: 5,000,000",
		"- Costo Alimento: 1,200,000",
		"- FCR (Relacion Conversion Alimento): 2.80",
		"- Mortalidad (%): 3.10",
	} {
		assert.Contains(t, sent, line)
	}
	assert.Contains(t, sent, "Industria Porcina")

	doc, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, "informe_narrativo_gerente_produccion.txt", doc.FileName("txt"))
	var sb strings.Builder
	require.NoError(t, doc.WriteText(&sb))
	assert.Equal(t, n.reply, sb.String())
}

func TestExport_RequiresNarrative(t *testing.T) {
	s := loaded(t)
	_, err := s.Export()
	assert.ErrorIs(t, err, ErrNoNarrative)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "configured", Configured.String())
	assert.Equal(t, "step(9)", Step(9).String())
}
