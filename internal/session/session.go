// Package session holds the per-user workflow state: uploaded table, chosen
// profile, industry label and the latest narrative. A Session is the only
// place that state changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonarrative/internal/export"
	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/prompt"
	"github.com/hyperifyio/gonarrative/internal/table"
)

// Step is the workflow position derived from which fields are present.
type Step int

const (
	Empty Step = iota
	Loaded
	Configured
	Generated
)

func (s Step) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Configured:
		return "configured"
	case Generated:
		return "generated"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Usage errors. None of them changes state.
var (
	ErrNoTable              = errors.New("no metric table loaded")
	ErrNoProfile            = errors.New("no profile selected")
	ErrNoNarrative          = errors.New("no narrative generated")
	ErrGenerationInProgress = errors.New("a narrative is already being generated")
	// ErrSessionChanged means the table or profile changed while a request
	// was in flight; its result was discarded.
	ErrSessionChanged = errors.New("session changed during generation")
)

// Narrator produces narrative text for a prompt.
type Narrator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Session is safe for concurrent use. The model call in Generate runs
// outside the lock.
type Session struct {
	mu              sync.Mutex
	defaultIndustry string
	industry        string
	fileName        string
	table           *table.Table
	profile         *profile.Profile
	narrative       string
	hasNarrative    bool
	generating      bool
	// epoch increments whenever table or profile change, so a late result
	// can tell it no longer applies.
	epoch uint64
	// narrativeIndustry is the label the narrative was written for.
	narrativeIndustry string
}

// New returns an Empty session. A blank defaultIndustry means
// prompt.DefaultIndustry.
func New(defaultIndustry string) *Session {
	d := strings.TrimSpace(defaultIndustry)
	if d == "" {
		d = prompt.DefaultIndustry
	}
	return &Session{defaultIndustry: d, industry: d}
}

// Step reports the current workflow position.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

func (s *Session) stepLocked() Step {
	switch {
	case s.table == nil:
		return Empty
	case s.profile == nil:
		return Loaded
	case !s.hasNarrative:
		return Configured
	default:
		return Generated
	}
}

func (s *Session) clearLocked() {
	s.fileName = ""
	s.table = nil
	s.profile = nil
	s.narrative = ""
	s.hasNarrative = false
	s.epoch++
}

// Upload replaces the table with the contents of r. On success the session is
// Loaded with no profile and no narrative. On a parse failure the session is
// Empty and the table.ParseError is returned.
func (s *Session) Upload(name string, r io.Reader) error {
	t, err := table.Load(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	if err != nil {
		log.Debug().Err(err).Str("file", name).Msg("upload rejected")
		return fmt.Errorf("load %s: %w", displayName(name), err)
	}
	s.fileName = name
	s.table = t
	log.Debug().Str("file", name).Int("rows", t.Len()).Msg("table loaded")
	return nil
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "upload"
	}
	return name
}

// RemoveFile discards table, profile and narrative.
func (s *Session) RemoveFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// SetIndustry changes the industry label. A blank label restores the default.
// The step and narrative are unchanged; an existing narrative keeps the label
// it was generated with.
func (s *Session) SetIndustry(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	label = strings.TrimSpace(label)
	if label == "" {
		label = s.defaultIndustry
	}
	s.industry = label
}

// Industry returns the current industry label.
func (s *Session) Industry() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.industry
}

// SelectProfile chooses the audience and always clears the narrative. It
// needs a loaded table; unknown ids leave the session untouched.
func (s *Session) SelectProfile(id string) error {
	p, err := profile.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return ErrNoTable
	}
	s.profile = &p
	s.narrative = ""
	s.hasNarrative = false
	s.epoch++
	return nil
}

// Prompt renders the prompt the next Generate would send.
func (s *Session) Prompt() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promptLocked()
}

func (s *Session) promptLocked() (string, error) {
	if s.table == nil {
		return "", ErrNoTable
	}
	if s.profile == nil {
		return "", ErrNoProfile
	}
	return prompt.Build(s.table, *s.profile, s.industry), nil
}

// Generate builds the prompt and asks n for a narrative. Only one call may be
// in flight. On failure the table, profile and industry are kept and the
// narrative is absent. When the table or profile changed meanwhile the result
// is dropped and ErrSessionChanged returned.
func (s *Session) Generate(ctx context.Context, n Narrator) (string, error) {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return "", ErrGenerationInProgress
	}
	text, err := s.promptLocked()
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.generating = true
	epoch := s.epoch
	profileID := s.profile.ID
	industry := s.industry
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.generating = false
			s.mu.Unlock()
			panic(r)
		}
	}()
	out, genErr := n.Generate(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	if s.epoch != epoch {
		log.Debug().Str("profile", string(profileID)).Msg("discarding narrative for a changed session")
		return "", ErrSessionChanged
	}
	if genErr != nil {
		s.narrative = ""
		s.hasNarrative = false
		return "", genErr
	}
	s.narrative = out
	s.hasNarrative = true
	s.narrativeIndustry = industry
	return out, nil
}

// Generating reports whether a Generate call is in flight.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Narrative returns the latest narrative, if any.
func (s *Session) Narrative() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.narrative, s.hasNarrative
}

// Export returns the narrative as a downloadable document.
func (s *Session) Export() (export.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNarrative {
		return export.Document{}, ErrNoNarrative
	}
	return export.Document{
		ProfileID:   string(s.profile.ID),
		ProfileName: s.profile.DisplayName,
		Industry:    s.narrativeIndustry,
		Text:        s.narrative,
	}, nil
}

// Reset returns to Empty and restores the default industry.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.industry = s.defaultIndustry
}
