package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Session owns the survey shown by a viewer. The survey recorded here is the
// single source of truth: it only changes after the viewer confirms a switch,
// and SyncSurvey pushes it to a viewer that may have lost it, for example
// after a page reload.
type Session struct {
	viewer Viewer

	mu     sync.RWMutex
	survey string
}

// NewSession returns a Session for v whose survey starts as survey.
func NewSession(v Viewer, survey string) *Session {
	return &Session{viewer: v, survey: survey}
}

// Viewer returns the underlying viewer.
func (s *Session) Viewer() Viewer {
	return s.viewer
}

// Survey returns the current survey identifier.
func (s *Session) Survey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.survey
}

// SetSurvey switches the viewer to id. The recorded survey is only updated
// when the viewer accepts the change.
func (s *Session) SetSurvey(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("survey identifier is required")
	}
	if err := s.viewer.SetSurvey(ctx, id); err != nil {
		return fmt.Errorf("failed to set survey %s: %w", id, err)
	}
	s.mu.Lock()
	s.survey = id
	s.mu.Unlock()
	return nil
}

// SyncSurvey sends the recorded survey to the viewer.
func (s *Session) SyncSurvey(ctx context.Context) error {
	id := s.Survey()
	if id == "" {
		return nil
	}
	if err := s.viewer.SetSurvey(ctx, id); err != nil {
		return fmt.Errorf("failed to sync survey %s: %w", id, err)
	}
	return nil
}
