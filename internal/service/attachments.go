package service

import (
	"errors"
	"sync"

	"hradmin/internal/domain"
	"hradmin/internal/util"
)

// Draft is one in-progress compose session: the staged attachments plus
// the compliance outcome maps keyed by filename. For an image file,
// once its check resolves, exactly one of the two maps holds an entry.
// Drafts are process-local and single-writer; the registry mutex only
// guards concurrent HTTP handlers, there is no cross-process sharing.
type Draft struct {
	ID          string
	OrgID       string
	Attachments []domain.Attachment

	ViolationsByFile map[string][]domain.Violation
	URLByFile        map[string]string

	// checkAttempts counts compliance-check attempts per filename so a
	// flaky checker cannot be hammered through endless re-adds.
	checkAttempts map[string]int
}

// Ready reports whether the attachment gate passes: no recorded
// violations, and every image attachment carries an approved URL.
// Non-image files pass through unchecked.
func (d *Draft) Ready() bool {
	if len(d.ViolationsByFile) > 0 {
		return false
	}
	for _, a := range d.Attachments {
		if a.IsImage() {
			if _, ok := d.URLByFile[a.Filename]; !ok {
				return false
			}
		}
	}
	return true
}

// ImageURLs returns the approved hosted URLs, in attachment order. Only
// these may be handed to the campaign agent.
func (d *Draft) ImageURLs() []string {
	urls := make([]string, 0, len(d.URLByFile))
	for _, a := range d.Attachments {
		if u, ok := d.URLByFile[a.Filename]; ok {
			urls = append(urls, u)
		}
	}
	return urls
}

func (d *Draft) Filenames() []string {
	names := make([]string, len(d.Attachments))
	for i, a := range d.Attachments {
		names[i] = a.Filename
	}
	return names
}

// purge drops every record for a filename from both outcome maps.
// Forgetting this on removal would leave orphaned compliance state that
// could wrongly allow or block a later send reusing the same filename.
func (d *Draft) purge(filename string) {
	delete(d.ViolationsByFile, filename)
	delete(d.URLByFile, filename)
	delete(d.checkAttempts, filename)
}

var (
	ErrDraftNotFound      = errors.New("draft not found")
	ErrAttachmentIndex    = errors.New("attachment index out of range")
	ErrCheckBudgetSpent   = errors.New("compliance check attempts exhausted for this file")
	ErrDuplicateAttach    = errors.New("a file with this name is already attached")
	ErrAttachmentTooLarge = errors.New("attachment exceeds the size limit")
)

// DraftStore owns all live drafts for the process.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]*Draft
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]*Draft)}
}

func (s *DraftStore) Create(orgID string) *Draft {
	d := &Draft{
		ID:               util.NewID("drf"),
		OrgID:            orgID,
		ViolationsByFile: make(map[string][]domain.Violation),
		URLByFile:        make(map[string]string),
		checkAttempts:    make(map[string]int),
	}
	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d
}

func (s *DraftStore) Get(id string) (*Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	return d, ok
}

func (s *DraftStore) Delete(id string) {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
}

// WithDraft runs fn while holding the registry lock, serializing all
// mutations of one draft.
func (s *DraftStore) WithDraft(id string, fn func(*Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return ErrDraftNotFound
	}
	return fn(d)
}
