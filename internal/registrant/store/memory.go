package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gatepass/internal/registrant/models"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
)

// InMemory stores registrants in memory. Suitable for tests and single-node
// development; uniqueness is enforced under one lock, mirroring the database
// constraints of the postgres store.
type InMemory struct {
	mu          sync.RWMutex
	registrants map[string]*models.Registrant
	emailIdx    map[string]string
	regNumIdx   map[string]string
}

// NewInMemory creates an in-memory registrant store.
func NewInMemory() *InMemory {
	return &InMemory{
		registrants: make(map[string]*models.Registrant),
		emailIdx:    make(map[string]string),
		regNumIdx:   make(map[string]string),
	}
}

// CreateIfEmailAvailable atomically creates the registrant if the email and
// registration number are not already taken.
func (s *InMemory) CreateIfEmailAvailable(_ context.Context, r *models.Registrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := models.NormalizeEmail(r.Email)
	if _, exists := s.emailIdx[email]; exists {
		return fmt.Errorf("email must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	regNum := r.RegistrationNumber.String()
	if _, exists := s.regNumIdx[regNum]; exists {
		return fmt.Errorf("registration number must be unique: %w", sentinel.ErrAlreadyUsed)
	}

	key := r.ID.String()
	cp := *r
	s.registrants[key] = &cp
	s.emailIdx[email] = key
	s.regNumIdx[regNum] = key
	return nil
}

// FindByID retrieves a registrant by its UUID.
func (s *InMemory) FindByID(_ context.Context, registrantID id.RegistrantID) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.registrants[registrantID.String()]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByEmail retrieves a registrant by email (case-insensitive).
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.emailIdx[models.NormalizeEmail(email)]; ok {
		cp := *s.registrants[key]
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByRole returns all registrants holding the given role.
func (s *InMemory) ListByRole(_ context.Context, role id.Role) ([]*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Registrant
	for _, r := range s.registrants {
		if r.Role == role {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AttachCertificates sets both certificate refs only while either is missing.
// The check and the write happen under one lock, so a record never ends up
// with refs from two different generations.
func (s *InMemory) AttachCertificates(_ context.Context, registrantID id.RegistrantID, docPath, imagePath string) (*models.Registrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registrants[registrantID.String()]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !r.HasCertificate() {
		r.CertificateFile = docPath
		r.CertificateImage = imagePath
		r.UpdatedAt = time.Now()
	}
	cp := *r
	return &cp, nil
}

// SetQRImagePath repairs the verification image reference.
func (s *InMemory) SetQRImagePath(_ context.Context, registrantID id.RegistrantID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registrants[registrantID.String()]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.QRImagePath = path
	r.UpdatedAt = time.Now()
	return nil
}

// UpdatePasswordHash replaces the stored credential hash.
func (s *InMemory) UpdatePasswordHash(_ context.Context, registrantID id.RegistrantID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registrants[registrantID.String()]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.PasswordHash = hash
	r.UpdatedAt = time.Now()
	return nil
}
