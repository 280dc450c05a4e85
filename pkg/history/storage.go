package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultStorageFileName = ".keystore-swap-history.json"
)

// ErrNotFound is returned when no record matches an ID or hash
var ErrNotFound = errors.New("swap not found")

// Storage persists submitted swaps to a JSON file
type Storage struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
	now      func() time.Time
}

type fileFormat struct {
	Swaps []*Record `json:"swaps"`
}

// NewStorage opens the journal at filePath, defaulting to the home directory
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	s := &Storage{
		filePath: filePath,
		records:  make(map[string]*Record),
		now:      time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	for _, r := range f.Swaps {
		if r != nil && r.ID != "" {
			s.records[r.ID] = r
		}
	}

	return nil
}

// persist writes every record; callers hold s.mu
func (s *Storage) persist() error {
	data, err := json.MarshalIndent(fileFormat{Swaps: s.sortedLocked()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Append stores a new record, assigning its ID and timestamps
func (s *Storage) Append(r Record) (*Record, error) {
	if r.TxHash == "" {
		return nil, errors.New("transaction hash is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	r.ID = uuid.New().String()
	r.CreatedAt = now
	r.LastUpdated = now
	if r.Status == "" {
		r.Status = StatusSubmitted
	}

	s.records[r.ID] = &r
	if err := s.persist(); err != nil {
		delete(s.records, r.ID)
		return nil, err
	}

	out := r
	return &out, nil
}

// Get finds a record by ID or transaction hash
func (s *Storage) Get(ref string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.findLocked(ref)
	if r == nil {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}

	out := *r
	return &out, nil
}

// UpdateStatus records the tracker's view of the swap with transaction hash txHash
func (s *Storage) UpdateStatus(txHash string, status Status, toAmount string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.findLocked(txHash)
	if r == nil {
		return nil, fmt.Errorf("%s: %w", txHash, ErrNotFound)
	}

	prev := *r
	r.Status = status
	if toAmount != "" {
		r.ToAmount = toAmount
	}
	r.LastUpdated = s.now().UTC()

	if err := s.persist(); err != nil {
		*r = prev
		return nil, err
	}

	out := *r
	return &out, nil
}

// List returns every record, newest first
func (s *Storage) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedLocked()
	out := make([]Record, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, *r)
	}
	return out
}

// Count returns the number of records
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// GetFilePath returns the journal file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}

func (s *Storage) findLocked(ref string) *Record {
	if r, ok := s.records[ref]; ok {
		return r
	}
	for _, r := range s.records {
		if strings.EqualFold(r.TxHash, ref) {
			return r
		}
	}
	return nil
}

func (s *Storage) sortedLocked() []*Record {
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
