package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a customer id does not exist in the database.
var ErrNotFound = errors.New("customer not found")

// RejectedFieldError reports the first field of an update that is not allow-listed.
// The whole update is discarded; nothing is partially applied.
type RejectedFieldError struct {
	Field string
}

func (e *RejectedFieldError) Error() string {
	return fmt.Sprintf("field not allowed: %s", e.Field)
}

// Customer mirrors the record layout of the customer database file. Field names
// must match the file exactly (including "product(s)" and "complain") so that
// databases written by older tooling keep loading.
type Customer struct {
	CustomerID          string      `json:"customer_id"`
	Name                string      `json:"name"`
	Products            []string    `json:"product(s)"`
	OrderID             string      `json:"order_id"`
	Location            string      `json:"location"`
	Price               float64     `json:"price"`
	PaidStatus          string      `json:"paid_status"`
	PaymentMethod       string      `json:"payment_method"`
	Complaint           string      `json:"complain"`
	ComplaintID         string      `json:"complain_id"`
	Status              string      `json:"status"`
	Sentiment           string      `json:"sentiment"`
	Review              string      `json:"review"`
	ConversationHistory HistoryText `json:"conversation_history"`
	LastContact         string      `json:"last_contact,omitempty"`
}

// HistoryText is the conversation_history field. Legacy databases seed it as an
// empty JSON list; after a call it holds the flattened transcript as a string.
type HistoryText string

func (h *HistoryText) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			// non-string list entries in old files: treat as empty
			*h = ""
			return nil
		}
		*h = HistoryText(strings.Join(items, "\n"))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = HistoryText(s)
	return nil
}

// updatableFields is the closed set of fields the reasoning engine may change
// through UpdateFields. Everything else is rejected wholesale.
var updatableFields = map[string]struct{}{
	"name":           {},
	"product(s)":     {},
	"location":       {},
	"paid_status":    {},
	"payment_method": {},
	"status":         {},
	"review":         {},
}

// Store is a JSON-file backed customer record store. All operations either
// fully succeed or leave the record unchanged. Writers targeting the same
// customer id are mutually excluded.
type Store struct {
	path string

	// Rand drives PickRandom; replace with a seeded source in tests.
	Rand *rand.Rand

	mu      sync.RWMutex
	records []Customer

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// Open loads the database at path, seeding it with the sample customers when
// the file is missing or empty.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		Rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		locks: make(map[string]*sync.Mutex),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	if len(s.records) == 0 {
		s.records = seedCustomers()
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read database: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var records []Customer
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse database: %w", err)
	}
	s.records = records
	return nil
}

// save writes the full record list back to disk. Caller must hold mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode database: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// customerLock returns the per-id mutex, creating it on first use.
func (s *Store) customerLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].CustomerID == id {
			return i
		}
	}
	return -1
}

// Get returns a copy of the customer record for id.
func (s *Store) Get(id string) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Customer{}, ErrNotFound
	}
	return s.records[i], nil
}

// PickRandom returns a copy of a randomly chosen customer record.
func (s *Store) PickRandom() (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return Customer{}, ErrNotFound
	}
	return s.records[s.Rand.Intn(len(s.records))], nil
}

// Count reports the number of customer records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// UpdateFields applies an allow-listed partial update to the customer record.
// The update is all-or-nothing: any non-allow-listed key or malformed value
// rejects the whole call and leaves the record untouched.
func (s *Store) UpdateFields(id string, fields map[string]any) error {
	for key := range fields {
		if _, ok := updatableFields[key]; !ok {
			return &RejectedFieldError{Field: key}
		}
	}

	lock := s.customerLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	// Stage on a copy so a bad value cannot leave a half-applied record.
	updated := s.records[i]
	for key, value := range fields {
		if err := applyField(&updated, key, value); err != nil {
			return err
		}
	}
	s.records[i] = updated
	return s.save()
}

func applyField(c *Customer, key string, value any) error {
	if key == "product(s)" {
		products, err := toStringSlice(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		c.Products = products
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %s: expected string, got %T", key, value)
	}
	switch key {
	case "name":
		c.Name = str
	case "location":
		c.Location = str
	case "paid_status":
		c.PaidStatus = str
	case "payment_method":
		c.PaymentMethod = str
	case "status":
		c.Status = str
	case "review":
		c.Review = str
	default:
		return &RejectedFieldError{Field: key}
	}
	return nil
}

func toStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", value)
	}
}

// RecordComplaint stores the complaint text with a fresh complaint id and marks
// the record complaint_received, atomically with other updates on the same id.
func (s *Store) RecordComplaint(id, complaintText string) (string, error) {
	complaintID := "COMP" + strings.ToUpper(uuid.NewString()[:8])

	lock := s.customerLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return "", ErrNotFound
	}
	updated := s.records[i]
	updated.Complaint = complaintText
	updated.ComplaintID = complaintID
	updated.Status = "complaint_received"
	s.records[i] = updated
	if err := s.save(); err != nil {
		return "", err
	}
	return complaintID, nil
}

// CallOutcome is the end-of-call fold-back written by the orchestrator. These
// fields are owned by the call lifecycle, not the reasoning engine, so they
// bypass the reasoning allow-list while keeping the same all-or-nothing write.
type CallOutcome struct {
	ConversationHistory string
	Sentiment           string
	LastContact         string
	Complaint           string // empty when no complaint was detected
}

// ApplyOutcome writes the call summary into the customer record.
func (s *Store) ApplyOutcome(id string, outcome CallOutcome) error {
	lock := s.customerLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	updated := s.records[i]
	updated.ConversationHistory = HistoryText(outcome.ConversationHistory)
	updated.Sentiment = outcome.Sentiment
	updated.LastContact = outcome.LastContact
	if outcome.Complaint != "" {
		updated.Complaint = outcome.Complaint
		updated.Status = "complaint_received"
	}
	s.records[i] = updated
	return s.save()
}
