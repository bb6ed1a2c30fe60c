package alert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"stock-alert-bot/internal/types"
)

// ErrInvalidAlert is returned by Add for alerts that cannot be stored.
var ErrInvalidAlert = errors.New("invalid alert")

// snapshot is the on-disk shape: owner -> symbol -> alert.
type snapshot map[string]map[string]types.Alert

// Store holds every alert in memory and rewrites the snapshot file after
// each mutation. All access goes through mu.
type Store struct {
	mu     sync.Mutex
	path   string
	alerts snapshot
	now    func() time.Time
}

// LoadStore reads the snapshot at path, or starts empty when it does not
// exist. A snapshot that cannot be decoded is an error.
func LoadStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		alerts: make(snapshot),
		now:    time.Now,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.WithField("path", path).Info("No alert snapshot found, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read alert snapshot %s", path)
	}

	var loaded snapshot
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, errors.Wrapf(err, "alert snapshot %s is corrupt", path)
	}

	for owner, bySymbol := range loaded {
		for symbol, a := range bySymbol {
			a.OwnerID = owner
			a.Symbol = symbol
			if err := validate(a); err != nil {
				return nil, errors.Wrapf(err, "alert snapshot %s is corrupt", path)
			}
			s.put(a)
		}
	}

	log.WithFields(log.Fields{"path": path, "alerts": s.count()}).Info("Alert snapshot loaded")
	return s, nil
}

func validate(a types.Alert) error {
	switch {
	case a.OwnerID == "":
		return errors.Wrap(ErrInvalidAlert, "empty owner")
	case a.Symbol == "":
		return errors.Wrapf(ErrInvalidAlert, "empty symbol for owner %s", a.OwnerID)
	case !a.Direction.Valid():
		return errors.Wrapf(ErrInvalidAlert, "condition %q for %s/%s", a.Direction, a.OwnerID, a.Symbol)
	}
	return nil
}

// Add upserts the alert for (owner, symbol) and persists the store.
// Adding an alert identical to the stored one changes nothing.
func (s *Store) Add(a types.Alert) error {
	if err := validate(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.alerts[a.OwnerID][a.Symbol]; ok && existing.SameTarget(a) {
		return nil
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	s.put(a)
	s.persistLocked()
	return nil
}

// Remove deletes the alert for (owner, symbol) and reports whether one existed.
func (s *Store) Remove(owner, symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.delete(owner, symbol) {
		return false
	}
	s.persistLocked()
	return true
}

// RemoveIfUnchanged deletes the stored alert only if it still targets the
// same threshold and direction as a.
func (s *Store) RemoveIfUnchanged(a types.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.alerts[a.OwnerID][a.Symbol]
	if !ok || !existing.SameTarget(a) {
		return false
	}
	s.delete(a.OwnerID, a.Symbol)
	s.persistLocked()
	return true
}

// List returns the owner's alerts ordered by symbol.
func (s *Store) List(owner string) []types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := make([]types.Alert, 0, len(s.alerts[owner]))
	for _, a := range s.alerts[owner] {
		alerts = append(alerts, a)
	}
	sortAlerts(alerts)
	return alerts
}

// All returns a copy of every stored alert.
func (s *Store) All() []types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var alerts []types.Alert
	for _, bySymbol := range s.alerts {
		for _, a := range bySymbol {
			alerts = append(alerts, a)
		}
	}
	sortAlerts(alerts)
	return alerts
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count()
}

// Persist writes the whole store to the snapshot file.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

func (s *Store) put(a types.Alert) {
	if s.alerts[a.OwnerID] == nil {
		s.alerts[a.OwnerID] = make(map[string]types.Alert)
	}
	s.alerts[a.OwnerID][a.Symbol] = a
}

func (s *Store) delete(owner, symbol string) bool {
	if _, ok := s.alerts[owner][symbol]; !ok {
		return false
	}
	delete(s.alerts[owner], symbol)
	if len(s.alerts[owner]) == 0 {
		delete(s.alerts, owner)
	}
	return true
}

func (s *Store) count() int {
	n := 0
	for _, bySymbol := range s.alerts {
		n += len(bySymbol)
	}
	return n
}

// persistLocked keeps serving from memory when the write fails.
func (s *Store) persistLocked() {
	if err := s.write(); err != nil {
		log.WithError(err).WithField("path", s.path).Error("Failed to persist alerts")
	}
}

func (s *Store) write() error {
	data, err := json.MarshalIndent(s.alerts, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode alerts")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "could not create temporary snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not write snapshot")
	}
	// CreateTemp uses 0600; keep the mode of the file being replaced
	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not set snapshot permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "could not close snapshot")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "could not replace snapshot")
	}
	return nil
}

func sortAlerts(alerts []types.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].OwnerID != alerts[j].OwnerID {
			return alerts[i].OwnerID < alerts[j].OwnerID
		}
		return alerts[i].Symbol < alerts[j].Symbol
	})
}
