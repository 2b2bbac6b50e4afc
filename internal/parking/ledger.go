package parking

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"parking-registry/internal/logging"
	"parking-registry/internal/storage"
)

var (
	ErrInvalidPlate  = errors.New("invalid plate")
	ErrInvalidHours  = errors.New("invalid hours")
	ErrAlreadyParked = errors.New("vehicle already parked")
	ErrNotFound      = errors.New("vehicle not found")
	ErrLotEmpty      = errors.New("parking lot is empty")
)

// Store is the persistence the ledger reloads from on every operation.
type Store interface {
	Load() ([]string, error)
	Save(plates []string) error
}

// Registry is implemented by Ledger and InstrumentedLedger.
type Registry interface {
	AddVehicle(ctx context.Context, plate string) (Plate, error)
	RemoveVehicle(ctx context.Context, plate string, hours int) (*Receipt, error)
	ListVehicles(ctx context.Context) ([]Plate, error)
}

type Receipt struct {
	Plate Plate
	Hours int
	Fee   decimal.Decimal
}

// Ledger keeps no registry state of its own: each call loads the full list
// from the store, and mutating calls write the full list back. Concurrent
// writers sharing one file can therefore lose updates.
type Ledger struct {
	store  Store
	tariff Tariff
	strict bool
	log    *zerolog.Logger
}

type LedgerOption func(*Ledger)

// WithStrictStorage makes corrupt registry data an error instead of an empty
// registry.
func WithStrictStorage(strict bool) LedgerOption {
	return func(l *Ledger) {
		l.strict = strict
	}
}

func WithLogger(log zerolog.Logger) LedgerOption {
	return func(l *Ledger) {
		l.log = &log
	}
}

func NewLedger(store Store, tariff Tariff, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:  store,
		tariff: tariff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Tariff() Tariff {
	return l.tariff
}

func (l *Ledger) AddVehicle(ctx context.Context, raw string) (Plate, error) {
	plates, err := l.load(ctx)
	if err != nil {
		return "", err
	}

	plate := NormalizePlate(raw)
	if indexOf(plates, plate) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrAlreadyParked, plate)
	}
	if !IsValidPlate(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlate, raw)
	}

	plates = append(plates, plate)
	if err := l.save(plates); err != nil {
		return "", err
	}

	log := l.logger(ctx)
	log.Info().
		Str("plate", plate.String()).
		Int("parked", len(plates)).
		Msg("vehicle parked")

	return plate, nil
}

func (l *Ledger) RemoveVehicle(ctx context.Context, raw string, hours int) (*Receipt, error) {
	plates, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(plates) == 0 {
		return nil, ErrLotEmpty
	}

	plate := NormalizePlate(raw)
	idx := indexOf(plates, plate)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, plate)
	}
	if hours < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHours, hours)
	}

	receipt := &Receipt{
		Plate: NormalizePlate(string(plates[idx])),
		Hours: hours,
		Fee:   l.tariff.Fee(hours),
	}

	plates = slices.Delete(plates, idx, idx+1)
	if err := l.save(plates); err != nil {
		return nil, err
	}

	log := l.logger(ctx)
	log.Info().
		Str("plate", receipt.Plate.String()).
		Int("hours", hours).
		Str("fee", receipt.Fee.StringFixed(2)).
		Msg("vehicle removed")

	return receipt, nil
}

// ListVehicles returns the parked plates in insertion order. An empty lot is
// an empty slice, not an error.
func (l *Ledger) ListVehicles(ctx context.Context) ([]Plate, error) {
	return l.load(ctx)
}

func (l *Ledger) load(ctx context.Context) ([]Plate, error) {
	raw, err := l.store.Load()
	if err != nil {
		if errors.Is(err, storage.ErrCorruptData) && !l.strict {
			log := l.logger(ctx)
			log.Warn().
				Err(err).
				Msg("registry data is corrupt, treating it as empty")
			return []Plate{}, nil
		}
		return nil, fmt.Errorf("load vehicles: %w", err)
	}

	plates := make([]Plate, 0, len(raw))
	for _, p := range raw {
		plates = append(plates, Plate(p))
	}
	return plates, nil
}

func (l *Ledger) save(plates []Plate) error {
	raw := make([]string, 0, len(plates))
	for _, p := range plates {
		raw = append(raw, string(p))
	}
	if err := l.store.Save(raw); err != nil {
		return fmt.Errorf("save vehicles: %w", err)
	}
	return nil
}

func (l *Ledger) logger(ctx context.Context) zerolog.Logger {
	if l.log != nil {
		return logging.Enrich(ctx, *l.log)
	}
	return logging.WithContext(ctx)
}

// indexOf matches case-insensitively so hand-edited lower-case entries are
// still found.
func indexOf(plates []Plate, plate Plate) int {
	for i, p := range plates {
		if NormalizePlate(string(p)) == plate {
			return i
		}
	}
	return -1
}
