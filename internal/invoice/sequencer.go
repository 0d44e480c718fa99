package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"smpos/backend/internal/domain"
	"smpos/backend/internal/store"
)

// SequenceKey is the key/value entry holding the last allocated number.
const SequenceKey = "lastInvoice"

var (
	ErrStorageUnavailable = errors.New("failed to generate invoice number")
	ErrMalformedState     = errors.New("malformed invoice sequence state")
)

// Sequencer hands out DDMMYY-NNN invoice numbers. The counter restarts at 1
// each calendar day in the shop's location.
//
// Allocation is a read-modify-write against the key/value store. The mutex
// serialises it inside one process; tills sharing a store across processes
// can still race.
type Sequencer struct {
	mu       sync.Mutex
	kv       store.KeyValueStore
	location *time.Location
	logger   *zap.Logger
}

func NewSequencer(kv store.KeyValueStore, location *time.Location, logger *zap.Logger) *Sequencer {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{kv: kv, location: location, logger: logger}
}

// Location is the shop time zone invoice dates are taken in.
func (s *Sequencer) Location() *time.Location {
	return s.location
}

// DatePart formats t as DDMMYY.
func DatePart(t time.Time) string {
	return t.Format("020106")
}

// AllocateNext persists and returns the next number for today. Nothing is
// returned unless the new state was written.
func (s *Sequencer) AllocateNext(ctx context.Context, today time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	datePart := DatePart(today.In(s.location))

	raw, found, err := s.kv.Get(ctx, SequenceKey)
	if err != nil {
		return "", fmt.Errorf("%w: read sequence: %v", ErrStorageUnavailable, err)
	}

	next := 1
	if found {
		state, err := decodeState(raw)
		switch {
		case err != nil:
			s.logger.Warn("resetting invoice sequence",
				zap.String("key", SequenceKey),
				zap.String("date", datePart),
				zap.Error(err),
			)
		case state.LastDate == datePart:
			next = state.LastNumber + 1
		}
	}

	payload, err := json.Marshal(domain.InvoiceSequenceState{LastDate: datePart, LastNumber: next})
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, SequenceKey, string(payload)); err != nil {
		return "", fmt.Errorf("%w: write sequence: %v", ErrStorageUnavailable, err)
	}

	number := FormatNumber(datePart, next)
	s.logger.Debug("invoice number allocated", zap.String("number", number))
	return number, nil
}

// FormatNumber pads seq to at least three digits.
func FormatNumber(datePart string, seq int) string {
	return fmt.Sprintf("%s-%03d", datePart, seq)
}

func decodeState(raw string) (domain.InvoiceSequenceState, error) {
	var state domain.InvoiceSequenceState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return state, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if state.LastNumber < 1 {
		return state, fmt.Errorf("%w: lastNumber %d", ErrMalformedState, state.LastNumber)
	}
	if _, err := time.Parse("020106", state.LastDate); err != nil {
		return state, fmt.Errorf("%w: lastDate %q", ErrMalformedState, state.LastDate)
	}
	return state, nil
}
