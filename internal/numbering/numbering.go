// Package numbering allocates human-readable document numbers such as INV-202501-0001.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/xelth-com/eckdocs/internal/locks"
	"github.com/xelth-com/eckdocs/internal/models"
)

// ErrNumberConflict is returned when a number collided twice in a row
var ErrNumberConflict = errors.New("document number conflict")

// Scope controls whether the sequence restarts each month
type Scope string

const (
	ScopeContinuous Scope = "continuous"
	ScopeMonthly    Scope = "monthly"
)

// ParseScope defaults to ScopeContinuous
func ParseScope(s string) Scope {
	if Scope(strings.ToLower(strings.TrimSpace(s))) == ScopeMonthly {
		return ScopeMonthly
	}
	return ScopeContinuous
}

// Store finds the number of the most recently created document.
// prefix is empty for a continuous sequence, otherwise the number must start with it.
type Store interface {
	LastNumber(ctx context.Context, businessID uuid.UUID, docType models.DocumentType, prefix string) (string, error)
}

// Config holds per-type prefixes and the sequence scope
type Config struct {
	Prefixes map[models.DocumentType]string
	Scope    Scope
}

// Allocator computes the next number and saves the document under a per-(business, type) lock
type Allocator struct {
	store  Store
	locker locks.Locker
	cfg    Config
	now    func() time.Time
}

// NewAllocator creates an allocator
func NewAllocator(store Store, locker locks.Locker, cfg Config) *Allocator {
	if locker == nil {
		locker = locks.NewKeyedMutex()
	}
	return &Allocator{
		store:  store,
		locker: locker,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Prefix returns the configured prefix for docType
func (a *Allocator) Prefix(docType models.DocumentType) string {
	if p, ok := a.cfg.Prefixes[docType]; ok && p != "" {
		return p
	}
	return docType.Info().Prefix
}

// Next computes the number the next document would get. It does not reserve it.
func (a *Allocator) Next(ctx context.Context, businessID uuid.UUID, docType models.DocumentType) (string, error) {
	month := a.now().Format("200601")
	prefix := a.Prefix(docType)

	filter := ""
	if a.cfg.Scope == ScopeMonthly {
		filter = prefix + month + "-"
	}
	last, err := a.store.LastNumber(ctx, businessID, docType, filter)
	if err != nil {
		return "", fmt.Errorf("find last %s number: %w", docType, err)
	}

	seq := 1
	if n, ok := ParseSequence(last); ok {
		seq = n + 1
	}
	return Format(prefix, month, seq), nil
}

// AllocateAndSave picks a number and calls save with it while holding the lock.
// A unique violation from save triggers one fresh allocation and retry.
func (a *Allocator) AllocateAndSave(ctx context.Context, businessID uuid.UUID, docType models.DocumentType, save func(ctx context.Context, number string) error) (string, error) {
	release, err := a.locker.Lock(ctx, LockKey(businessID, docType))
	if err != nil {
		return "", fmt.Errorf("lock numbering: %w", err)
	}
	defer release()

	var number string
	for attempt := 0; attempt < 2; attempt++ {
		number, err = a.Next(ctx, businessID, docType)
		if err != nil {
			return "", err
		}
		err = save(ctx, number)
		if err == nil {
			return number, nil
		}
		if !IsUniqueViolation(err) {
			return "", err
		}
		log.Warn().Str("number", number).Int("attempt", attempt+1).Msg("Document number taken, reallocating")
	}
	return "", fmt.Errorf("%w: %s", ErrNumberConflict, number)
}

// LockKey is the lock name for a (business, type) sequence
func LockKey(businessID uuid.UUID, docType models.DocumentType) string {
	return "docnum:" + businessID.String() + ":" + string(docType)
}

// Format builds "{prefix}{yyyyMM}-{seq:04d}"
func Format(prefix, month string, seq int) string {
	return fmt.Sprintf("%s%s-%04d", prefix, month, seq)
}

// ParseSequence reads the numeric segment after the last '-'
func ParseSequence(number string) (int, bool) {
	i := strings.LastIndexByte(number, '-')
	if i < 0 || i == len(number)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(number[i+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// IsUniqueViolation recognises duplicate-key errors from Postgres or GORM
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
