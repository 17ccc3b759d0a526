// Package merge admits incoming records into an existing collection while
// keeping it free of duplicates.
package merge

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/lepinkainen/catalogue/internal/dedup"
	"github.com/lepinkainen/catalogue/internal/fingerprint"
	"github.com/lepinkainen/catalogue/internal/record"
)

// barcodeAttempts bounds how often the generator is asked for an unused code
// before a numeric suffix is appended instead.
const barcodeAttempts = 8

// Rejection describes why an incoming record was dropped.
type Rejection struct {
	Title      string
	Key        string
	ExistingID int64
}

// Result is the outcome of one merge.
type Result struct {
	// Collection is the existing collection followed by the accepted records.
	Collection []record.Record
	// Accepted holds the admitted records in admission order.
	Accepted []record.Record
	// Rejected holds the titles of dropped records in input order.
	Rejected []string
	// Rejections carries the matching key for every entry of Rejected.
	Rejections []Rejection
}

// Engine merges batches of records. The zero value is not usable; use NewEngine.
type Engine struct {
	now     func() time.Time
	barcode BarcodeFunc
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for admission timestamps and barcodes.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithBarcodeFunc replaces the barcode generator.
func WithBarcodeFunc(fn BarcodeFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.barcode = fn
		}
	}
}

// WithLogger sets the logger used for per-record debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a merge engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:     time.Now,
		barcode: NewBarcodeGenerator(DefaultBarcodePrefix),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Merge admits every record of incoming that does not duplicate a record of
// existing or a record admitted earlier in the same batch. Input order decides
// which of several mutual duplicates survives and the order ids are handed out.
// Neither existing nor the elements of incoming are modified.
func (e *Engine) Merge(existing, incoming []record.Record) Result {
	idx := dedup.New(existing)
	nextID := NextID(existing)

	res := Result{
		Accepted: make([]record.Record, 0, len(incoming)),
		Rejected: make([]string, 0),
	}

	for _, in := range incoming {
		candidate := in
		candidate.Normalize()

		if key, owner, dup := idx.Match(candidate); dup {
			res.Rejected = append(res.Rejected, candidate.Title)
			res.Rejections = append(res.Rejections, Rejection{Title: candidate.Title, Key: key, ExistingID: owner})
			e.logger.Debug("Skipping duplicate record", "title", candidate.Title, "key", key, "existing_id", owner)
			continue
		}

		now := e.now().UTC()
		candidate.ID = record.NewID(nextID)
		nextID++
		if candidate.Barcode == nil {
			candidate.Barcode = record.Str(e.uniqueBarcode(idx, now))
		}
		created, updated := now, now
		candidate.CreatedAt = &created
		candidate.UpdatedAt = &updated

		res.Accepted = append(res.Accepted, candidate)
		idx.Add(candidate)
	}

	res.Collection = make([]record.Record, 0, len(existing)+len(res.Accepted))
	res.Collection = append(res.Collection, existing...)
	res.Collection = append(res.Collection, res.Accepted...)

	return res
}

// uniqueBarcode returns a generated barcode that no indexed record uses yet.
func (e *Engine) uniqueBarcode(idx *dedup.Index, now time.Time) string {
	var code string
	for i := 0; i < barcodeAttempts; i++ {
		code = e.barcode(now)
		if !idx.Has(fingerprint.BarcodePrefix + code) {
			return code
		}
	}

	base := code
	for n := 2; ; n++ {
		code = base + "-" + strconv.Itoa(n)
		if !idx.Has(fingerprint.BarcodePrefix + code) {
			e.logger.Warn("Barcode generator kept colliding, using numbered barcode", "barcode", code)
			return code
		}
	}
}
