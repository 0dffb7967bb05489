package datasets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneymagic/internal/calendar"
	"github.com/dvloznov/moneymagic/internal/coach"
	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/ingest"
	"github.com/dvloznov/moneymagic/internal/pipeline"
	"github.com/dvloznov/moneymagic/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrTransactionNotFound is returned when a tx_id is not part of the dataset.
var ErrTransactionNotFound = errors.New("transaction not found")

// ValidationError reports a request that can never succeed as sent.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Coach answers free-text questions about a dataset.
type Coach interface {
	Respond(ctx context.Context, question string, summary domain.Summary, subs []domain.Subscription) coach.Response
}

// ChangeNotifier is told whenever a dataset's transactions change.
type ChangeNotifier interface {
	DatasetChanged(ctx context.Context, datasetID string)
}

var _ Coach = (*coach.Responder)(nil)

// ManualInput is the payload of a manually created dataset.
type ManualInput struct {
	Transactions  []pipeline.Record
	Goals         domain.Goals
	Subscriptions []pipeline.Record
}

// Service owns the dataset lifecycle: create, read, mutate, recompute.
type Service struct {
	store    store.Store
	coach    Coach
	notifier ChangeNotifier
	log      zerolog.Logger
	now      func() time.Time

	// mu serializes read-modify-write of datasets within this process.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers a listener for dataset changes.
func WithNotifier(n ChangeNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a dataset service.
func NewService(st store.Store, c Coach, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store: st,
		coach: c,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFromUpload parses an uploaded CSV or XLSX statement into a new dataset.
func (s *Service) CreateFromUpload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	format := ingest.DetectFormat(filename, contentType, data)
	txs, err := ingest.Parse(format, data)
	if err != nil {
		return "", fmt.Errorf("CreateFromUpload: parse %s: %w", format, err)
	}

	s.log.Debug().
		Str("filename", filename).
		Str("format", format).
		Int("tx_count", len(txs)).
		Msg("Parsed upload")

	return s.create(ctx, &domain.Dataset{Transactions: txs})
}

// CreateManual builds a dataset from client-supplied transactions, goals and
// an optional explicit subscription list.
func (s *Service) CreateManual(ctx context.Context, in ManualInput) (string, error) {
	txs := pipeline.NormalizeTransactions(in.Transactions)
	for i := range txs {
		if txs[i].Source == "" {
			txs[i].Source = domain.SourceManual
		}
	}

	return s.create(ctx, &domain.Dataset{
		Transactions:          txs,
		Goals:                 in.Goals,
		ExplicitSubscriptions: pipeline.NormalizeSubscriptions(in.Subscriptions),
	})
}

func (s *Service) create(ctx context.Context, ds *domain.Dataset) (string, error) {
	id := uuid.New().String()
	now := s.now().UTC()
	ds.CreatedAt = now
	ds.UpdatedAt = now
	pipeline.Apply(ds)

	if err := s.store.Save(ctx, id, ds); err != nil {
		return "", fmt.Errorf("create: save dataset: %w", err)
	}

	s.log.Info().
		Str("dataset_id", id).
		Int("tx_count", len(ds.Transactions)).
		Int("subscriptions", len(ds.Subscriptions)).
		Msg("Dataset created")

	s.changed(ctx, id)
	return id, nil
}

// Get loads a dataset. Unknown ids yield an error wrapping store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: load dataset %s: %w", id, err)
	}
	return ds, nil
}

// Transactions returns the dataset's transactions, newest first.
func (s *Service) Transactions(ctx context.Context, id string) ([]domain.Transaction, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	txs := append([]domain.Transaction{}, ds.Transactions...)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date > txs[j].Date
	})
	return txs, nil
}

// AddTransaction validates and appends one transaction, then recomputes.
// The returned transaction carries the category assigned by recomputation.
func (s *Service) AddTransaction(ctx context.Context, id string, rec pipeline.Record) (domain.Transaction, *domain.Dataset, error) {
	tx, err := validatedTransaction(rec)
	if err != nil {
		return domain.Transaction{}, nil, err
	}
	if tx.Source == "" {
		tx.Source = domain.SourceManual
	}

	ds, err := s.mutate(ctx, id, true, func(ds *domain.Dataset) error {
		if indexOf(ds.Transactions, tx.TxID) >= 0 {
			tx.TxID = uuid.New().String()
		}
		ds.Transactions = append(ds.Transactions, tx)
		return nil
	})
	if err != nil {
		return domain.Transaction{}, nil, fmt.Errorf("AddTransaction: %w", err)
	}
	return ds.Transactions[indexOf(ds.Transactions, tx.TxID)], ds, nil
}

// UpdateTransaction replaces the fields of one transaction, keeping its id.
// A blank source keeps the stored one.
func (s *Service) UpdateTransaction(ctx context.Context, id, txID string, rec pipeline.Record) (domain.Transaction, *domain.Dataset, error) {
	tx, err := validatedTransaction(rec)
	if err != nil {
		return domain.Transaction{}, nil, err
	}
	tx.TxID = txID

	ds, err := s.mutate(ctx, id, true, func(ds *domain.Dataset) error {
		i := indexOf(ds.Transactions, txID)
		if i < 0 {
			return fmt.Errorf("%s: %w", txID, ErrTransactionNotFound)
		}
		if tx.Source == "" {
			tx.Source = ds.Transactions[i].Source
		}
		ds.Transactions[i] = tx
		return nil
	})
	if err != nil {
		return domain.Transaction{}, nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return ds.Transactions[indexOf(ds.Transactions, txID)], ds, nil
}

// DeleteTransaction removes one transaction and recomputes.
func (s *Service) DeleteTransaction(ctx context.Context, id, txID string) (*domain.Dataset, error) {
	ds, err := s.mutate(ctx, id, true, func(ds *domain.Dataset) error {
		i := indexOf(ds.Transactions, txID)
		if i < 0 {
			return fmt.Errorf("%s: %w", txID, ErrTransactionNotFound)
		}
		ds.Transactions = append(ds.Transactions[:i], ds.Transactions[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("DeleteTransaction: %w", err)
	}
	return ds, nil
}

// SetGoals replaces the dataset goals. The summary is left as it was.
func (s *Service) SetGoals(ctx context.Context, id string, goals domain.Goals) (domain.Goals, error) {
	ds, err := s.mutate(ctx, id, false, func(ds *domain.Dataset) error {
		ds.Goals = goals
		return nil
	})
	if err != nil {
		return domain.Goals{}, fmt.Errorf("SetGoals: %w", err)
	}
	return ds.Goals, nil
}

// Coach answers a question using the dataset's summary and subscriptions.
func (s *Service) Coach(ctx context.Context, id, question string) (coach.Response, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return coach.Response{}, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return coach.Response{}, &ValidationError{Msg: "question is required"}
	}
	return s.coach.Respond(ctx, question, ds.Summary, ds.Subscriptions), nil
}

// CalendarEvents projects upcoming charges for the dataset.
func (s *Service) CalendarEvents(ctx context.Context, id string, horizonDays int) ([]calendar.Event, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return calendar.Events(ds.Subscriptions, ds.Transactions, horizonDays), nil
}

func (s *Service) mutate(ctx context.Context, id string, recompute bool, fn func(*domain.Dataset) error) (*domain.Dataset, error) {
	ds, err := s.apply(ctx, id, recompute, fn)
	if err != nil {
		return nil, err
	}
	// Notified outside the lock so a slow export publish only delays this caller.
	if recompute {
		s.changed(ctx, id)
	}
	return ds, nil
}

func (s *Service) apply(ctx context.Context, id string, recompute bool, fn func(*domain.Dataset) error) (*domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}
	if err := fn(ds); err != nil {
		return nil, err
	}
	if recompute {
		pipeline.Apply(ds)
	}
	ds.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, id, ds); err != nil {
		return nil, fmt.Errorf("save dataset %s: %w", id, err)
	}

	s.log.Info().
		Str("dataset_id", id).
		Int("tx_count", len(ds.Transactions)).
		Bool("recomputed", recompute).
		Msg("Dataset updated")
	return ds, nil
}

func (s *Service) changed(ctx context.Context, id string) {
	if s.notifier != nil {
		s.notifier.DatasetChanged(ctx, id)
	}
}

// validatedTransaction normalizes a manually entered record and rejects it
// when it has no usable date or merchant.
func validatedTransaction(rec pipeline.Record) (domain.Transaction, error) {
	tx := pipeline.NormalizeTransaction(rec)
	if _, err := civil.ParseDate(tx.Date); err != nil {
		return domain.Transaction{}, &ValidationError{Msg: "date must be a valid YYYY-MM-DD date"}
	}
	if tx.Merchant == "" {
		return domain.Transaction{}, &ValidationError{Msg: "merchant is required"}
	}
	return tx, nil
}

func indexOf(txs []domain.Transaction, txID string) int {
	for i, tx := range txs {
		if tx.TxID == txID {
			return i
		}
	}
	return -1
}
