package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"morning-blessing/internal/domain"
)

// RecipientSource resolves configured recipients by name and lists them in
// configuration order.
type RecipientSource interface {
	Get(name string) (domain.Recipient, bool)
	Names() []string
}

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// GreetingService builds one GreetingRecord per recipient.
type GreetingService struct {
	recipients  RecipientSource
	params      ParamGetter
	facts       *FactService
	paramPrefix string
	logger      *slog.Logger
	now         func() time.Time
}

func NewGreetingService(recipients RecipientSource, params ParamGetter, facts *FactService, paramPrefix string, logger *slog.Logger) (*GreetingService, error) {
	if recipients == nil {
		return nil, errors.New("usecase: recipient source must not be nil")
	}
	if params == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if facts == nil {
		return nil, errors.New("usecase: fact service must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GreetingService{
		recipients:  recipients,
		params:      params,
		facts:       facts,
		paramPrefix: paramPrefix,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Process assembles the greeting record for one recipient. It never returns
// an error: any failure is logged and degrades to a name-only record, so a
// single recipient can never fail the batch.
func (s *GreetingService) Process(ctx context.Context, name string) domain.GreetingRecord {
	rec, ok := s.recipients.Get(name)
	if !ok {
		return s.degrade(name, newError(ErrorUnknownRecipient, "recipient_not_configured", nil))
	}

	city := rec.CityOn(weekdayIndex(s.now()))
	number, err := s.lookupNumber(ctx, name)
	if err != nil {
		return s.degrade(name, newError(ErrorNumberLookup, "number_lookup_failed", err))
	}

	var bundle domain.FactBundle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bundle.Holiday = s.facts.Holiday(gctx)
		return nil
	})
	g.Go(func() error {
		bundle.Weather = s.facts.Weather(gctx, city)
		return nil
	})
	g.Go(func() error {
		bundle.Headlines = s.facts.Headlines(gctx)
		return nil
	})
	// Gatherers contain their own failures, so Wait cannot fail.
	_ = g.Wait()

	blessings := s.facts.Blessing(ctx, bundle.Holiday, rec.Desc, city, bundle.Weather, bundle.Headlines)

	return domain.GreetingRecord{
		PhoneNumbers: number,
		Name:         name,
		City:         city,
		Weather:      bundle.Weather,
		Hashtag1:     bundle.Headlines[0],
		Hashtag2:     bundle.Headlines[1],
		Hashtag3:     bundle.Headlines[2],
		Blessings:    blessings,
	}
}

func (s *GreetingService) degrade(name string, err error) domain.GreetingRecord {
	s.logger.Error("recipient pipeline degraded", "recipient", name, "err", err)
	return domain.GreetingRecord{Name: name, Degraded: true}
}

// lookupNumber resolves the recipient's destination number from the external
// key-value source, keyed by the uppercased recipient name.
func (s *GreetingService) lookupNumber(ctx context.Context, name string) (string, error) {
	return s.params.GetParameter(ctx, s.paramPrefix+"/numbers/"+strings.ToUpper(name))
}

// weekdayIndex maps time.Weekday to a Monday-first index.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
