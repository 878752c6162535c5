package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/golemio-go/internal/logger"
	"github.com/samvad-hq/golemio-go/pkg/feeds"
	"github.com/samvad-hq/golemio-go/pkg/publishers"
)

// Service relays new feed entities from every source to the publishers.
type Service struct {
	registry  feeds.FetcherRegistry
	publisher EventPublisher
	dedupe    Deduper
	log       logger.Logger
}

// Result summarises one source within a pass.
type Result struct {
	SourceID  string `json:"source_id"`
	Fetched   int    `json:"fetched"`
	Published int    `json:"published"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// NewService wires the relay. A nil dedupe store relays every entity on every pass.
func NewService(reg feeds.FetcherRegistry, pub EventPublisher, log logger.Logger, dedupe Deduper) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		registry:  reg,
		publisher: pub,
		dedupe:    dedupe,
		log:       log,
	}
}

// Run executes one relay pass over sources. A failing source does not stop
// the others; all failures are joined into the returned error.
func (s *Service) Run(ctx context.Context, sources []feeds.Source) ([]Result, error) {
	if s == nil || s.registry == nil || s.publisher == nil {
		return nil, fmt.Errorf("relay service is not initialized")
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured for relay")
	}

	results := make([]Result, 0, len(sources))
	var errs []error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := s.runSource(ctx, src)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("source relay failed", "source_error", map[string]any{
				"source_id": src.ID,
				"error":     err.Error(),
			})
			continue
		}
		s.log.InfoObj("source relay completed", "source_result", res)
	}

	return results, errors.Join(errs...)
}

func (s *Service) runSource(ctx context.Context, src feeds.Source) (Result, error) {
	res := Result{SourceID: src.ID}

	fetcher, err := s.registry.FetcherFor(src)
	if err != nil {
		return res, fmt.Errorf("resolve fetcher for source %s: %w", src.ID, err)
	}

	entities, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return res, fmt.Errorf("fetch source %s: %w", src.ID, err)
	}
	res.Fetched = len(entities)

	var errs []error
	for _, ent := range entities {
		fp := ent.Fingerprint()

		if s.dedupe != nil {
			seen, err := s.dedupe.Seen(fp)
			if err != nil {
				res.Failed++
				errs = append(errs, fmt.Errorf("check %s: %w", fp, err))
				continue
			}
			if seen {
				res.Skipped++
				continue
			}
		}

		evt := publishers.NewEvent(src.ID, src.Name, ent)
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("publish %s: %w", fp, err))
			continue
		}
		res.Published++

		if s.dedupe != nil {
			if err := s.dedupe.Mark(fp); err != nil {
				errs = append(errs, fmt.Errorf("mark %s: %w", fp, err))
			}
		}
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("source %s: %w", src.ID, errors.Join(errs...))
	}
	return res, nil
}
