// Package callsheet orchestrates the core surface: list and fetch
// productions from the document store, enrich their locations, and gate
// field visibility by caller phone number.
package callsheet

import (
	"context"
	"errors"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/callsheet-cli/internal/access"
	"github.com/sells-group/callsheet-cli/internal/enrich"
	"github.com/sells-group/callsheet-cli/internal/knowledge"
	"github.com/sells-group/callsheet-cli/internal/model"
	"github.com/sells-group/callsheet-cli/internal/parse"
	"github.com/sells-group/callsheet-cli/internal/store"
	"github.com/sells-group/callsheet-cli/pkg/notion"
)

// ErrNotFound is returned when a requested production does not exist in the
// document store.
var ErrNotFound = eris.New("callsheet: production not found")

// Service is the call-sheet application core.
type Service struct {
	docs   notion.Store
	merger *enrich.Merger
	runs   store.Store // optional; nil disables the audit trail
}

// NewService wires the document store, knowledge service and optional run
// store into a Service.
func NewService(docs notion.Store, asker knowledge.Asker, runs store.Store) *Service {
	return &Service{
		docs:   docs,
		merger: &enrich.Merger{Asker: asker, Docs: docs},
		runs:   runs,
	}
}

// ListGroupedProductions parses every item of every collection and groups
// the resulting productions by base title.
func (s *Service) ListGroupedProductions(ctx context.Context) ([]parse.ProductionGroup, error) {
	collections, err := s.docs.ListCollections(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "callsheet: list productions")
	}

	var prods []*model.Production
	for _, coll := range collections {
		items, err := s.docs.GetItems(ctx, coll.ID)
		if err != nil {
			return nil, eris.Wrap(err, "callsheet: list productions")
		}
		for i := range items {
			prods = append(prods, parse.ParseItem(&items[i]))
		}
	}
	return parse.GroupProductions(prods), nil
}

// GetProduction fetches and parses one production. Every call re-reads the
// backing document; there is no cached state.
func (s *Service) GetProduction(ctx context.Context, id string) (*model.Production, error) {
	item, err := s.docs.GetItem(ctx, id)
	if err != nil {
		var apiErr *notionapi.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "callsheet: get production")
	}
	return parse.ParseItem(item), nil
}

// Enrich runs the enrichment merger over the production and records the run
// when a store is configured. Idempotent: a second call with no new upstream
// data finds nothing eligible and changes nothing.
func (s *Service) Enrich(ctx context.Context, prod *model.Production) (*model.Production, error) {
	var run *store.Run
	if s.runs != nil {
		r, err := s.runs.CreateRun(ctx, prod.ID, prod.Title, len(prod.Locations))
		if err != nil {
			zap.L().Warn("callsheet: record run failed", zap.Error(err))
		} else {
			run = r
		}
	}

	enriched, err := s.merger.Enrich(ctx, prod)
	if err != nil {
		if run != nil {
			if ferr := s.runs.FailRun(ctx, run.ID, err.Error()); ferr != nil {
				zap.L().Warn("callsheet: record run failure failed", zap.Error(ferr))
			}
		}
		return nil, err
	}

	if run != nil {
		if cerr := s.runs.CompleteRun(ctx, run.ID, enriched); cerr != nil {
			zap.L().Warn("callsheet: record run completion failed", zap.Error(cerr))
		}
	}
	return prod, nil
}

// Authenticate gates the production by the caller's phone number.
func (s *Service) Authenticate(prod *model.Production, phone string) access.Result {
	return access.Authenticate(prod, phone)
}

// Sanitize returns a copy of the production with caller phone numbers
// removed.
func (s *Service) Sanitize(prod *model.Production) *model.Production {
	return access.Sanitize(prod)
}
