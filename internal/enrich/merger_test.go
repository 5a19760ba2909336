package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/callsheet-cli/internal/model"
	"github.com/sells-group/callsheet-cli/pkg/notion"
)

// stubAsker returns a canned reply and counts calls.
type stubAsker struct {
	calls   int
	prompts []string
	reply   string
	err     error
}

func (s *stubAsker) Ask(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

// mockDocs implements notion.Store for write-back tests.
type mockDocs struct {
	mock.Mock
}

func (m *mockDocs) ListCollections(ctx context.Context) ([]notion.Collection, error) {
	args := m.Called(ctx)
	return args.Get(0).([]notion.Collection), args.Error(1)
}

func (m *mockDocs) GetItems(ctx context.Context, collectionID string) ([]notion.Item, error) {
	args := m.Called(ctx, collectionID)
	return args.Get(0).([]notion.Item), args.Error(1)
}

func (m *mockDocs) GetItem(ctx context.Context, itemID string) (*notion.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Item), args.Error(1)
}

func (m *mockDocs) GetTable(ctx context.Context, tableID string) ([][]string, error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]string), args.Error(1)
}

func (m *mockDocs) PutTable(ctx context.Context, tableID string, rows [][]string) error {
	args := m.Called(ctx, tableID, rows)
	return args.Error(0)
}

func location(address string) model.Location {
	data := map[string]string{}
	if address != "" {
		data["Location Address"] = address
	}
	return model.Location{Data: data, GemData: map[string]string{}}
}

func production(locs ...model.Location) *model.Production {
	for i := range locs {
		locs[i].Index = i + 1
	}
	return &model.Production{
		ID:         "prod-1",
		Title:      "Sunset Harbor - Day 1",
		Properties: map[string]any{"date": "2026-03-02"},
		Locations:  locs,
	}
}

// replyFor builds a knowledge reply with distinct values per location.
func replyFor(n int) string {
	var out []map[string]string
	for i := 0; i < n; i++ {
		entry := make(map[string]string)
		for _, f := range Fields() {
			entry[f.ReplyKey] = fmt.Sprintf("%s-%d", f.ReplyKey, i+1)
		}
		out = append(out, entry)
	}
	encoded, _ := json.Marshal(out)
	return string(encoded)
}

func TestEnrichSingleBatchedCall(t *testing.T) {
	asker := &stubAsker{reply: replyFor(2)}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"), location("2 Second St"))
	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Equal(t, 2, enriched)

	// One call covers every eligible location.
	require.Equal(t, 1, asker.calls)
	assert.Contains(t, asker.prompts[0], "1 First St")
	assert.Contains(t, asker.prompts[0], "2 Second St")
	assert.Contains(t, asker.prompts[0], "2026-03-02")

	assert.Equal(t, "hospital-1", prod.Locations[0].GemData["GEMhospital"])
	assert.Equal(t, "sunriseTime-2", prod.Locations[1].GemData["GEMsunriseTime"])

	// The last location has no next address, so transportDesc is forced.
	assert.Equal(t, "transportDesc-1", prod.Locations[0].GemData["GEMtransportDesc"])
	assert.Equal(t, "N/A", prod.Locations[1].GemData["GEMtransportDesc"])
}

func TestEnrichIdempotent(t *testing.T) {
	asker := &stubAsker{reply: replyFor(1)}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"))
	_, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	first := prod.Locations[0].GemData

	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Zero(t, enriched)
	assert.Equal(t, 1, asker.calls)
	assert.Equal(t, first, prod.Locations[0].GemData)
}

func TestEnrichSkipsLocationsWithoutAddress(t *testing.T) {
	asker := &stubAsker{reply: replyFor(1)}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	stale := location("")
	stale.GemData = map[string]string{"GEMhospital": "old value"}
	prod := production(stale, location("2 Second St"))

	_, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)

	// The addressless location keeps its stale data verbatim.
	assert.Equal(t, map[string]string{"GEMhospital": "old value"}, prod.Locations[0].GemData)
	assert.Equal(t, "hospital-1", prod.Locations[1].GemData["GEMhospital"])
}

func TestEnrichNoEligibleLocationsMakesNoCall(t *testing.T) {
	asker := &stubAsker{}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	full := location("1 First St")
	full.GemData = fullGemData()
	prod := production(full)

	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Zero(t, enriched)
	assert.Zero(t, asker.calls)
}

func TestEnrichNextAddressUsesFollowingLocationEvenIfIneligible(t *testing.T) {
	asker := &stubAsker{reply: replyFor(1)}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	next := location("99 Last Rd")
	next.GemData = fullGemData() // ineligible, but still the travel target
	prod := production(location("1 First St"), next)

	_, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)

	require.Equal(t, 1, asker.calls)
	assert.Contains(t, asker.prompts[0], "99 Last Rd")
	// The reply's transportDesc survives because a next address existed.
	assert.Equal(t, "transportDesc-1", prod.Locations[0].GemData["GEMtransportDesc"])
}

func TestEnrichShortReplyDegradesSoftly(t *testing.T) {
	asker := &stubAsker{reply: replyFor(1)}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"), location("2 Second St"))
	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Equal(t, 1, enriched)

	assert.Equal(t, "hospital-1", prod.Locations[0].GemData["GEMhospital"])
	assert.Empty(t, prod.Locations[1].GemData)
}

func TestEnrichMalformedReplyIsNotFatal(t *testing.T) {
	asker := &stubAsker{reply: "the service had a bad day"}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"))
	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Zero(t, enriched)
	assert.Empty(t, prod.Locations[0].GemData)
}

func TestEnrichFencedReply(t *testing.T) {
	asker := &stubAsker{reply: "```json\n" + replyFor(1) + "\n```"}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"))
	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Equal(t, 1, enriched)
	assert.Equal(t, "hospital-1", prod.Locations[0].GemData["GEMhospital"])
}

func TestEnrichSingleObjectReply(t *testing.T) {
	entry := make(map[string]string)
	for _, f := range Fields() {
		entry[f.ReplyKey] = "solo-" + f.ReplyKey
	}
	encoded, _ := json.Marshal(entry)

	asker := &stubAsker{reply: string(encoded)}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"))
	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Equal(t, 1, enriched)
	assert.Equal(t, "solo-hospital", prod.Locations[0].GemData["GEMhospital"])
}

func TestEnrichMissingFieldsDefault(t *testing.T) {
	asker := &stubAsker{reply: `[{"hospital": "City General"}]`}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"), location("2 Second St"))
	_, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)

	gem := prod.Locations[0].GemData
	assert.Equal(t, "City General", gem["GEMhospital"])
	assert.Equal(t, "", gem["GEMsunriseTime"])
	// transportDesc defaults to N/A even with a next address present.
	assert.Equal(t, "N/A", gem["GEMtransportDesc"])
}

func TestEnrichWriteBackReplacesOnlyGemValueCells(t *testing.T) {
	asker := &stubAsker{reply: replyFor(1)}
	docs := new(mockDocs)
	m := &Merger{Asker: asker, Docs: docs}

	persisted := [][]string{
		{"Location Address", "1 First St"},
		{"Unit Base", "Car park B"},
		{"GEMhospital", "old hospital"},
		{"GEMunknownField", "kept as-is"},
	}
	docs.On("GetTable", mock.Anything, "tbl-1").Return(persisted, nil)
	docs.On("PutTable", mock.Anything, "tbl-1", mock.MatchedBy(func(rows [][]string) bool {
		return rows[0][1] == "1 First St" && // non-GEM untouched
			rows[1][1] == "Car park B" &&
			rows[2][1] == "hospital-1" && // GEM value replaced
			rows[3][1] == "kept as-is" // GEM row with no result untouched
	})).Return(nil)

	loc := location("1 First St")
	loc.TableID = "tbl-1"
	prod := production(loc)

	_, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	docs.AssertExpectations(t)
}

func TestEnrichWriteBackFailureDoesNotAbortMerge(t *testing.T) {
	asker := &stubAsker{reply: replyFor(1)}
	docs := new(mockDocs)
	m := &Merger{Asker: asker, Docs: docs}

	docs.On("GetTable", mock.Anything, "tbl-1").Return(nil, assert.AnError)

	loc := location("1 First St")
	loc.TableID = "tbl-1"
	prod := production(loc)

	enriched, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Equal(t, 1, enriched)
	// In-memory merge survives the failed write-back.
	assert.Equal(t, "hospital-1", prod.Locations[0].GemData["GEMhospital"])
}

func TestEnrichKnowledgeFailureSurfaces(t *testing.T) {
	asker := &stubAsker{err: assert.AnError}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"))
	_, err := m.Enrich(context.Background(), prod)
	assert.Error(t, err)
	assert.Empty(t, prod.Locations[0].GemData)
}

func TestEnrichDefaultsShootDateToToday(t *testing.T) {
	asker := &stubAsker{reply: replyFor(1)}
	m := &Merger{Asker: asker, Docs: new(mockDocs)}

	prod := production(location("1 First St"))
	prod.Properties = map[string]any{}

	_, err := m.Enrich(context.Background(), prod)
	require.NoError(t, err)
	assert.Contains(t, asker.prompts[0], "today")
}
