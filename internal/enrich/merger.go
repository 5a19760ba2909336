package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/callsheet-cli/internal/knowledge"
	"github.com/sells-group/callsheet-cli/internal/model"
	"github.com/sells-group/callsheet-cli/pkg/notion"
)

// gemPrefix is the key prefix marking enrichment rows in persisted location
// tables. It is a persistence-boundary convention only; inside the model the
// split already happened at parse time.
const gemPrefix = "GEM"

// Merger enriches a production's locations through the knowledge service and
// writes updated GEM rows back to the document store.
type Merger struct {
	Asker knowledge.Asker
	Docs  notion.Store
}

// request is one location's slot in the batched knowledge call. NextAddress
// is the address of the location that follows by global index, eligible or
// not; it is empty for the last location overall and exists only so the
// service can describe inter-location travel.
type request struct {
	Address     string
	NextAddress string
	locIdx      int
}

// Enrich fills the GEM fields of every eligible location in prod with a
// single knowledge-service call. A location is eligible when its enrichment
// data is incomplete and it has a usable address; all others keep their
// existing GemData verbatim. Calling Enrich again after a successful pass is
// a no-op, since the first pass leaves every field non-blank.
//
// A malformed or short reply degrades softly: the reply is applied as far as
// it goes and the rest of the batch is left unenriched. Only a failed
// knowledge call is returned as an error. Returns the number of locations
// that received fresh enrichment data.
func (m *Merger) Enrich(ctx context.Context, prod *model.Production) (int, error) {
	batch := m.eligible(prod)
	if len(batch) == 0 {
		return 0, nil
	}

	prompt := buildPrompt(prod, batch)
	reply, err := m.Asker.Ask(ctx, prompt)
	if err != nil {
		return 0, eris.Wrap(err, "enrich: knowledge call")
	}

	results, err := decodeResults(knowledge.CleanJSON(reply))
	if err != nil {
		zap.L().Warn("enrich: unusable knowledge reply, skipping this round",
			zap.String("production", prod.ID),
			zap.Error(err))
		return 0, nil
	}
	if len(results) < len(batch) {
		zap.L().Warn("enrich: short knowledge reply",
			zap.String("production", prod.ID),
			zap.Int("requested", len(batch)),
			zap.Int("returned", len(results)))
	}

	var applied []*model.Location
	for i := 0; i < min(len(results), len(batch)); i++ {
		loc := &prod.Locations[batch[i].locIdx]
		loc.GemData = mergeResult(results[i], batch[i].NextAddress == "")
		applied = append(applied, loc)
	}

	m.writeBack(ctx, applied)
	return len(applied), nil
}

// eligible selects the locations needing enrichment, in index order.
func (m *Merger) eligible(prod *model.Production) []request {
	var batch []request
	for i := range prod.Locations {
		loc := &prod.Locations[i]
		if !NeedsEnrichment(loc.GemData) || loc.Address() == "" {
			continue
		}
		req := request{Address: loc.Address(), locIdx: i}
		if i+1 < len(prod.Locations) {
			req.NextAddress = prod.Locations[i+1].Address()
		}
		batch = append(batch, req)
	}
	return batch
}

// buildPrompt constructs the single consolidated question covering every
// location in the batch.
func buildPrompt(prod *model.Production, batch []request) string {
	date := prod.ShootDate()
	if date == "" {
		date = "today"
	}

	var sb strings.Builder
	sb.WriteString("You are assisting a film production office. For each numbered shooting location below, ")
	fmt.Fprintf(&sb, "answer the following questions for the shoot date %s:\n", date)
	for _, f := range gemFields {
		fmt.Fprintf(&sb, "- %q: %s\n", f.ReplyKey, f.Question)
	}
	sb.WriteString("\nLocations:\n")
	for i, req := range batch {
		fmt.Fprintf(&sb, "%d. %s", i+1, req.Address)
		if req.NextAddress != "" {
			fmt.Fprintf(&sb, " (next location: %s)", req.NextAddress)
		} else {
			sb.WriteString(` (no next location; answer "N/A" for transportDesc)`)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nReply with only a JSON array, one object per location in the same order, ")
	sb.WriteString("each object holding the keys listed above with short string values.")
	return sb.String()
}

// decodeResults parses the cleaned reply as either an array of objects or a
// single object (treated as a one-element array).
func decodeResults(cleaned string) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &list); err == nil {
		return list, nil
	}
	var single map[string]any
	if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
		return nil, eris.Wrap(err, "enrich: decode reply")
	}
	return []map[string]any{single}, nil
}

// mergeResult builds a full ten-field GemData map from one reply object.
// Missing fields default to "" except transportDesc, which defaults to "N/A";
// when the location had no next address, transportDesc is forced to "N/A"
// regardless of the reply.
func mergeResult(result map[string]any, lastLocation bool) map[string]string {
	gem := make(map[string]string, len(gemFields))
	for _, f := range gemFields {
		value := asString(result[f.ReplyKey])
		if value == "" {
			value = f.Default
		}
		gem[f.Key] = value
	}
	if lastLocation {
		gem[gemPrefix+"transportDesc"] = "N/A"
	}
	return gem
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// writeBack updates the persisted table of each enriched location that has
// one. Failures are logged per location and never abort the batch; the
// in-memory merge already happened.
func (m *Merger) writeBack(ctx context.Context, locs []*model.Location) {
	g, ctx := errgroup.WithContext(ctx)
	for _, loc := range locs {
		if loc.TableID == "" {
			continue
		}
		g.Go(func() error {
			if err := m.writeBackTable(ctx, loc); err != nil {
				zap.L().Warn("enrich: table write-back failed",
					zap.String("table", loc.TableID),
					zap.Int("location", loc.Index),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// writeBackTable re-reads the persisted table and replaces the value cell of
// every GEM row that received a non-empty value. Non-GEM rows and GEM rows
// without a replacement pass through unchanged; row structure is never
// altered.
func (m *Merger) writeBackTable(ctx context.Context, loc *model.Location) error {
	rows, err := m.Docs.GetTable(ctx, loc.TableID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(row[0])
		if !strings.HasPrefix(key, gemPrefix) {
			continue
		}
		if value := loc.GemData[key]; value != "" {
			row[1] = value
		}
	}
	return m.Docs.PutTable(ctx, loc.TableID, rows)
}
