// Package parse turns the ordered content blocks of a call-sheet document
// into the typed production model.
package parse

import (
	"regexp"
	"strings"

	"github.com/sells-group/callsheet-cli/internal/model"
	"github.com/sells-group/callsheet-cli/internal/table"
	"github.com/sells-group/callsheet-cli/pkg/notion"
)

type section int

const (
	sectionNone section = iota
	sectionCrew
	sectionCast
	sectionLocations
	sectionScenes
)

// sectionKeywords maps level-1 heading keywords to sections. Matching is
// case-insensitive substring and the first hit in this order wins; a heading
// containing several keywords is undefined upstream, so no combination
// handling is attempted.
var sectionKeywords = []struct {
	keyword string
	section section
}{
	{"crew", sectionCrew},
	{"cast", sectionCast},
	{"location", sectionLocations},
	{"scene", sectionScenes},
}

func matchSection(heading string) section {
	lower := strings.ToLower(heading)
	for _, sk := range sectionKeywords {
		if strings.Contains(lower, sk.keyword) {
			return sk.section
		}
	}
	return sectionNone
}

// acc is the fold state carried across the block walk.
type acc struct {
	section     section
	locationIdx int // index into production.Locations, -1 until a location heading is seen
	production  *model.Production
}

// ParseItem folds an item's content blocks into a Production. Unknown block
// types are ignored and never raise errors.
func ParseItem(item *notion.Item) *model.Production {
	prod := &model.Production{
		ID:         item.ID,
		Title:      item.Title,
		Properties: item.Properties,
	}
	if prod.Properties == nil {
		prod.Properties = map[string]any{}
	}

	state := acc{section: sectionNone, locationIdx: -1, production: prod}
	for _, blk := range item.Content {
		state = step(state, blk)
	}
	return prod
}

func step(state acc, blk notion.Block) acc {
	switch blk.Type {
	case notion.BlockHeading1:
		state.section = matchSection(blk.Text)

	case notion.BlockHeading2:
		// Level-2 headings are inert outside the locations section.
		if state.section != sectionLocations {
			return state
		}
		if !strings.Contains(strings.ToLower(blk.Text), "location") {
			return state
		}
		prod := state.production
		prod.Locations = append(prod.Locations, model.Location{
			Index:   len(prod.Locations) + 1,
			Data:    map[string]string{},
			GemData: map[string]string{},
		})
		state.locationIdx = len(prod.Locations) - 1

	case notion.BlockTable:
		state = applyTable(state, blk)
	}
	return state
}

// applyTable routes a table block by the current section. Crew, cast and
// scene tables replace the prior list; a second table in the same section
// overwrites the first rather than merging (preserved upstream behavior).
func applyTable(state acc, blk notion.Block) acc {
	prod := state.production
	switch state.section {
	case sectionCrew:
		prod.Crew = toPeople(table.ToRecordList(blk.Rows))
	case sectionCast:
		prod.Cast = toPeople(table.ToRecordList(blk.Rows))
	case sectionScenes:
		prod.Scenes = toScenes(table.ToRecordList(blk.Rows))
	case sectionLocations:
		if state.locationIdx < 0 {
			return state
		}
		loc := &prod.Locations[state.locationIdx]
		for key, value := range table.ToKeyValue(blk.Rows) {
			if strings.HasPrefix(key, "GEM") {
				loc.GemData[key] = value
			} else {
				loc.Data[key] = value
			}
		}
		loc.TableID = blk.TableID
	}
	return state
}

func toPeople(records []map[string]string) []model.Person {
	people := make([]model.Person, len(records))
	for i, r := range records {
		people[i] = model.Person(r)
	}
	return people
}

func toScenes(records []map[string]string) []model.Scene {
	scenes := make([]model.Scene, len(records))
	for i, r := range records {
		scenes[i] = model.Scene(r)
	}
	return scenes
}

// dayPattern matches the trailing shoot-day suffix of a title, e.g.
// "Sunset Harbor - Day 3".
var dayPattern = regexp.MustCompile(`\s*-\s*Day\s+\d+\s*$`)

// BaseTitle strips a trailing "- Day N" suffix from a production title.
func BaseTitle(title string) string {
	return strings.TrimSpace(dayPattern.ReplaceAllString(title, ""))
}

// Day is one shoot day of a grouped production.
type Day struct {
	ID       string `json:"id"`
	ShootDay int    `json:"shoot_day"`
	Date     string `json:"date"`
}

// ProductionGroup collects a title's shoot days.
type ProductionGroup struct {
	Title string `json:"title"`
	Days  []Day  `json:"days"`
}

// GroupProductions groups productions by base title, preserving the order in
// which each title was first seen.
func GroupProductions(prods []*model.Production) []ProductionGroup {
	var groups []ProductionGroup
	byTitle := make(map[string]int)
	for _, p := range prods {
		base := BaseTitle(p.Title)
		day := Day{ID: p.ID, ShootDay: p.ShootDay(), Date: p.ShootDate()}
		if idx, ok := byTitle[base]; ok {
			groups[idx].Days = append(groups[idx].Days, day)
			continue
		}
		byTitle[base] = len(groups)
		groups = append(groups, ProductionGroup{Title: base, Days: []Day{day}})
	}
	return groups
}
