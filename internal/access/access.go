// Package access decides what a caller may see of a production, keyed by
// their phone number.
package access

import (
	"strings"

	"github.com/sells-group/callsheet-cli/internal/model"
)

// Result is the authentication outcome. When the phone matches nobody the
// production is sanitized and IsClosedSet is forced false, so an
// unauthenticated probe cannot learn that a set is closed.
type Result struct {
	Authenticated bool              `json:"authenticated"`
	User          *model.UserInfo   `json:"user_info"`
	Production    *model.Production `json:"production"`
	IsClosedSet   bool              `json:"is_closed_set"`
}

// NormalizePhone strips every non-digit character. Empty input yields "".
func NormalizePhone(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// FindUser returns the first crew member, then the first cast member, whose
// normalized phone equals the caller's normalized phone, or nil when nobody
// matches. Duplicate phone numbers are not disambiguated; the first match is
// authoritative.
func FindUser(prod *model.Production, phone string) *model.UserInfo {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil
	}
	for _, person := range prod.Crew {
		if NormalizePhone(person["Phone"]) == normalized {
			return userInfo(person, model.UserKindCrew)
		}
	}
	for _, person := range prod.Cast {
		if NormalizePhone(person["Phone"]) == normalized {
			return userInfo(person, model.UserKindCast)
		}
	}
	return nil
}

func userInfo(person model.Person, kind model.UserKind) *model.UserInfo {
	role := person["Role"]
	if role == "" {
		role = person["Character"]
	}
	return &model.UserInfo{
		Name:     person["Name"],
		Role:     role,
		CallTime: person["Call Time"],
		Kind:     kind,
	}
}

// Sanitize deep-copies the production and strips the Phone field from every
// crew and cast record. Everything else, including the closed_set property,
// passes through: the client needs the flag before authentication to enforce
// the no-skip behavior.
func Sanitize(prod *model.Production) *model.Production {
	out := &model.Production{
		ID:         prod.ID,
		Title:      prod.Title,
		Properties: copyAnyMap(prod.Properties),
		Crew:       sanitizePeople(prod.Crew),
		Cast:       sanitizePeople(prod.Cast),
		Locations:  copyLocations(prod.Locations),
		Scenes:     copyScenes(prod.Scenes),
	}
	return out
}

// Authenticate matches the phone against crew and cast. A match yields the
// full production, the matched user and the production's actual closed-set
// flag; no match yields the sanitized production, a nil user and
// IsClosedSet false regardless of the actual flag.
func Authenticate(prod *model.Production, phone string) Result {
	user := FindUser(prod, phone)
	if user == nil {
		return Result{
			Authenticated: false,
			Production:    Sanitize(prod),
			IsClosedSet:   false,
		}
	}
	return Result{
		Authenticated: true,
		User:          user,
		Production:    prod,
		IsClosedSet:   prod.IsClosedSet(),
	}
}

func sanitizePeople(people []model.Person) []model.Person {
	if people == nil {
		return nil
	}
	out := make([]model.Person, len(people))
	for i, person := range people {
		copied := make(model.Person, len(person))
		for k, v := range person {
			if k == "Phone" {
				continue
			}
			copied[k] = v
		}
		out[i] = copied
	}
	return out
}

func copyScenes(scenes []model.Scene) []model.Scene {
	if scenes == nil {
		return nil
	}
	out := make([]model.Scene, len(scenes))
	for i, scene := range scenes {
		copied := make(model.Scene, len(scene))
		for k, v := range scene {
			copied[k] = v
		}
		out[i] = copied
	}
	return out
}

func copyLocations(locs []model.Location) []model.Location {
	if locs == nil {
		return nil
	}
	out := make([]model.Location, len(locs))
	for i, loc := range locs {
		out[i] = model.Location{
			Index:   loc.Index,
			TableID: loc.TableID,
			Data:    copyStringMap(loc.Data),
			GemData: copyStringMap(loc.GemData),
		}
	}
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
