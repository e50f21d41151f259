package catalog

import (
	"net/url"
	"strconv"

	"gorm.io/gorm"
)

// Recognized list view parameters.
const (
	ParamOnlyToBuy = "only_to_by"
	ParamGroup     = "group"
	ParamFlatView  = "flat_view"
	ParamError     = "error"
)

var allowedParams = []string{ParamOnlyToBuy, ParamGroup, ParamFlatView, ParamError}

// QueryState is the normalized list view filter: only allow-listed keys
// with a non-empty value.
type QueryState map[string]string

// ParseQueryState keeps the recognized, non-empty parameters of raw. When a
// key is repeated the last value wins.
func ParseQueryState(raw url.Values) QueryState {
	q := QueryState{}
	for _, key := range allowedParams {
		values := raw[key]
		if len(values) == 0 {
			continue
		}
		if v := values[len(values)-1]; v != "" {
			q[key] = v
		}
	}
	return q
}

func (q QueryState) Has(key string) bool {
	_, ok := q[key]
	return ok
}

func (q QueryState) Get(key string) string {
	return q[key]
}

// With returns a copy of q with key set, or removed when value is empty.
func (q QueryState) With(key, value string) QueryState {
	out := make(QueryState, len(q)+1)
	for k, v := range q {
		out[k] = v
	}
	if value == "" {
		delete(out, key)
	} else {
		out[key] = value
	}
	return out
}

// Encode renders the canonical query string: keys sorted, values
// percent-encoded.
func (q QueryState) Encode() string {
	values := make(url.Values, len(q))
	for k, v := range q {
		values.Set(k, v)
	}
	return values.Encode()
}

// GroupID returns the selected item group id. ok is false when no group is
// selected or the value is not a valid id.
func (q QueryState) GroupID() (id uint, ok bool) {
	v, present := q[ParamGroup]
	if !present {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// Filter turns a QueryState into predicates scoped to one user's groups.
type Filter struct {
	State  QueryState
	UserID uint
}

// Entries scopes a query over catalog_entries.
func (f Filter) Entries() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("catalog_entries.catalog_group_id IN (?)", ownedGroupIDs(db, f.UserID)).
			Where("catalog_entries.to_buy = ?", f.State.Has(ParamOnlyToBuy))

		switch {
		case f.State.Has(ParamGroup):
			id, ok := f.State.GroupID()
			if !ok {
				return db.Where("1 = 0")
			}
			return db.Where(
				"catalog_entries.item_definition_id IN (SELECT item_definition_id FROM item_definition_groups WHERE item_group_id = ?)",
				id,
			)
		case !f.State.Has(ParamFlatView):
			return db.Where("catalog_entries.item_definition_id NOT IN (SELECT item_definition_id FROM item_definition_groups)")
		}
		return db
	}
}

// Groups scopes a query over item_groups to the groups offered in the group
// picker. The picker is empty once a group is selected or flat view is on.
func (f Filter) Groups() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.State.Has(ParamGroup) || f.State.Has(ParamFlatView) {
			return db.Where("1 = 0")
		}

		sub := db.Session(&gorm.Session{NewDB: true}).
			Table("item_definition_groups").
			Select("item_definition_groups.item_group_id").
			Joins("JOIN catalog_entries ON catalog_entries.item_definition_id = item_definition_groups.item_definition_id").
			Where("catalog_entries.catalog_group_id IN (?)", ownedGroupIDs(db, f.UserID))
		if f.State.Has(ParamOnlyToBuy) {
			sub = sub.Where("catalog_entries.to_buy = ?", true)
		}
		return db.Where("item_groups.id IN (?)", sub).Order("item_groups.title")
	}
}
