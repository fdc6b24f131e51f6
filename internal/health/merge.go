package health

import (
	"fmt"
	"reflect"
	"sort"

	"dario.cat/mergo"
)

// Assemble groups per-source records by calendar day into DailyRecords,
// sorted by date ascending. Multiple records for the same source and day are
// merged field-wise, later ones winning.
func Assemble(records []AppRecord) ([]DailyRecord, error) {
	byDate := make(map[string]*DailyRecord)

	for _, rec := range records {
		day := Day(rec.RecordDate())
		key := DayKey(day)

		daily, ok := byDate[key]
		if !ok {
			daily = &DailyRecord{Date: day}
			byDate[key] = daily
		}
		if err := attach(daily, rec); err != nil {
			return nil, err
		}
	}

	result := make([]DailyRecord, 0, len(byDate))
	for _, d := range byDate {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// Merge combines previously stored days with freshly fetched ones.
// The rule is overwrite-on-refetch at field granularity: a refetched source
// only replaces the fields it actually carries; fields the new fetch omits
// (nil) keep their stored value. Days absent from the new data are untouched,
// so merging is lossless and re-merging the same data is a no-op.
func Merge(old, new []DailyRecord) ([]DailyRecord, error) {
	byDate := make(map[string]*DailyRecord, len(old))
	order := make([]string, 0, len(old)+len(new))

	for i := range old {
		d := old[i]
		key := DayKey(d.Date)
		byDate[key] = &d
		order = append(order, key)
	}

	for i := range new {
		entry := new[i]
		key := DayKey(entry.Date)

		existing, ok := byDate[key]
		if !ok {
			byDate[key] = &entry
			order = append(order, key)
			continue
		}

		for _, s := range Sources() {
			if err := mergeSource(existing, &entry, s); err != nil {
				return nil, fmt.Errorf("merge %s for %s: %w", s, key, err)
			}
		}
	}

	sort.Strings(order)
	result := make([]DailyRecord, 0, len(order))
	for _, key := range order {
		result = append(result, *byDate[key])
	}
	return result, nil
}

// mergeSource folds one source of src into dst. Any non-nil field of the
// new record replaces the stored one, which is exactly the
// overwrite-on-refetch rule.
func mergeSource(dst, src *DailyRecord, s Source) error {
	switch s {
	case SourceOura:
		return mergeRecord(&dst.Oura, src.Oura)
	case SourceGarmin:
		return mergeRecord(&dst.Garmin, src.Garmin)
	case SourceStrava:
		return mergeRecord(&dst.Strava, src.Strava)
	case SourceCronometer:
		return mergeRecord(&dst.Cronometer, src.Cronometer)
	case SourceGSheet:
		return mergeRecord(&dst.GSheet, src.GSheet)
	}
	return fmt.Errorf("unknown source %q", s)
}

func mergeRecord[T any](dst **T, src *T) error {
	if src == nil {
		return nil
	}
	if *dst == nil {
		cp := *src
		*dst = &cp
		return nil
	}
	return mergo.Merge(*dst, *src, mergo.WithOverride,
		mergo.WithTransformers(pointerFields{}))
}

// pointerFields makes pointer-typed fields atomic during a merge: a non-nil
// pointer in the fresh record replaces the stored one even when it points at
// a zero value. Without this mergo would recurse into the pointed-at element
// and skip "empty" values, so a corrected false or zero could never replace
// a stored true or non-zero reading.
type pointerFields struct{}

func (pointerFields) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ.Kind() != reflect.Pointer {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

func attach(daily *DailyRecord, rec AppRecord) error {
	switch r := rec.(type) {
	case *OuraRecord:
		return mergeRecord(&daily.Oura, r)
	case *GarminRecord:
		return mergeRecord(&daily.Garmin, r)
	case *StravaRecord:
		return mergeRecord(&daily.Strava, r)
	case *CronometerRecord:
		return mergeRecord(&daily.Cronometer, r)
	case *GSheetRecord:
		return mergeRecord(&daily.GSheet, r)
	default:
		return fmt.Errorf("unknown record type %T", rec)
	}
}
