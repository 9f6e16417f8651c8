package canonical

import "time"

// EventTimeFromFixture resolves a record's event_time: the fixture's
// top-level event_time field takes precedence, falling back to a
// payload_json "event_time" key. Unparseable or absent input yields nil,
// which storage persists as a null event_time column.
func EventTimeFromFixture(rec FixtureRecord, payload map[string]any) *time.Time {
	if t, ok := ParseDate(rec.EventTime); ok {
		return &t
	}
	if raw, present := payload["event_time"]; present {
		if t, ok := ParseDate(CleanString(raw)); ok {
			return &t
		}
	}
	return nil
}

// EventTimeFromFixtureWithExtra is EventTimeFromFixture with additional
// date layouts tried after the shared cascade (the REE/U "DD-MMM-YYYY"
// form, per spec §4.3 item 2).
func EventTimeFromFixtureWithExtra(rec FixtureRecord, payload map[string]any, extra ...string) *time.Time {
	if t, ok := ParseDateWithExtra(rec.EventTime, extra...); ok {
		return &t
	}
	if raw, present := payload["event_time"]; present {
		if t, ok := ParseDateWithExtra(CleanString(raw), extra...); ok {
			return &t
		}
	}
	return nil
}

// EventTimeFromFields tries each candidate payload key in order, returning
// the first one that parses — the fallback cascade adapters like Federal
// Register use when event_time is absent (publication_date, then
// effective_date, for example).
func EventTimeFromFields(payload map[string]any, keys ...string) *time.Time {
	for _, k := range keys {
		if raw, present := payload[k]; present {
			if t, ok := ParseDate(CleanString(raw)); ok {
				return &t
			}
		}
	}
	return nil
}
