package domain

// NoData is substituted whenever a fact cannot be obtained, so every output
// field downstream is always populated.
const NoData = "无数据"

// Recipient is one configured greeting target. Cities holds either a single
// city or exactly seven weekday-indexed entries, Monday first.
type Recipient struct {
	Name   string
	Cities []string
	Desc   string
}

// CityOn returns the city for the given Monday-first weekday index.
func (r Recipient) CityOn(weekday int) string {
	if len(r.Cities) == 1 {
		return r.Cities[0]
	}
	if weekday < 0 || weekday >= len(r.Cities) {
		return ""
	}
	return r.Cities[weekday]
}

// FactBundle holds the gathered facts for one recipient. Every field is
// non-empty (NoData on failure) and at most 30 runes.
type FactBundle struct {
	Holiday   string
	Weather   string
	Headlines [3]string
}

// GreetingRecord is the final per-recipient output. JSON field names match
// the SMS template parameters. A degraded record carries only Name.
type GreetingRecord struct {
	PhoneNumbers string `json:"phone_numbers,omitempty"`
	Name         string `json:"name"`
	City         string `json:"city,omitempty"`
	Weather      string `json:"weather,omitempty"`
	Hashtag1     string `json:"hashtag1,omitempty"`
	Hashtag2     string `json:"hashtag2,omitempty"`
	Hashtag3     string `json:"hashtag3,omitempty"`
	Blessings    string `json:"blessings,omitempty"`

	// Degraded marks a record whose pipeline failed before any facts or
	// blessing could be produced. Not serialized; report readers recognize
	// degraded entries by their missing optional fields.
	Degraded bool `json:"-"`
}
