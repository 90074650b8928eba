package handler

import (
	"encoding/json"
	"strings"
)

// Statute and regulation citations the workflow emits, mapped to the
// published text they refer to.
var refUrls = []struct {
	fragment string
	url      string
}{
	{"581.217", "https://www.leg.state.fl.us/Statutes/index.cfm?App_mode=Display_Statute&URL=0500-0599/0581/Sections/0581.217.html"},
	{"5K-4.034", "https://www.law.cornell.edu/regulations/florida/Fla-Admin-Code-Ann-R-5K-4-034"},
	{"9 NYCRR", "https://www.dec.ny.gov/regulations"},
	{"101.2", "https://www.ecfr.gov/current/title-21/part-101/section-101.2#p-101.2(c)(1)(ii)(B)(3)(iii)"},
	{"101.5", "https://www.ecfr.gov/current/title-21/chapter-I/subchapter-B/part-101/subpart-A/section-101.5"},
	{"101.9", "https://www.ecfr.gov/current/title-21/part-101#p-101.9(j)(15)(iii)"},
	{"101.", "https://www.ecfr.gov/current/title-21/part-101"},
}

func urlForRef(ref string) string {
	if ref == "" || ref == unknownValue {
		return ""
	}
	for _, mapping := range refUrls {
		if strings.Contains(ref, mapping.fragment) {
			return mapping.url
		}
	}
	return ""
}

// AddComplianceItemUrls fills the url field of every label and coa item
// that carries a citation. The payload is walked generically so fields
// this service does not model pass through untouched.
func AddComplianceItemUrls(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return data
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return data
	}

	sections, ok := doc["compliance_check"].([]any)
	if !ok {
		return data
	}
	for _, section := range sections {
		sectionMap, ok := section.(map[string]any)
		if !ok {
			continue
		}
		addItemUrls(sectionMap, "label")
		addItemUrls(sectionMap, "coa")
	}

	enriched, err := json.Marshal(doc)
	if err != nil {
		return data
	}
	return enriched
}

func addItemUrls(section map[string]any, key string) {
	items, ok := section[key].([]any)
	if !ok {
		return
	}
	for _, item := range items {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ref, _ := itemMap["ref"].(string)
		existing, _ := itemMap["url"].(string)
		if ref == "" || existing != "" {
			continue
		}
		if url := urlForRef(ref); url != "" {
			itemMap["url"] = url
		}
	}
}
