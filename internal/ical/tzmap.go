package ical

// windowsToIANA maps Microsoft/Exchange "Windows zone" TZID strings, as
// Outlook writes them into DTSTART/DTEND/TZID parameters and VTIMEZONE
// blocks, to their IANA equivalents. The mapping is total on known source
// identifiers; unknown identifiers pass through unchanged (§4.2).
//
// Source identifiers and their IANA targets follow the CLDR Windows↔IANA
// zone correspondence table; this is reference data, not an algorithm, and
// is not attributed to any dependency.
var windowsToIANA = map[string]string{
	"Eastern Standard Time":    "America/New_York",
	"US Eastern Standard Time": "America/Indiana/Indianapolis",
	"Central Standard Time":    "America/Chicago",
	"Mountain Standard Time":   "America/Denver",
	"US Mountain Standard Time": "America/Phoenix",
	"Pacific Standard Time":    "America/Los_Angeles",
	"Alaskan Standard Time":    "America/Anchorage",
	"Hawaiian Standard Time":   "Pacific/Honolulu",
	"Atlantic Standard Time":   "America/Halifax",
	"Newfoundland Standard Time": "America/St_Johns",
	"Canada Central Standard Time": "America/Regina",
	"SA Pacific Standard Time": "America/Bogota",
	"SA Eastern Standard Time": "America/Cayenne",
	"Central America Standard Time": "America/Guatemala",
	"Pacific SA Standard Time": "America/Santiago",
	"Argentina Standard Time":  "America/Buenos_Aires",
	"E. South America Standard Time": "America/Sao_Paulo",
	"GMT Standard Time":        "Europe/London",
	"Greenwich Standard Time":  "Atlantic/Reykjavik",
	"W. Europe Standard Time":  "Europe/Berlin",
	"Romance Standard Time":    "Europe/Paris",
	"Central Europe Standard Time": "Europe/Budapest",
	"Central European Standard Time": "Europe/Warsaw",
	"E. Europe Standard Time":  "Europe/Chisinau",
	"FLE Standard Time":        "Europe/Kyiv",
	"GTB Standard Time":        "Europe/Bucharest",
	"Russian Standard Time":    "Europe/Moscow",
	"Turkey Standard Time":     "Europe/Istanbul",
	"Arabic Standard Time":     "Asia/Baghdad",
	"Arab Standard Time":       "Asia/Riyadh",
	"Israel Standard Time":     "Asia/Jerusalem",
	"Iran Standard Time":       "Asia/Tehran",
	"Pakistan Standard Time":   "Asia/Karachi",
	"India Standard Time":      "Asia/Kolkata",
	"Bangladesh Standard Time": "Asia/Dhaka",
	"SE Asia Standard Time":    "Asia/Bangkok",
	"China Standard Time":      "Asia/Shanghai",
	"Singapore Standard Time":  "Asia/Singapore",
	"Tokyo Standard Time":      "Asia/Tokyo",
	"Korea Standard Time":      "Asia/Seoul",
	"AUS Eastern Standard Time": "Australia/Sydney",
	"AUS Central Standard Time": "Australia/Darwin",
	"W. Australia Standard Time": "Australia/Perth",
	"New Zealand Standard Time": "Pacific/Auckland",
	"UTC":                      "Etc/UTC",
}

// resolveTZID maps a source TZID to its IANA equivalent; unknown
// identifiers pass through unchanged.
func resolveTZID(tzid string) string {
	if iana, ok := windowsToIANA[tzid]; ok {
		return iana
	}
	return tzid
}
