package campfire

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Campfire's settings page labels zones with Rails display names that do
// not always match the IANA database. This table bridges the known
// mismatches; anything else is tried verbatim.
var zoneAliases = map[string]string{
	"International Date Line West": "Pacific/Midway",
	"Midway Island":                "Pacific/Midway",
	"Samoa":                        "Pacific/Pago_Pago",
	"Hawaii":                       "Pacific/Honolulu",
	"Alaska":                       "America/Juneau",
	"Pacific Time (US & Canada)":   "America/Los_Angeles",
	"Tijuana":                      "America/Tijuana",
	"Mountain Time (US & Canada)":  "America/Denver",
	"Arizona":                      "America/Phoenix",
	"Central Time (US & Canada)":   "America/Chicago",
	"Saskatchewan":                 "America/Regina",
	"Mexico City":                  "America/Mexico_City",
	"Eastern Time (US & Canada)":   "America/New_York",
	"Indiana (East)":               "America/Indiana/Indianapolis",
	"Caracas":                      "America/Caracas",
	"Atlantic Time (Canada)":       "America/Halifax",
	"Santiago":                     "America/Santiago",
	"Newfoundland":                 "America/St_Johns",
	"Brasilia":                     "America/Sao_Paulo",
	"Buenos Aires":                 "America/Argentina/Buenos_Aires",
	"Greenland":                    "America/Godthab",
	"Azores":                       "Atlantic/Azores",
	"Cape Verde Is.":               "Atlantic/Cape_Verde",
	"Casablanca":                   "Africa/Casablanca",
	"Dublin":                       "Europe/Dublin",
	"Lisbon":                       "Europe/Lisbon",
	"London":                       "Europe/London",
	"Amsterdam":                    "Europe/Amsterdam",
	"Berlin":                       "Europe/Berlin",
	"Madrid":                       "Europe/Madrid",
	"Paris":                        "Europe/Paris",
	"Rome":                         "Europe/Rome",
	"Stockholm":                    "Europe/Stockholm",
	"Vienna":                       "Europe/Vienna",
	"Warsaw":                       "Europe/Warsaw",
	"Athens":                       "Europe/Athens",
	"Cairo":                        "Africa/Cairo",
	"Helsinki":                     "Europe/Helsinki",
	"Jerusalem":                    "Asia/Jerusalem",
	"Moscow":                       "Europe/Moscow",
	"Nairobi":                      "Africa/Nairobi",
	"Tehran":                       "Asia/Tehran",
	"Abu Dhabi":                    "Asia/Dubai",
	"Karachi":                      "Asia/Karachi",
	"Kolkata":                      "Asia/Kolkata",
	"Mumbai":                       "Asia/Kolkata",
	"New Delhi":                    "Asia/Kolkata",
	"Kathmandu":                    "Asia/Kathmandu",
	"Dhaka":                        "Asia/Dhaka",
	"Bangkok":                      "Asia/Bangkok",
	"Jakarta":                      "Asia/Jakarta",
	"Beijing":                      "Asia/Shanghai",
	"Hong Kong":                    "Asia/Hong_Kong",
	"Singapore":                    "Asia/Singapore",
	"Taipei":                       "Asia/Taipei",
	"Perth":                        "Australia/Perth",
	"Osaka":                        "Asia/Tokyo",
	"Seoul":                        "Asia/Seoul",
	"Tokyo":                        "Asia/Tokyo",
	"Adelaide":                     "Australia/Adelaide",
	"Darwin":                       "Australia/Darwin",
	"Brisbane":                     "Australia/Brisbane",
	"Canberra":                     "Australia/Sydney",
	"Hobart":                       "Australia/Hobart",
	"Melbourne":                    "Australia/Melbourne",
	"Sydney":                       "Australia/Sydney",
	"Guam":                         "Pacific/Guam",
	"Auckland":                     "Pacific/Auckland",
	"Wellington":                   "Pacific/Auckland",
	"Fiji":                         "Pacific/Fiji",
}

// ResolveTimezone scrapes the account settings page for the selected
// time zone and returns the matching location. Every timestamp in the
// run is converted through the result. All failure paths fall back to
// UTC with a warning; a missing zone should not stop an export.
func ResolveTimezone(ctx context.Context, client *Client, logger *slog.Logger) *time.Location {
	body, err := client.Get(ctx, "/account/settings")
	if err != nil {
		logger.Warn("could not fetch account settings, timestamps will be UTC", "error", err)
		return time.UTC
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Warn("could not parse account settings, timestamps will be UTC", "error", err)
		return time.UTC
	}

	name, ok := doc.Find(`select#account_time_zone_name option[selected]`).First().Attr("value")
	if !ok || name == "" {
		logger.Warn("no selected time zone on settings page, timestamps will be UTC")
		return time.UTC
	}

	loc, err := lookupZone(name)
	if err != nil {
		logger.Warn("unrecognized time zone, timestamps will be UTC", "zone", name)
		return time.UTC
	}
	return loc
}

func lookupZone(name string) (*time.Location, error) {
	if alias, ok := zoneAliases[name]; ok {
		name = alias
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc, nil
	}
	// Near misses like "America/Buenos Aires" differ from the IANA name
	// only by spaces.
	return time.LoadLocation(strings.ReplaceAll(name, " ", "_"))
}
