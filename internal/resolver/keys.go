package resolver

import "fmt"

// keyStrategy builds a durable-local storage key from a record identity.
// Read tiers walk an ordered list of strategies so retiring a legacy key
// format is a one-line edit.
type keyStrategy func(siteID, date string) string

func primaryKey(siteID, date string) string {
	return fmt.Sprintf("bakeledger:%s:record:%s", siteID, date)
}

// legacyKey is the pre-migration naming scheme, supported read-only.
func legacyKey(siteID, date string) string {
	return fmt.Sprintf("dailyData_%s_%s", siteID, date)
}

func draftKey(siteID, date string) string {
	return fmt.Sprintf("bakeledger:%s:draft:%s", siteID, date)
}

// pendingPrefix keys mark records whose last remote write failed; the
// nightly re-sync job scans this prefix.
const pendingPrefix = "bakeledger:pending:"

func pendingKey(siteID, date string) string {
	return pendingPrefix + siteID + ":" + date
}

// localReadKeys is the ordered durable-local read fallback chain.
var localReadKeys = []keyStrategy{primaryKey, legacyKey}
