package config

import "time"

// fallbackZone matches the station's historical fixed offset, used when the
// configured zone name cannot be resolved (stripped-down systems without
// tzdata).
var fallbackZone = time.FixedZone("UTC+3", 3*60*60)

// Location resolves the configured timezone. Pass IDs, gallery metadata,
// and retention cutoffs all derive from this zone, so every caller must go
// through here rather than loading zones ad hoc.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fallbackZone
	}
	return loc
}
