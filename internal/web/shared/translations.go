package shared

import (
	"embed"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

//go:embed lang/*.json
var langFS embed.FS

var (
	translationsMu sync.Mutex
	translations   = map[string]map[string]any{} //nolint:gochecknoglobals
)

// Translations returns the frontend strings of locale. Unknown locales have none.
func Translations(locale string) map[string]any {
	translationsMu.Lock()
	defer translationsMu.Unlock()

	if t, ok := translations[locale]; ok {
		return t
	}

	t := map[string]any{}

	data, err := langFS.ReadFile("lang/" + locale + ".json")
	if err == nil {
		if err = json.Unmarshal(data, &t); err != nil {
			log.Error().Err(err).Str("locale", locale).Msg("invalid translation file")
		}
	}

	translations[locale] = t

	return t
}
