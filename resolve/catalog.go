package resolve

import (
	"github.com/crunchy-cli/crunchy/api"
	"github.com/crunchy-cli/crunchy/lang"
)

// versionTable builds the audio-language version table of an object: one
// row per (version id, language) pair, a single empty-code row for a
// version without language information, and the implicit Default row bound
// to the object's own id.
func versionTable(object *api.ObjectResponse) lang.Table {
	var rows []lang.Row
	for _, version := range object.Versions() {
		if version.GUID == "" {
			continue
		}
		langs := version.AudioLangs()
		if len(langs) == 0 {
			rows = append(rows, lang.Row{ID: version.GUID, Code: ""})
			continue
		}
		for _, code := range langs {
			rows = append(rows, lang.Row{ID: version.GUID, Code: code})
		}
	}
	return lang.NewTable(rows, object.ID)
}
