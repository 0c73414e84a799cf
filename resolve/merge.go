package resolve

import (
	"github.com/crunchy-cli/crunchy/api"
)

// mergeVersions extracts every selected version and merges them into one
// result. A single version is returned as-is. With several versions the
// one originally requested becomes the primary result; the formats of the
// other versions are appended with their scalar differences stamped on as
// overrides, and their subtitle tracks folded in with later versions
// winning per locale.
func (r *Resolver) mergeVersions(requestedID string, ids []string, responses map[string]*api.ObjectResponse) (*Result, error) {
	if len(ids) == 1 {
		return r.extractWatch(responses[ids[0]])
	}

	primaryID := ids[0]
	for _, id := range ids {
		if id == requestedID {
			primaryID = id
			break
		}
	}

	primary, err := r.extractWatch(responses[primaryID])
	if err != nil {
		return nil, err
	}
	if primary.Subtitles == nil {
		primary.Subtitles = map[string][]api.Subtitle{}
	}

	for _, id := range ids {
		if id == primaryID {
			continue
		}

		version, err := r.extractWatch(responses[id])
		if err != nil {
			return nil, err
		}

		overrides := diff(version, primary)
		for _, format := range version.Formats {
			if len(overrides) == 0 {
				continue
			}
			if format.Overrides == nil {
				format.Overrides = make(map[string]any, len(overrides))
			}
			for name, value := range overrides {
				format.Overrides[name] = value
			}
		}
		primary.Formats = append(primary.Formats, version.Formats...)

		for locale, tracks := range version.Subtitles {
			primary.Subtitles[locale] = tracks
		}
	}
	return primary, nil
}
