package delta

import (
	"bytes"
	"path"
	"reflect"

	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// ContentModified is reported when a file differs but no top-level field diff can be given
const ContentModified = "Content modified"

// CompareFile describes how a version-sensitive file changed. When both sides parse as a
// single mapping, each differing top-level key gets its own entry; otherwise a differing
// file yields a single ContentModified entry.
func CompareFile(name string, old []byte, oldExists bool, new []byte, newExists bool) []string {
	switch {
	case !oldExists && !newExists:
		return nil
	case oldExists && !newExists:
		return []string{"File removed: " + path.Base(name)}
	case !oldExists && newExists:
		return []string{"File added: " + path.Base(name)}
	}
	if bytes.Equal(old, new) {
		return nil
	}

	oldDoc, oldOK, oldErr := manifest.ParseSingleMapping(old)
	newDoc, newOK, newErr := manifest.ParseSingleMapping(new)
	if oldErr != nil || newErr != nil || !oldOK || !newOK {
		return []string{ContentModified}
	}

	keys := make(map[string]interface{}, len(oldDoc)+len(newDoc))
	for k := range oldDoc {
		keys[k] = nil
	}
	for k := range newDoc {
		keys[k] = nil
	}

	var diffs []string
	for _, key := range utils.SortedKeys(keys) {
		oldValue, inOld := oldDoc[key]
		newValue, inNew := newDoc[key]
		switch {
		case !inOld:
			diffs = append(diffs, "Field added: "+key)
		case !inNew:
			diffs = append(diffs, "Field removed: "+key)
		case !reflect.DeepEqual(oldValue, newValue):
			diffs = append(diffs, "Field modified: "+key)
		}
	}
	if len(diffs) == 0 {
		// Only formatting or comments changed
		return []string{ContentModified}
	}
	return diffs
}
