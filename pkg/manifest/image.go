package manifest

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// versionTagPattern matches release tags such as v25.4.0 or 25.4.0-rc1
	versionTagPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.\-+]+)?$`)

	// imageLinePattern matches "image: repo/name:vX.Y.Z" occurrences in raw manifest text
	imageLinePattern = regexp.MustCompile(`(image:[ \t]*["']?)([^\s"'@]+?):(v?\d+\.\d+\.\d+)(["']?)(\s|$)`)
)

// SplitImageRef splits an image reference into name and tag.
// References pinned by digest or without a tag report ok=false.
func SplitImageRef(ref string) (name, tag string, ok bool) {
	if strings.Contains(ref, "@") {
		return "", "", false
	}
	idx := strings.LastIndex(ref, ":")
	if idx < 0 || idx < strings.LastIndex(ref, "/") {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}

// IsVersionTag reports whether tag looks like a release version
func IsVersionTag(tag string) bool {
	return versionTagPattern.MatchString(tag)
}

// FormatTag renders version as an image tag with a leading "v"
func FormatTag(version string) string {
	return "v" + strings.TrimPrefix(version, "v")
}

// RetagImage replaces a version tag on ref with target.
// ok is false when ref has no version tag and must be left alone.
func RetagImage(ref, target string) (string, bool) {
	name, tag, ok := SplitImageRef(ref)
	if !ok || !IsVersionTag(tag) {
		return ref, false
	}
	return name + ":" + FormatTag(target), true
}

// RewriteImageTags rewrites "image:" tags whose version exactly matches a key of mapping
// (with or without the leading "v") to the mapped version. Tags matching no key are left
// untouched. It returns the new content and the number of substitutions.
func RewriteImageTags(content []byte, mapping map[string]string) ([]byte, int) {
	if len(mapping) == 0 {
		return content, 0
	}

	normalized := make(map[string]string, len(mapping))
	keys := make([]string, 0, len(mapping))
	for old := range mapping {
		keys = append(keys, old)
	}
	sort.Strings(keys)
	for _, old := range keys {
		bare := strings.TrimPrefix(old, "v")
		if _, exists := normalized[bare]; !exists {
			normalized[bare] = strings.TrimPrefix(mapping[old], "v")
		}
	}

	count := 0
	out := imageLinePattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := imageLinePattern.FindSubmatch(match)
		tag := string(parts[3])
		replacement, ok := normalized[strings.TrimPrefix(tag, "v")]
		if !ok {
			return match
		}
		if strings.HasPrefix(tag, "v") {
			replacement = "v" + replacement
		}
		if replacement == tag {
			return match
		}
		count++
		var b strings.Builder
		b.Write(parts[1])
		b.Write(parts[2])
		b.WriteString(":")
		b.WriteString(replacement)
		b.Write(parts[4])
		b.Write(parts[5])
		return []byte(b.String())
	})
	return out, count
}
