package narration

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// VoiceCatalog resolves language codes to avatar voice ids.
type VoiceCatalog struct {
	voices  []string
	matcher language.Matcher
}

// NewVoiceCatalog builds a catalog from language -> voice id pairs. Keys that
// are not valid BCP 47 tags are ignored.
func NewVoiceCatalog(voiceMap map[string]string) *VoiceCatalog {
	keys := make([]string, 0, len(voiceMap))
	for k := range voiceMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c := &VoiceCatalog{}
	var tags []language.Tag
	for _, k := range keys {
		voice := strings.TrimSpace(voiceMap[k])
		tag, err := language.Parse(strings.TrimSpace(k))
		if err != nil || voice == "" {
			continue
		}
		tags = append(tags, tag)
		c.voices = append(c.voices, voice)
	}
	if len(tags) > 0 {
		c.matcher = language.NewMatcher(tags)
	}
	return c
}

// Resolve returns the voice for languageCode, or "" when no configured
// language is a reasonable match.
func (c *VoiceCatalog) Resolve(languageCode string) string {
	if c.matcher == nil {
		return ""
	}
	tag, err := language.Parse(strings.TrimSpace(languageCode))
	if err != nil {
		return ""
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(c.voices) {
		return ""
	}
	return c.voices[idx]
}
