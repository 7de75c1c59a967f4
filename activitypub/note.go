package activitypub

import (
	"github.com/davecheney/revise/models"
)

// parseNote converts a Note or Question object into the desired state of
// the status it describes. Fields which are missing or of the wrong type
// take their zero value.
func parseNote(obj map[string]any) *models.RemoteNote {
	language := languageFromMaps(obj)
	note := &models.RemoteNote{
		ID:        stringFromAny(obj["id"]),
		Type:      stringFromAny(obj["type"]),
		Content:   textFromAny(obj, "content", language),
		Summary:   textFromAny(obj, "summary", language),
		Language:  language,
		Sensitive: boolFromAny(obj["sensitive"]),
		Updated:   timeFromAnyOrZero(obj["updated"]),
	}
	for _, v := range anyToSlice(obj["attachment"]) {
		if att, ok := parseAttachment(v); ok {
			note.Attachments = append(note.Attachments, att)
		}
	}
	for _, v := range anyToSlice(obj["tag"]) {
		t := mapFromAny(v)
		switch t["type"] {
		case "Hashtag":
			if name := stringFromAny(t["name"]); name != "" {
				note.Hashtags = append(note.Hashtags, name)
			}
		case "Mention", "Emoji":
			// not reconciled for remote edits.
		}
	}
	return note
}

// parseAttachment converts a Document, Image, Video or Audio object.
// Attachments without a url are skipped.
func parseAttachment(v any) (models.RemoteAttachment, bool) {
	obj := mapFromAny(v)
	if obj == nil {
		return models.RemoteAttachment{}, false
	}
	att := models.RemoteAttachment{
		URL:          hrefFromAny(obj["url"]),
		ThumbnailURL: hrefFromAny(obj["icon"]),
		MediaType:    stringFromAny(obj["mediaType"]),
		Description:  stringFromAny(obj["summary"]),
		Blurhash:     stringFromAny(obj["blurhash"]),
	}
	if att.Description == "" {
		att.Description = stringFromAny(obj["name"])
	}
	if fp := anyToSlice(obj["focalPoint"]); len(fp) == 2 {
		att.FocalPoint.X = floatFromAny(fp[0])
		att.FocalPoint.Y = floatFromAny(fp[1])
	}
	return att, att.URL != ""
}
