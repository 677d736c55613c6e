package videos

import (
	"net/url"
	"strings"
)

// EmbedURL maps a watch page URL from a known provider to its embeddable
// player URL. Unrecognised URLs are returned unchanged.
func EmbedURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := pathSegments(u.Path)

	switch host {
	case "youtube.com":
		if len(segments) == 1 && segments[0] == "watch" {
			if id := u.Query().Get("v"); id != "" {
				return "https://www.youtube.com/embed/" + id
			}
		}
		if len(segments) == 2 && segments[0] == "shorts" {
			return "https://www.youtube.com/embed/" + segments[1]
		}
	case "youtu.be":
		if len(segments) == 1 {
			return "https://www.youtube.com/embed/" + segments[0]
		}
	case "vimeo.com":
		if len(segments) == 1 && isDigits(segments[0]) {
			return "https://player.vimeo.com/video/" + segments[0]
		}
	case "dailymotion.com":
		if len(segments) == 2 && segments[0] == "video" {
			if id := dailymotionID(segments[1]); id != "" {
				return "https://www.dailymotion.com/embed/video/" + id
			}
		}
	case "dai.ly":
		if len(segments) == 1 {
			if id := dailymotionID(segments[0]); id != "" {
				return "https://www.dailymotion.com/embed/video/" + id
			}
		}
	}

	return raw
}

// dailymotionID drops the title slug Dailymotion appends after an underscore.
func dailymotionID(segment string) string {
	id, _, _ := strings.Cut(segment, "_")
	return id
}

func pathSegments(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
