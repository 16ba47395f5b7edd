package fetch

import (
	"net/url"
	"strings"

	"murmur/internal/services"
)

// ValidateLink checks that link is a YouTube watch URL or a youtu.be short
// link and returns it in canonical https form.
func ValidateLink(link string) (string, error) {
	raw := strings.TrimSpace(link)
	if raw == "" {
		return "", services.Errorf(services.KindInvalidLink, "validate", link, "empty link")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", services.Wrap(services.KindInvalidLink, "validate", link, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", services.Errorf(services.KindInvalidLink, "validate", link, "unsupported scheme %q", u.Scheme)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path != "/watch" || strings.TrimSpace(u.Query().Get("v")) == "" {
			return "", services.Errorf(services.KindInvalidLink, "validate", link, "not a watch url")
		}
	case "youtu.be":
		if strings.Trim(u.Path, "/") == "" {
			return "", services.Errorf(services.KindInvalidLink, "validate", link, "missing video id")
		}
	default:
		return "", services.Errorf(services.KindInvalidLink, "validate", link, "unsupported host %q", u.Hostname())
	}
	u.Scheme = "https"
	return u.String(), nil
}
