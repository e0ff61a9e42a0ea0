// Package media classifies post media for rendering: link posts branch into
// direct images, direct videos, YouTube/Facebook embeds, or a generic
// preview, and the image lightbox carries its own zoom/pan model.
package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// EmbedKind names the rendering branch for a link post.
type EmbedKind string

const (
	EmbedImage    EmbedKind = "image"
	EmbedVideo    EmbedKind = "video"
	EmbedYouTube  EmbedKind = "youtube"
	EmbedFacebook EmbedKind = "facebook"
	EmbedLink     EmbedKind = "link"

	// EmbedFacebookBlocked is the fail-closed branch for share-link shapes
	// that cannot be embedded at all.
	EmbedFacebookBlocked EmbedKind = "facebook_blocked"

	// EmbedFacebookUnrecognized is a Facebook URL with no extractable
	// video ID; the viewer is pointed at the original link instead.
	EmbedFacebookUnrecognized EmbedKind = "facebook_unrecognized"
)

var (
	directImagePattern = regexp.MustCompile(`(?i)\.(jpeg|jpg|gif|png|webp)(\?.*)?$`)
	directVideoPattern = regexp.MustCompile(`(?i)\.(mp4|webm|mov)(\?.*)?$`)

	youtubeIDPattern = regexp.MustCompile(`(?:v=|/|embed/|watch\?v=|&v=)([a-zA-Z0-9_-]{11})(?:\?|&|$)`)

	facebookIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`facebook\.com/watch\?v=([0-9]+)`),
		regexp.MustCompile(`facebook\.com/.*/videos/([0-9]+)`),
		regexp.MustCompile(`facebook\.com/video\.php\?v=([0-9]+)`),
		regexp.MustCompile(`fb\.watch/([a-zA-Z0-9_-]+)`),
		regexp.MustCompile(`facebook\.com/.*/posts/([0-9]+)`),
	}
)

// Embed is the resolved rendering decision for one link URL.
type Embed struct {
	Kind     EmbedKind `json:"kind"`
	URL      string    `json:"url"`
	EmbedURL string    `json:"embedUrl,omitempty"`
	VideoID  string    `json:"videoId,omitempty"`
	Hostname string    `json:"hostname,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// ClassifyLink decides how a link post renders. Branch order matches the
// card: the blocked share shape first, then direct image, YouTube, Facebook,
// direct video, and finally the generic preview.
func ClassifyLink(rawURL string) Embed {
	if strings.Contains(rawURL, "facebook.com/share/v/") {
		return Embed{
			Kind:    EmbedFacebookBlocked,
			URL:     rawURL,
			Message: "This Facebook share link cannot be embedded. Copy the direct video link from the video's own page.",
		}
	}

	if directImagePattern.MatchString(rawURL) {
		return Embed{Kind: EmbedImage, URL: rawURL}
	}

	if strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be") {
		if match := youtubeIDPattern.FindStringSubmatch(rawURL); match != nil {
			id := match[1]
			return Embed{
				Kind:     EmbedYouTube,
				URL:      rawURL,
				VideoID:  id,
				EmbedURL: "https://www.youtube.com/embed/" + id,
			}
		}
		// No recognizable video ID; fall through to the remaining branches.
	}

	if strings.Contains(rawURL, "facebook.com") || strings.Contains(rawURL, "fb.watch") {
		for _, pattern := range facebookIDPatterns {
			if match := pattern.FindStringSubmatch(rawURL); match != nil {
				id := match[1]
				return Embed{
					Kind:    EmbedFacebook,
					URL:     rawURL,
					VideoID: id,
					EmbedURL: fmt.Sprintf(
						"https://www.facebook.com/plugins/video.php?href=https://www.facebook.com/video.php?v=%s&show_text=false&width=560&height=315",
						id,
					),
				}
			}
		}
		return Embed{
			Kind:    EmbedFacebookUnrecognized,
			URL:     rawURL,
			Message: "This Facebook video link cannot be shown as an embedded player. Share a direct video link that carries a video ID.",
		}
	}

	if directVideoPattern.MatchString(rawURL) {
		return Embed{Kind: EmbedVideo, URL: rawURL}
	}

	return Embed{Kind: EmbedLink, URL: rawURL, Hostname: previewHostname(rawURL)}
}

// previewHostname extracts a www-stripped hostname for the generic preview,
// degrading to "link" for unparsable URLs.
func previewHostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "link"
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
