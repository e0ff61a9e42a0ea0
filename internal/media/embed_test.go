package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectImageLinks(t *testing.T) {
	for _, url := range []string{
		"https://example.com/photo.jpg",
		"https://example.com/photo.PNG",
		"https://example.com/photo.webp?w=600",
	} {
		assert.Equal(t, EmbedImage, ClassifyLink(url).Kind, url)
	}
}

func TestDirectVideoLinks(t *testing.T) {
	assert.Equal(t, EmbedVideo, ClassifyLink("https://example.com/clip.mp4").Kind)
	assert.Equal(t, EmbedVideo, ClassifyLink("https://example.com/clip.mov?t=1").Kind)
}

func TestYouTubeIDExtraction(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                      "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":         "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?list=x&v=dQw4w9WgXcQ": "dQw4w9WgXcQ",
	}
	for url, id := range cases {
		embed := ClassifyLink(url)
		assert.Equal(t, EmbedYouTube, embed.Kind, url)
		assert.Equal(t, id, embed.VideoID, url)
		assert.Equal(t, "https://www.youtube.com/embed/"+id, embed.EmbedURL)
	}
}

func TestYouTubeWithoutIDFallsThrough(t *testing.T) {
	embed := ClassifyLink("https://www.youtube.com/feed/subscriptions")
	assert.Equal(t, EmbedLink, embed.Kind)
	assert.Equal(t, "youtube.com", embed.Hostname)
}

func TestFacebookShapes(t *testing.T) {
	cases := map[string]string{
		"https://www.facebook.com/watch?v=123456":          "123456",
		"https://www.facebook.com/someuser/videos/7890":    "7890",
		"https://www.facebook.com/video.php?v=4444":        "4444",
		"https://fb.watch/abc_12-3":                        "abc_12-3",
		"https://www.facebook.com/someuser/posts/99887766": "99887766",
	}
	for url, id := range cases {
		embed := ClassifyLink(url)
		assert.Equal(t, EmbedFacebook, embed.Kind, url)
		assert.Equal(t, id, embed.VideoID, url)
		assert.Contains(t, embed.EmbedURL, "facebook.com/plugins/video.php")
	}
}

func TestFacebookShareLinkFailsClosed(t *testing.T) {
	embed := ClassifyLink("https://www.facebook.com/share/v/abcDEF123/")
	assert.Equal(t, EmbedFacebookBlocked, embed.Kind)
	assert.NotEmpty(t, embed.Message)
	assert.Empty(t, embed.EmbedURL, "a blocked shape must never produce an embed")
}

func TestFacebookWithoutIDExplainsInsteadOfEmbedding(t *testing.T) {
	embed := ClassifyLink("https://www.facebook.com/groups/gophers")
	assert.Equal(t, EmbedFacebookUnrecognized, embed.Kind)
	assert.NotEmpty(t, embed.Message)
	assert.Empty(t, embed.EmbedURL)
}

func TestGenericLinkPreview(t *testing.T) {
	embed := ClassifyLink("https://www.example.org/articles/42")
	assert.Equal(t, EmbedLink, embed.Kind)
	assert.Equal(t, "example.org", embed.Hostname)

	embed = ClassifyLink("::not a url::")
	assert.Equal(t, EmbedLink, embed.Kind)
	assert.Equal(t, "link", embed.Hostname)
}

func TestLightboxZoomClamping(t *testing.T) {
	box := NewLightbox()
	for i := 0; i < 30; i++ {
		box.ZoomIn()
	}
	assert.Equal(t, 3.0, box.Zoom)

	for i := 0; i < 30; i++ {
		box.Wheel(1)
	}
	assert.Equal(t, 0.5, box.Zoom)
}

func TestLightboxWheelSteps(t *testing.T) {
	box := NewLightbox()
	box.Wheel(-1)
	assert.InDelta(t, 1.1, box.Zoom, 1e-9)
	box.Wheel(1)
	assert.InDelta(t, 1.0, box.Zoom, 1e-9)
}

func TestLightboxPanOnlyWhenZoomed(t *testing.T) {
	box := NewLightbox()
	box.Pan(10, 10)
	assert.Equal(t, 0.0, box.PanX)

	box.ZoomIn()
	box.Pan(10, -4)
	assert.Equal(t, 10.0, box.PanX)
	assert.Equal(t, -4.0, box.PanY)

	box.Reset()
	assert.Equal(t, 1.0, box.Zoom)
	assert.Equal(t, 0.0, box.PanX)
	assert.Equal(t, 0.0, box.PanY)
}
