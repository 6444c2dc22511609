package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

func TestChannelLink(t *testing.T) {
	tests := []struct {
		name     string
		platform domain.Platform
		link     string
		ok       bool
	}{
		{"youtube handle", domain.PlatformYouTube, "https://www.youtube.com/@somecreator", true},
		{"youtube handle trailing slash", domain.PlatformYouTube, "https://youtube.com/@some-creator/", true},
		{"youtube channel id", domain.PlatformYouTube, "https://www.youtube.com/channel/UCabcdefghijklmnopqrstu1", true},
		{"youtube short handle rejected", domain.PlatformYouTube, "https://youtube.com/@ab", false},
		{"youtube watch link rejected", domain.PlatformYouTube, "https://www.youtube.com/watch?v=abc123", false},
		{"shorts uses youtube channel format", domain.PlatformShorts, "https://www.youtube.com/@shortsmaker", true},
		{"tiktok profile", domain.PlatformTikTok, "https://www.tiktok.com/@creator.name", true},
		{"tiktok single char rejected", domain.PlatformTikTok, "https://tiktok.com/@a", false},
		{"twitch channel", domain.PlatformTwitch, "https://twitch.tv/somestreamer", true},
		{"twitch short name rejected", domain.PlatformTwitch, "https://twitch.tv/abc", false},
		{"other any url", domain.PlatformOther, "https://example.com/my-channel", true},
		{"other no protocol rejected", domain.PlatformOther, "example.com/my-channel", false},
		{"empty", domain.PlatformYouTube, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := ChannelLink(tt.platform, tt.link)
			if !tt.ok {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tt.link, got)
		})
	}
}

func TestContentLink(t *testing.T) {
	tests := []struct {
		name        string
		contentType domain.ContentType
		link        string
		ok          bool
	}{
		{"twitch vod", domain.ContentStream, "https://www.twitch.tv/videos/123456789", true},
		{"youtube live", domain.ContentStream, "https://www.youtube.com/live/abc-DEF_123", true},
		{"youtube watch as stream", domain.ContentStream, "https://www.youtube.com/watch?v=abc123", true},
		{"tiktok live", domain.ContentStream, "https://www.tiktok.com/@streamer/live", true},
		{"twitch channel page rejected", domain.ContentStream, "https://www.twitch.tv/somestreamer", false},
		{"tiktok video as shorts", domain.ContentShorts, "https://vm.tiktok.com/@creator/video/7312345678901234567", true},
		{"youtube shorts", domain.ContentShorts, "https://www.youtube.com/shorts/abc-123_XYZ", true},
		{"tiktok profile rejected for shorts", domain.ContentShorts, "https://www.tiktok.com/@creator", false},
		{"tiktok bare profile rejected for shorts", domain.ContentShorts, "https://vt.tiktok.com/creator/", false},
		{"youtube video", domain.ContentVideo, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"youtu.be video", domain.ContentVideo, "https://youtu.be/dQw4w9WgXcQ", true},
		{"shorts link rejected for video", domain.ContentVideo, "https://www.youtube.com/shorts/abc", false},
		{"no protocol", domain.ContentVideo, "youtube.com/watch?v=abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := ContentLink(tt.contentType, tt.link)
			if !tt.ok {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tt.link, got)
		})
	}
}

func TestScreenshotLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		ok   bool
	}{
		{"postimg page", "https://postimg.cc/abc123", true},
		{"postimg direct", "https://i.postimg.cc/abc123/stats-shot.png", true},
		{"ibb page", "https://ibb.co/xyz789", true},
		{"direct jpg anywhere", "https://cdn.example.com/screens/stats.jpg", true},
		{"direct png uppercase ext", "https://cdn.example.com/stats.PNG", true},
		{"html page rejected", "https://example.com/stats.html", false},
		{"no protocol", "i.postimg.cc/abc/shot.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := ScreenshotLink(tt.link)
			if !tt.ok {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tt.link, got)
		})
	}
}
