// Package validation holds the pure input validators used by the
// conversation flows. Every validator takes raw user text and returns the
// normalized value together with a *domain.ValidationError on rejection;
// malformed input is a normal rejection, never a panic or an opaque error.
package validation

import (
	"regexp"
	"strings"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

var channelLinkPatterns = map[domain.Platform][]*regexp.Regexp{
	domain.PlatformYouTube: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/(?:@[\w-]{3,}/?|channel/[\w-]{24}/?)$`),
	},
	domain.PlatformShorts: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/(?:@[\w-]{3,}/?|channel/[\w-]{24}/?)$`),
	},
	domain.PlatformTikTok: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?tiktok\.com/@[\w.]{2,}/?$`),
	},
	domain.PlatformTwitch: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?twitch\.tv/[\w-]{4,}/?$`),
	},
	domain.PlatformOther: {
		regexp.MustCompile(`(?i)^https?://\S+$`),
	},
}

// ChannelLink validates a channel registration link for the given platform.
func ChannelLink(platform domain.Platform, raw string) (string, *domain.ValidationError) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return "", domain.Invalid("link", "link is empty")
	}
	patterns, ok := channelLinkPatterns[platform]
	if !ok {
		patterns = channelLinkPatterns[domain.PlatformOther]
	}
	for _, p := range patterns {
		if p.MatchString(link) {
			return link, nil
		}
	}
	return "", domain.Invalid("link", "link does not match the expected format for "+string(platform))
}

var streamLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(?:www\.)?twitch\.tv/videos/\d+/?$`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`(?i)^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/live/[\w-]+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.|vm\.|vt\.)?tiktok\.com/@[\w.]+/live/?$`),
	regexp.MustCompile(`(?i)^https?://(?:www\.|vm\.|vt\.)?tiktok\.com/@[\w.]+/video/\d+`),
}

var tiktokProfilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(?:www\.|vm\.|vt\.)?tiktok\.com/@[\w.]+/?$`),
	regexp.MustCompile(`(?i)^https?://(?:www\.|vm\.|vt\.)?tiktok\.com/[\w.]+/?$`),
}

var shortsLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(?:www\.|vm\.|vt\.)?tiktok\.com/@[\w.]+/video/\d+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.|vm\.|vt\.)?tiktok\.com/v/\d+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/shorts/[\w-]+`),
}

var videoLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`(?i)^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/v/[\w-]+`),
}

// ContentLink validates a link to a specific piece of published content.
// Profile links are rejected: a submission must point at one video, short,
// VOD, or live, not at the creator's page.
func ContentLink(contentType domain.ContentType, raw string) (string, *domain.ValidationError) {
	link := strings.TrimSpace(raw)
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return "", domain.Invalid("content_link", "link must start with http:// or https://")
	}

	switch contentType {
	case domain.ContentStream:
		if matchAny(streamLinkPatterns, link) {
			return link, nil
		}
		return "", domain.Invalid("content_link", "expected a stream VOD or live link")
	case domain.ContentShorts:
		if matchAny(tiktokProfilePatterns, link) {
			return "", domain.Invalid("content_link", "profile link given, expected a specific video")
		}
		if matchAny(shortsLinkPatterns, link) {
			return link, nil
		}
		return "", domain.Invalid("content_link", "expected a TikTok video or YouTube Shorts link")
	default:
		if matchAny(videoLinkPatterns, link) {
			return link, nil
		}
		return "", domain.Invalid("content_link", "expected a YouTube video link")
	}
}

var screenshotPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(?:www\.)?postimg\.cc/\w+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?i\.postimg\.cc/\w+/[\w-]+\.(?:jpg|jpeg|png|gif)`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?ibb\.co/\w+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?i\.ibb\.co/\w+/[\w-]+\.(?:jpg|jpeg|png|gif)`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?postimages\.org/\w+`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?i\.postimages\.org/\w+/[\w-]+\.(?:jpg|jpeg|png|gif)`),
	regexp.MustCompile(`(?i)^https?://\S+\.(?:jpg|jpeg|png|gif)$`),
}

// ScreenshotLink validates a statistics screenshot hosted on an allow-listed
// image host or given as a direct image URL.
func ScreenshotLink(raw string) (string, *domain.ValidationError) {
	link := strings.TrimSpace(raw)
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return "", domain.Invalid("screenshot_link", "link must start with http:// or https://")
	}
	if matchAny(screenshotPatterns, link) {
		return link, nil
	}
	return "", domain.Invalid("screenshot_link", "expected an image hosting or direct image link")
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
