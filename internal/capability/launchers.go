package capability

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// SiteURL returns the address for a site name: names already starting with
// http are used as-is, anything else becomes https://www.<name>.com.
func SiteURL(name string) string {
	if strings.HasPrefix(name, "http") {
		return name
	}
	return fmt.Sprintf("https://www.%s.com", strings.ReplaceAll(strings.ToLower(name), " ", ""))
}

// GoogleSearchURL returns the Google results page for topic
func GoogleSearchURL(topic string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(topic)
}

// YouTubeSearchURL returns the YouTube results page for topic
func YouTubeSearchURL(topic string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(topic)
}

func anchor(href, text string) string {
	return fmt.Sprintf("<a href='%s' target='_blank'>%s</a>", html.EscapeString(href), html.EscapeString(text))
}

// OpenSite links to the site named after the "open" tag
var OpenSite = HandlerFunc(func(ctx context.Context, req Request) (string, error) {
	name := stripTag(req.Task, "open")
	if name == "" {
		return "", fmt.Errorf("no site given")
	}
	return fmt.Sprintf("🌐 Opening %s in your browser.", anchor(SiteURL(name), name)), nil
})

// GoogleSearch links to Google results for the topic after the tag
var GoogleSearch = HandlerFunc(func(ctx context.Context, req Request) (string, error) {
	topic := stripTag(req.Task, "google search")
	if topic == "" {
		return "", fmt.Errorf("no search topic given")
	}
	return fmt.Sprintf("🔍 Searching Google for %s.", anchor(GoogleSearchURL(topic), topic)), nil
})

// YouTubeSearch links to YouTube results for a "youtube search" or "play" task
var YouTubeSearch = HandlerFunc(func(ctx context.Context, req Request) (string, error) {
	if strings.HasPrefix(req.Task, "play") {
		topic := stripTag(req.Task, "play")
		if topic == "" {
			return "", fmt.Errorf("nothing to play")
		}
		return fmt.Sprintf("▶️ Playing %s on YouTube.", anchor(YouTubeSearchURL(topic), topic)), nil
	}
	topic := stripTag(req.Task, "youtube search")
	if topic == "" {
		return "", fmt.Errorf("no search topic given")
	}
	return fmt.Sprintf("🎮 Searching YouTube for %s.", anchor(YouTubeSearchURL(topic), topic)), nil
})
