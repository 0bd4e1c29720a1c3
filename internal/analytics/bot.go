package analytics

import (
	"strings"

	"github.com/mssola/useragent"
)

// Lowercase substrings that mark automated clients. Link-in-bio pages are
// unfurled constantly by chat and social apps, so those come first.
var crawlerSignatures = []string{
	// social and chat unfurlers
	"facebookexternalhit",
	"facebot",
	"instagram-preview",
	"whatsapp",
	"slackbot",
	"discordbot",
	"telegrambot",
	"twitterbot",
	"linkedinbot",
	"pinterestbot",
	"redditbot",
	"skypeuripreview",
	"embedly",
	"iframely",
	"preview",

	// search engines and generic crawlers
	"bot",
	"spider",
	"crawl",
	"applebot",
	"google web preview",
	"google favicon",
	"chrome-lighthouse",

	// scanners
	"zgrab/",
	"netcraftsurveyagent/",
	"wappalyzer",
	"whatweb/",

	// HTTP client libraries
	"go-http-client/",
	"curl/",
	"wget/",
	"python-requests/",
	"python-urllib/",
	"java/",
	"okhttp/",
	"libwww-perl/",

	// headless renderers
	"headlesschrome/",
	"phantomjs",
	"wkhtmltoimage",
	"wkhtmltopdf",
}

// IsBot reports whether the user agent looks like a crawler, unfurler or
// scripted client. Bot traffic is still recorded, classified as "bot".
func IsBot(rawUA string) bool {
	if rawUA == "" {
		return false
	}
	if useragent.New(rawUA).Bot() {
		return true
	}
	lower := strings.ToLower(rawUA)
	for _, sig := range crawlerSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
