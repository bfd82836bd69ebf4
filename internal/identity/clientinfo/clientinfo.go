// Package clientinfo turns raw User-Agent strings into short, human
// readable client descriptions recorded on login, so account activity logs
// read "Chrome on Mac OS X" instead of a full UA string.
package clientinfo

import (
	"strings"

	"github.com/mssola/useragent"
)

// Unknown is returned when the User-Agent header is empty or unparseable.
const Unknown = "Unknown Device"

// Describe parses a User-Agent string into "<browser> on <platform>".
func Describe(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return Unknown
	}

	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	platform := ua.Platform()

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "" && platform != "":
		return browser + " on " + platform
	case browser != "":
		return browser
	default:
		return Unknown
	}
}
