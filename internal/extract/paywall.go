package extract

import "strings"

// paywallPhrases mark extracted text as a subscription prompt rather than an
// article. Matching any of them discards the whole extraction result.
var paywallPhrases = []string{
	"paid plan",
	"subscription required",
	"premium content",
	"subscribe to read",
	"subscribe to continue",
	"sign up to read",
	"members only",
	"exclusive content",
	"unlock this article",
	"create an account",
	"log in to read",
	"register to read",
	"only available in",
	"upgrade to access",
	"become a member",
}

// Paywalled reports whether the text reads like a paywall or subscription
// prompt. The check is case-insensitive.
func Paywalled(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range paywallPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
