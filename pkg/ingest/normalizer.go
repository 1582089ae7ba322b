package ingest

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic, used for short stable digests only
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

const (
	idPrefix     = "article."
	maxTags      = 10
	maxSlugLen   = 100
	cdnImageHost = "cdn-images-1.medium.com"
	cdnImageSize = "max/1024/"
)

var (
	canonicalTokenRe = regexp.MustCompile(`^[0-9a-f]{10,13}$`)
	linkTailRe       = regexp.MustCompile(`[#?].*$`)
	nonAlnumRe       = regexp.MustCompile(`[^a-z0-9]+`)
	cdnSizeRe        = regexp.MustCompile(`max/\d+/`)
)

// Normalizer converts raw feed entries into articles with stable identities.
// All derivations are deterministic, so repeated runs over the same feed map
// every entry to the same article record.
type Normalizer struct {
	now func() time.Time // injectable for tests
}

// NewNormalizer creates a new normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize maps a single feed entry to an article
func (n *Normalizer) Normalize(item domain.FeedItem) domain.Article {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "Untitled"
	}

	link := cleanLink(item.Link)

	published := n.now()
	if item.Published != nil {
		published = *item.Published
	}

	// prefer the full content body, fall back to the short description
	content := item.Content
	if content == "" {
		content = item.Description
	}

	return domain.Article{
		ID:          articleID(link, title),
		Title:       title,
		MediumLink:  link,
		ImageLink:   extractFirstImage(content),
		Tags:        normalizeTags(item.Categories),
		PublishedAt: published.UTC().Truncate(time.Second),
	}
}

// cleanLink strips the query string from a link, keeping the raw value
// verbatim when it does not parse as a URL
func cleanLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.RawQuery = ""
	return u.String()
}

// articleID derives the stable article identity. Medium post URLs end with a
// canonical 10-13 character hex token which gives a globally unique key; for
// atypical links the fallback combines a title slug with a short digest of the
// link (or of the title when the link is empty).
func articleID(link, title string) string {
	if token := canonicalToken(link); token != "" {
		return idPrefix + token
	}

	hashInput := link
	if hashInput == "" {
		hashInput = title
	}
	return idPrefix + slugify(title) + "_" + shortHash(hashInput)
}

// canonicalToken extracts the Medium post token from a link, empty when the
// link does not carry one
func canonicalToken(link string) string {
	if link == "" {
		return ""
	}

	cleaned := strings.TrimSuffix(linkTailRe.ReplaceAllString(link, ""), "/")
	segments := strings.Split(cleaned, "/")
	slugPart := segments[len(segments)-1]
	if slugPart == "" {
		return ""
	}

	parts := strings.Split(slugPart, "-")
	token := parts[len(parts)-1]
	if canonicalTokenRe.MatchString(token) {
		return token
	}
	return ""
}

// slugify builds a URL-friendly slug from a title: lowercased, diacritics and
// quotes stripped, non-alphanumeric runs collapsed to single underscores
func slugify(title string) string {
	s := strings.ToLower(title)
	s = stripDiacritics(s)
	s = strings.NewReplacer(`'`, "", `"`, "", "`", "").Replace(s)
	s = nonAlnumRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// stripDiacritics removes combining marks after NFD decomposition
func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// shortHash returns the first 6 hex characters of a SHA-1 digest
func shortHash(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // identity suffix, not security
	return hex.EncodeToString(sum[:])[:6]
}

// normalizeTags formats raw feed categories into display tags: trimmed,
// human-cased, deduplicated in first-seen order and capped at maxTags
func normalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, t := range raw {
		tag := formatTag(strings.TrimSpace(t))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// formatTag converts a raw tag like "tech-news" to "Tech News"
func formatTag(tag string) string {
	tag = strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(tag))
	words := strings.Fields(tag)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// extractFirstImage finds the first <img src> in an HTML fragment, rewriting
// Medium CDN links to the larger fixed size segment. Empty when the fragment
// has no image.
func extractFirstImage(fragment string) string {
	if fragment == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" {
					return rewriteCDNImage(string(val))
				}
				if !more {
					break
				}
			}
		}
	}
}

// rewriteCDNImage bumps the size-limiting path segment of Medium CDN image
// links, other hosts pass through untouched
func rewriteCDNImage(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host != cdnImageHost {
		return link
	}
	return cdnSizeRe.ReplaceAllString(link, cdnImageSize)
}
