package assets

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	audioLinkPattern = regexp.MustCompile(`(?i)\.(mp3|wav|m4a|ogg|mp4)(\?.*)?$`)
	rawAudioPattern  = regexp.MustCompile(`https?://[^\s<>"']+?\.(?:mp3|wav|m4a|ogg|mp4)[^\s<>"']*`)
)

// ExtractAudioURLs finds audio links in an HTML page: sources of <audio>,
// <video> and <source> elements, <a> links to audio files and, failing
// those, raw audio URLs anywhere in the markup. Relative links are resolved
// against pageURL. Order is preserved and duplicates removed.
func ExtractAudioURLs(pageURL, page string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = &url.URL{}
	}

	var found []string
	seen := make(map[string]bool)
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			found = append(found, abs)
		}
	}

	if doc, err := html.Parse(strings.NewReader(page)); err == nil {
		walk(doc, func(n *html.Node) {
			switch n.Data {
			case "audio", "video", "source":
				for _, key := range []string{"src", "data-src"} {
					if v := attr(n, key); v != "" {
						add(v)
						return
					}
				}
			case "a":
				if href := attr(n, "href"); audioLinkPattern.MatchString(href) {
					add(href)
				}
			}
		})
	}

	if len(found) == 0 {
		for _, m := range rawAudioPattern.FindAllString(page, -1) {
			add(html.UnescapeString(m))
		}
	}
	return found
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
