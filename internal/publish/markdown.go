// Package publish renders a finished post as markdown, HTML or styled
// terminal text and writes export files.
package publish

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"quibo-cli/internal/api"
)

// Post is the exportable content of a project.
type Post struct {
	Title    string
	Subtitle string
	Summary  string
	// Body is the refined draft when there is one, else the compiled draft.
	Body   string
	Social *api.SocialContent
}

// Markdown assembles the post. The body's own leading H1 is kept when it
// matches Title so compiled drafts are not given two titles.
func Markdown(p Post) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	body := strings.TrimSpace(p.Body)
	title := strings.TrimSpace(p.Title)
	if title != "" && !hasTitle(body, title) {
		writeLn("# " + title)
		writeLn("")
	}
	if s := strings.TrimSpace(p.Subtitle); s != "" {
		writeLn("_" + s + "_")
		writeLn("")
	}
	if s := strings.TrimSpace(p.Summary); s != "" {
		writeLn("> " + strings.ReplaceAll(s, "\n", "\n> "))
		writeLn("")
	}
	if body != "" {
		writeLn(body)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

func hasTitle(body, title string) bool {
	first, _, _ := strings.Cut(body, "\n")
	return strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(first, "# ")), title)
}

// SocialMarkdown renders the social media pack, one heading per channel.
func SocialMarkdown(sc *api.SocialContent) string {
	if sc.Empty() {
		return ""
	}
	var buf bytes.Buffer
	section := func(heading, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		buf.WriteString("## " + heading + "\n\n" + body + "\n\n")
	}
	section("Content breakdown", sc.ContentBreakdown)
	section("LinkedIn", sc.LinkedinPost)
	section("X", sc.XPost)
	if th := sc.XThread; th != nil && len(th.Tweets) > 0 {
		tweets := append([]api.Tweet(nil), th.Tweets...)
		sort.SliceStable(tweets, func(i, j int) bool { return tweets[i].TweetNumber < tweets[j].TweetNumber })
		var lines []string
		if t := strings.TrimSpace(th.ThreadTopic); t != "" {
			lines = append(lines, "_"+t+"_", "")
		}
		for i, tw := range tweets {
			n := tw.TweetNumber
			if n == 0 {
				n = i + 1
			}
			lines = append(lines, strconv.Itoa(n)+". "+strings.TrimSpace(tw.Content))
		}
		section("X thread", strings.Join(lines, "\n"))
	}
	section("Newsletter", sc.NewsletterContent)
	return strings.TrimRight(buf.String(), "\n") + "\n"
}
