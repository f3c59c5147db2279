package generator

import (
	"fmt"
	"regexp"
	"strings"
)

var languageNames = map[string]string{
	"en": "English",
	"zh": "Simplified Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ru": "Russian",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
}

func languageInstruction(lang string) string {
	name, ok := languageNames[lang]
	if !ok {
		name = "English"
	}
	return fmt.Sprintf("Write the entire output in %s, in a clear professional tone.", name)
}

// excerpt returns at most n bytes of the transcript, cut at a word boundary.
func excerpt(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := text[:n]
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut
}

func titlePrompt(text, lang string) string {
	return fmt.Sprintf(`Generate a compelling blog post title for this video transcript.

Requirements:
- 50 to 60 characters
- Specific and actionable, focused on the value for the reader
- No quotes around the title, no "Episode", "Part", or "#" markers
- %s

Transcript excerpt:
%s

Respond with the title text only, nothing else.`, languageInstruction(lang), excerpt(text, 1500))
}

func bodyPrompt(text, lang string) string {
	target := len(strings.Fields(text)) / 2
	return fmt.Sprintf(`Transform this video transcript into a professional blog post in markdown.

Requirements:
- Approximately %d words
- %s
- Remove filler words, repetitions, and spoken-style phrasing
- Structure: "## Introduction", "## Key Takeaways" (bullets), two or three
  topic sections with "##" headings, "## Practical Applications" (bullets),
  "## Conclusion"
- Short paragraphs, active voice, no references to "this video" or the speaker

Transcript:
%s

Respond with the markdown body only, without front matter.`, target, languageInstruction(lang), text)
}

func summaryPrompt(text, lang string) string {
	return fmt.Sprintf(`Write a 2-3 sentence summary that makes someone want to read this post.

Requirements:
- At most 150 words, active voice, specific
- Do not start with "This post" or "This video"
- %s

Transcript excerpt:
%s

Respond with the summary only.`, languageInstruction(lang), excerpt(text, 2000))
}

func tagsPrompt(text string) string {
	return fmt.Sprintf(`Generate 5-7 tags for this blog post.

Requirements:
- Lowercase, hyphens instead of spaces
- Specific topic keywords, not generic terms like "video" or "content"

Transcript excerpt:
%s

Respond with the tags as one comma-separated line.`, excerpt(text, 1500))
}

var titleLabelRe = regexp.MustCompile(`(?i)^(best\s*title|title|option)\s*\d*\s*:\s*`)

// cleanTitle strips quotes, label prefixes, and markdown emphasis from a
// model-produced title and collapses it onto one line.
func cleanTitle(s string) string {
	// Models sometimes return several lines; take the last substantial one.
	lines := strings.Split(strings.TrimSpace(s), "\n")
	title := ""
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = titleLabelRe.ReplaceAllString(line, "")
		line = strings.Trim(line, "\"'`*")
		if len(line) >= 10 {
			title = line
		}
	}
	if title == "" && len(lines) > 0 {
		title = strings.Trim(strings.TrimSpace(lines[len(lines)-1]), "\"'`*")
	}
	title = flattenLine(title)
	if len(title) > 70 {
		title = excerpt(title, 70)
	}
	return title
}

// fallbackTitle uses the video's own title, or the first usable transcript
// sentence, when the model cannot produce one.
func fallbackTitle(text, videoTitle string) string {
	if t := flattenLine(videoTitle); t != "" {
		if len(t) > 70 {
			t = excerpt(t, 70)
		}
		return t
	}
	for _, s := range strings.SplitN(text, ".", 6) {
		s = flattenLine(s)
		if len(s) >= 20 && len(s) <= 100 {
			return excerpt(s, 60)
		}
	}
	return "Essential Video Content Guide"
}

func fallbackBody(text string) string {
	words := strings.Fields(text)
	n := len(words) / 2
	if n > 500 {
		n = 500
	}
	return fmt.Sprintf(`## Introduction

This post is based on a video exploring the topics below.

## Key Points

%s

## Conclusion

Watch the original video for the complete discussion.`, strings.Join(words[:n], " "))
}

func fallbackSummary(text string) string {
	var picked []string
	for _, s := range strings.Split(text, ".") {
		s = flattenLine(s)
		if len(s) < 30 {
			continue
		}
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, "hey") || strings.HasPrefix(lower, "hi ") ||
			strings.HasPrefix(lower, "hello") || strings.HasPrefix(lower, "so ") ||
			strings.HasPrefix(lower, "okay") {
			continue
		}
		picked = append(picked, s)
		if len(picked) == 2 {
			break
		}
	}
	if len(picked) > 0 {
		return strings.Join(picked, ". ") + "."
	}
	words := strings.Fields(text)
	if len(words) > 40 {
		words = words[:40]
	}
	return strings.Join(words, " ")
}

func fallbackTags() []string {
	return []string{"tutorial", "guide", "learning"}
}

// parseTags splits a comma-separated model response into clean lowercase tags.
func parseTags(s string) []string {
	// Keep only the first non-empty line in case the model adds commentary.
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var tags []string
		for _, t := range strings.Split(line, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			t = strings.Trim(t, "\"'`")
			t = strings.ReplaceAll(t, " ", "-")
			if t != "" {
				tags = append(tags, t)
			}
		}
		if len(tags) > 7 {
			tags = tags[:7]
		}
		return tags
	}
	return nil
}
