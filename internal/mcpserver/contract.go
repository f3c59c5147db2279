package mcpserver

// PostFormatContract describes the canonical Pelican post format that
// LLM consumers should follow when writing posts by hand.
const PostFormatContract = `# SparkPelican Post Format Contract

Every markdown post stored in the content directory MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title          # REQUIRED - plain text, NEVER quoted
date: 2026-03-14T10:30:00            # REQUIRED - ISO format
author: John Doe                     # REQUIRED
category: Video Notes                # Site category
tags: containers, linux, namespaces  # Comma-separated, lowercase
slug: understanding-containers       # URL slug, kebab-case
youtube_id: dQw4w9WgXcQ              # Source video id (generated posts)
summary: One or two sentences.       # Single line
image: images/dQw4w9WgXcQ.jpg        # OPTIONAL - content-relative path
---

Summary paragraph repeated as the lead.

## Introduction

Body in standard Markdown with ## headings.
` + "```" + `

## Rules

1. **The front matter fences are exactly** ` + "`---`" + ` **on their own lines**, and the
   opening fence is the very first line of the file (no leading blank lines).
2. **The title value is never wrapped in quotes.** Pelican treats the value as a
   plain string; writing ` + "`" + `title: "My Post"` + "`" + ` renders the quotes on the page.
   Internal quotes and apostrophes are fine: ` + "`" + `title: Don't Panic` + "`" + `.
3. **The date is ISO format**: ` + "`" + `YYYY-MM-DDTHH:MM:SS` + "`" + ` or ` + "`" + `YYYY-MM-DD` + "`" + `.
4. **Tags** are lowercase and comma-separated on one line; multi-word tags use
   hyphens (e.g. ` + "`" + `distributed-systems` + "`" + `).
5. **Filenames** follow ` + "`" + `YYYY-MM-DD-slug.md` + "`" + ` with forward slashes.
6. **Images** live under the content ` + "`" + `images/` + "`" + ` directory and are referenced by
   content-relative path.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Understanding Container Internals Step by Step
date: 2026-03-14T10:30:00
author: John Doe
category: Video Notes
tags: containers, linux, namespaces, cgroups
slug: understanding-container-internals-step-by-step-dqw4w9wg
youtube_id: dQw4w9WgXcQ
summary: Learn how namespaces and cgroups combine into containers.
image: images/dQw4w9WgXcQ.jpg
---

Learn how namespaces and cgroups combine into containers.

## Introduction

Containers are processes with isolated views of the system.
` + "```" + `
`
