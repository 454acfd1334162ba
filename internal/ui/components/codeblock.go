// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

const fence = "```"

// HighlightFences renders the fenced code blocks in text with syntax
// highlighting and leaves the prose untouched. An unclosed fence runs to the
// end of the text.
func HighlightFences(theme *styles.Theme, text string) string {
	if !strings.Contains(text, fence) {
		return text
	}

	var (
		out    []string
		code   []string
		lang   string
		inside bool
	)
	flush := func() {
		out = append(out, renderCode(theme, lang, strings.Join(code, "\n")))
		code, lang = nil, ""
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, fence) && inside:
			flush()
			inside = false
		case strings.HasPrefix(trimmed, fence):
			lang = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
			inside = true
		case inside:
			code = append(code, line)
		default:
			out = append(out, line)
		}
	}
	if inside {
		flush()
	}
	return strings.Join(out, "\n")
}

func renderCode(theme *styles.Theme, lang, code string) string {
	lines := strings.Split(highlight(theme, lang, code), "\n")
	for i, line := range lines {
		lines[i] = theme.CodeLineNumber.Render(strconv.Itoa(i+1)) + line
	}
	body := strings.Join(lines, "\n")
	if lang != "" {
		body = theme.RoleLabel.Render(lang) + "\n" + body
	}
	return theme.CodeBlock.Render(body)
}

// highlight returns code unchanged when chroma cannot tokenise it.
func highlight(theme *styles.Theme, lang, code string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if !theme.IsDark {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatterName := "terminal256"
	if theme.HasTrueColor {
		formatterName = "terminal16m"
	}
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, it); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
