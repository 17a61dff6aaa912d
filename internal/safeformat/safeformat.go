// Package safeformat renders brace-style templates from configuration files.
//
// Only positional substitution is supported: "{}" takes the next argument and
// "{N}" takes argument N. Literal braces are written "{{" and "}}". Field names,
// attribute access and format specs are rejected so a template author can only
// ever reach the arguments handed to Format.
package safeformat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTemplate is returned for malformed templates.
var ErrTemplate = errors.New("invalid template")

type token struct {
	literal string
	index   int // -1 for literal tokens
}

// Format substitutes args into template.
func Format(template string, args ...string) (string, error) {
	tokens, err := parse(template)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, tok := range tokens {
		if tok.index < 0 {
			sb.WriteString(tok.literal)
			continue
		}
		if tok.index >= len(args) {
			return "", fmt.Errorf("%w: %q needs argument %d but only %d given",
				ErrTemplate, template, tok.index, len(args))
		}
		sb.WriteString(args[tok.index])
	}
	return sb.String(), nil
}

// Placeholders returns the number of substitution points in template.
func Placeholders(template string) (int, error) {
	tokens, err := parse(template)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, tok := range tokens {
		if tok.index >= 0 {
			n++
		}
	}
	return n, nil
}

func parse(template string) ([]token, error) {
	var (
		tokens  []token
		literal strings.Builder
		auto    int
		manual  bool
	)

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, token{literal: literal.String(), index: -1})
			literal.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '{' in %q", ErrTemplate, template)
			}
			field := template[i+1 : i+1+end]
			flush()

			if field == "" {
				if manual {
					return nil, fmt.Errorf("%w: cannot mix automatic and explicit field numbering in %q", ErrTemplate, template)
				}
				tokens = append(tokens, token{index: auto})
				auto++
			} else {
				idx, err := strconv.Atoi(field)
				if err != nil || idx < 0 {
					return nil, fmt.Errorf("%w: unsupported field %q in %q", ErrTemplate, field, template)
				}
				if auto > 0 {
					return nil, fmt.Errorf("%w: cannot mix automatic and explicit field numbering in %q", ErrTemplate, template)
				}
				manual = true
				tokens = append(tokens, token{index: idx})
			}
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: single '}' in %q", ErrTemplate, template)
		default:
			literal.WriteByte(c)
		}
	}
	flush()
	return tokens, nil
}
