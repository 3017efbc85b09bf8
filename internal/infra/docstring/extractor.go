// Package docstring recovers structured tool metadata from the leading
// comment block of human-authored skill scripts. Extraction is best-effort:
// a script without a recognizable block yields empty metadata, never an
// error, because scripts are not generated from a schema.
package docstring

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cmdbridge/internal/domain"
)

type section int

const (
	sectionDescription section = iota
	sectionParams
	sectionReturns
	sectionExamples
)

// strategy is the per-language part of extraction: locating the comment
// block, recognizing section headers, and matching one parameter line.
type strategy interface {
	extractBlock(src string) []string
	detectSection(line string) (section, string, bool)
	matchParam(line string) (domain.ScriptParam, bool)
}

var titleRe = regexp.MustCompile(`^(\S+)\s+-\s+(.+)$`)

// Extract parses the docstring of the script at path. The returned metadata
// always carries the script's path, extension, and a name (falling back to
// the file name without extension when the docstring has no title line).
func Extract(path string) (domain.ScriptMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ScriptMetadata{}, err
	}
	return Parse(string(data), path), nil
}

// Parse extracts metadata from script source. It never fails; unparsable
// input produces metadata with only the fallback name, extension and path.
func Parse(src, path string) domain.ScriptMetadata {
	ext := strings.ToLower(filepath.Ext(path))
	meta := domain.ScriptMetadata{
		Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Extension: ext,
		Path:      path,
	}

	strat := strategyForExtension(ext)
	if strat == nil {
		return meta
	}
	block := strat.extractBlock(src)
	if len(block) == 0 {
		return meta
	}

	scanBlock(&meta, block, strat)
	return meta
}

func strategyForExtension(ext string) strategy {
	switch ext {
	case ".py":
		return pythonStrategy{}
	case ".sh":
		return shellStrategy{}
	case ".ts", ".js":
		return jsdocStrategy{}
	default:
		return nil
	}
}

func scanBlock(meta *domain.ScriptMetadata, block []string, strat strategy) {
	current := sectionDescription
	var desc []string
	var returns []string
	titleSeen := false

	flushLine := func(line string) {
		switch current {
		case sectionDescription:
			if !titleSeen && line != "" {
				if m := titleRe.FindStringSubmatch(line); m != nil {
					meta.Name = m[1]
					desc = append(desc, m[2])
					titleSeen = true
					return
				}
				titleSeen = true
			}
			if line != "" {
				desc = append(desc, line)
			}
		case sectionParams:
			if param, ok := strat.matchParam(line); ok {
				meta.Params = append(meta.Params, param)
				return
			}
			// Continuation lines extend the previous parameter description.
			if line != "" && len(meta.Params) > 0 {
				last := &meta.Params[len(meta.Params)-1]
				if last.Description != "" {
					last.Description += " "
				}
				last.Description += line
			}
		case sectionReturns:
			if line != "" {
				returns = append(returns, line)
			}
		case sectionExamples:
			if line != "" {
				meta.Examples = append(meta.Examples, line)
			}
		}
	}

	for _, raw := range block {
		line := strings.TrimSpace(raw)
		if next, remainder, ok := strat.detectSection(line); ok {
			current = next
			if remainder != "" {
				flushLine(remainder)
			}
			continue
		}
		flushLine(line)
	}

	meta.Description = strings.Join(desc, " ")
	meta.Returns = strings.Join(returns, " ")
}
