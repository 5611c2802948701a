// Package dto parses blog requests into typed values and shapes responses.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-cms/internal/web/blog/model"
	"github.com/Laisky/laisky-cms/library/httperr"
)

// InvalidSectionIndex marks a sectionIndex that is not a non-negative integer
const InvalidSectionIndex = -1

// AddBlogRequest is a parsed blog creation request
type AddBlogRequest struct {
	Sections        []model.Section
	MetaTitle       string
	MetaDescription string
	MetaKeywords    []string
	Link            string
}

// EditSectionRequest is a parsed single section update
type EditSectionRequest struct {
	ID string
	// SectionIndex is InvalidSectionIndex when the input was not a non-negative integer
	SectionIndex int
	Section      model.Section
	Meta         model.Meta
}

// BlogResponse single blog, Message is set on writes
type BlogResponse struct {
	Success bool        `json:"success,omitempty"`
	Message string      `json:"message,omitempty"`
	Blog    *model.Blog `json:"blog"`
}

// BlogsResponse blog list
type BlogsResponse struct {
	Success bool          `json:"success"`
	Blogs   []*model.Blog `json:"blogs"`
}

// MessageResponse write without payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// unquote returns the decoded string when raw is a JSON string
func unquote(raw []byte) ([]byte, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return raw, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return raw, false
	}

	return bytes.TrimSpace([]byte(s)), true
}

// ParseSections parses a JSON array of sections. The array may itself be
// wrapped in a JSON string, as multipart clients tend to send it.
func ParseSections(raw []byte) ([]model.Section, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, httperr.Validation("Sections should be an array")
	}
	if !json.Valid(raw) {
		return nil, httperr.Validation("Invalid JSON in sections")
	}
	if s, ok := unquote(raw); ok {
		raw = s
		if !json.Valid(raw) {
			return nil, httperr.Validation("Invalid JSON in sections")
		}
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, httperr.Validation("Sections should be an array")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, err, "Sections should be an array")
	}

	sections := make([]model.Section, 0, len(items))
	for i, item := range items {
		var section model.Section
		if err := json.Unmarshal(item, &section); err != nil {
			return nil, invalidSection(err, fmt.Sprintf("index %d", i))
		}
		sections = append(sections, section)
	}

	return sections, nil
}

// ParseSection parses sectionData, a section object or a JSON string holding one
func ParseSection(raw []byte) (model.Section, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return model.Section{}, httperr.Validation("Invalid JSON in sectionData")
	}
	if s, ok := unquote(raw); ok {
		raw = s
		if !json.Valid(raw) {
			return model.Section{}, httperr.Validation("Invalid JSON in sectionData")
		}
	}

	var section model.Section
	if err := json.Unmarshal(raw, &section); err != nil {
		return model.Section{}, invalidSection(err, "sectionData")
	}

	return section, nil
}

func invalidSection(err error, where string) error {
	reason := where
	if errors.Is(err, model.ErrInvalidSection) {
		reason = strings.TrimSuffix(err.Error(), ": "+model.ErrInvalidSection.Error()) + " at " + where
	}

	return httperr.Wrap(httperr.KindValidation, err, "Invalid section: "+reason)
}

// ParseSectionIndex returns InvalidSectionIndex for anything but a
// non-negative integer, bound checking is left to the caller.
func ParseSectionIndex(raw string) int {
	raw = strings.TrimSpace(raw)
	if s, ok := unquote([]byte(raw)); ok {
		raw = string(s)
	}

	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return InvalidSectionIndex
	}

	return idx
}

// ParseKeywords normalizes form values of metaKeywords.
//
// Several values are used as is. A single value is decoded as JSON when it
// holds an array of strings or a string, any other value becomes a one
// element list. Returns nil when the field is absent or empty.
func ParseKeywords(values []string) []string {
	switch len(values) {
	case 0:
		return nil
	case 1:
	default:
		return values
	}

	v := values[0]
	if strings.TrimSpace(v) == "" {
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(v), &arr); err == nil {
		if arr == nil {
			return nil
		}
		return arr
	}

	var s string
	if err := json.Unmarshal([]byte(v), &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	return []string{v}
}

// ParseKeywordsJSON normalizes metaKeywords from a JSON body, which may be
// an array or a string that in turn holds JSON.
func ParseKeywordsJSON(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if s, ok := unquote(raw); ok {
		return ParseKeywords([]string{string(s)})
	}

	return ParseKeywords([]string{string(raw)})
}
