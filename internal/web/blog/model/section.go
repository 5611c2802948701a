package model

import (
	"bytes"
	"encoding/json"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// SectionType discriminates the content of a Section
type SectionType string

const (
	SectionTitle     SectionType = "title"
	SectionParagraph SectionType = "paragraph"
	SectionList      SectionType = "list"
	SectionImage     SectionType = "image"
)

// Valid reports whether t is a known section type
func (t SectionType) Valid() bool {
	switch t {
	case SectionTitle, SectionParagraph, SectionList, SectionImage:
		return true
	default:
		return false
	}
}

// Section is one content block of a blog.
//
// Title and paragraph keep their content in Text. List keeps it in Items.
// An image section is either a single slot (Items is nil, Text holds the URL
// or nil when no URL is available) or a multi slot (Items is non-nil,
// possibly empty).
type Section struct {
	Type  SectionType
	Text  *string
	Items []string
}

// TextSection builds a title or paragraph section
func TextSection(typ SectionType, text string) Section {
	return Section{Type: typ, Text: &text}
}

// ListSection builds a list section
func ListSection(items ...string) Section {
	if items == nil {
		items = []string{}
	}

	return Section{Type: SectionList, Items: items}
}

// SingleImage builds a single image slot, url may be nil
func SingleImage(url *string) Section {
	return Section{Type: SectionImage, Text: url}
}

// MultiImage builds a multi image slot
func MultiImage(urls ...string) Section {
	if urls == nil {
		urls = []string{}
	}

	return Section{Type: SectionImage, Items: urls}
}

// IsMultiImage image section whose content is a sequence
func (s Section) IsMultiImage() bool {
	return s.Type == SectionImage && s.Items != nil
}

// Clone returns a deep copy
func (s Section) Clone() Section {
	out := Section{Type: s.Type}
	if s.Text != nil {
		text := *s.Text
		out.Text = &text
	}
	if s.Items != nil {
		out.Items = append([]string{}, s.Items...)
	}

	return out
}

// Content returns the payload as it appears on the wire:
// string, []string or nil.
func (s Section) Content() any {
	switch {
	case s.Items != nil:
		return s.Items
	case s.Text != nil:
		return *s.Text
	default:
		return nil
	}
}

type sectionJSON struct {
	Type    SectionType     `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON renders {"type": ..., "content": ...}
func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    SectionType `json:"type"`
		Content any         `json:"content"`
	}{
		Type:    s.Type,
		Content: s.Content(),
	})
}

// UnmarshalJSON parses and validates a section, errors wrap ErrInvalidSection
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw sectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrInvalidSection, "section should be an object")
	}

	parsed, err := parseSection(raw.Type, raw.Content)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func parseSection(typ SectionType, content json.RawMessage) (Section, error) {
	if !typ.Valid() {
		return Section{}, errors.Wrapf(ErrInvalidSection, "unknown section type %q", typ)
	}

	switch typ {
	case SectionTitle, SectionParagraph:
		var text string
		if isNull(content) || json.Unmarshal(content, &text) != nil {
			return Section{}, errors.Wrapf(ErrInvalidSection, "%s content should be a string", typ)
		}
		return TextSection(typ, text), nil
	case SectionList:
		var items []string
		if isNull(content) || json.Unmarshal(content, &items) != nil {
			return Section{}, errors.Wrap(ErrInvalidSection, "list content should be an array of strings")
		}
		return ListSection(items...), nil
	default:
		if isNull(content) {
			return SingleImage(nil), nil
		}

		var url string
		if err := json.Unmarshal(content, &url); err == nil {
			return SingleImage(&url), nil
		}

		var urls []*string
		if err := json.Unmarshal(content, &urls); err != nil {
			return Section{}, errors.Wrap(ErrInvalidSection, "image content should be a string or an array of strings")
		}
		items := make([]string, len(urls))
		for i, u := range urls {
			if u == nil {
				return Section{}, errors.Wrapf(ErrInvalidSection, "image content has null at index %d", i)
			}
			items[i] = *u
		}
		return MultiImage(items...), nil
	}
}

// MarshalBSON stores the section as {type, content}
func (s Section) MarshalBSON() ([]byte, error) {
	return bson.Marshal(bson.D{
		{Key: "type", Value: string(s.Type)},
		{Key: "content", Value: s.Content()},
	})
}

// UnmarshalBSON restores a section, the content shape decides single or multi
func (s *Section) UnmarshalBSON(data []byte) error {
	var doc struct {
		Type    string        `bson:"type"`
		Content bson.RawValue `bson:"content"`
	}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "decode section")
	}

	out := Section{Type: SectionType(doc.Type)}
	switch doc.Content.Type {
	case bsontype.String:
		text := doc.Content.StringValue()
		out.Text = &text
	case bsontype.Array:
		items := []string{}
		if err := doc.Content.Unmarshal(&items); err != nil {
			return errors.Wrap(err, "decode section content")
		}
		out.Items = items
	}

	*s = out
	return nil
}
