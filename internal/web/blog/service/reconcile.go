package service

import "github.com/Laisky/laisky-cms/internal/web/blog/model"

// Reconcile distributes uploaded image URLs into the image sections, in order.
//
// A multi image slot declaring n items takes the next n URLs, fewer when the
// batch runs out. A single slot takes the next URL or nil. Other sections
// are returned as is. The input slice is not modified.
func Reconcile(sections []model.Section, urls []string) []model.Section {
	out := make([]model.Section, len(sections))
	cursor := 0
	for i, section := range sections {
		if section.Type != model.SectionImage {
			out[i] = section
			continue
		}

		if section.IsMultiImage() {
			n := len(section.Items)
			start, end := min(cursor, len(urls)), min(cursor+n, len(urls))
			out[i] = model.MultiImage(append([]string{}, urls[start:end]...)...)
			cursor += n
			continue
		}

		if cursor < len(urls) {
			url := urls[cursor]
			out[i] = model.SingleImage(&url)
		} else {
			out[i] = model.SingleImage(nil)
		}
		cursor++
	}

	return out
}
