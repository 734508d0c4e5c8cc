// Package shared holds value types embedded across multiple
// aggregates - never an aggregate itself.
package shared

// Image is embedded in Product, Variant, and Collection state. Urls
// is keyed size -> format -> URL (thumbnail|small|medium|large|
// original x original|webp|avif), matching the image storage
// adapter's uploadImage response shape (spec.md section 6).
type Image struct {
	ImageID string                       `json:"imageId"`
	URLs    map[string]map[string]string `json:"urls"`
	AltText string                       `json:"altText"`
}

// ToAny converts a slice of Image to []any for embedding in a
// snapshot payload map.
func ToAny(images []Image) []any {
	out := make([]any, len(images))
	for i, img := range images {
		out[i] = map[string]any{
			"imageId": img.ImageID,
			"urls":    img.URLs,
			"altText": img.AltText,
		}
	}
	return out
}

// FromAny reverses ToAny when hydrating a snapshot payload.
func FromAny(raw any) []Image {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	images := make([]Image, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		img := Image{
			ImageID: stringOf(m["imageId"]),
			AltText: stringOf(m["altText"]),
			URLs:    map[string]map[string]string{},
		}
		if urls, ok := m["urls"].(map[string]any); ok {
			for size, formats := range urls {
				if fm, ok := formats.(map[string]any); ok {
					inner := map[string]string{}
					for format, url := range fm {
						inner[format] = stringOf(url)
					}
					img.URLs[size] = inner
				}
			}
		}
		images = append(images, img)
	}
	return images
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
