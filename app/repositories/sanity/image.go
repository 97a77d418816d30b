package sanity

import (
	"fmt"
	"strings"

	"inkpress/app/models"
)

const imageCDN = "https://cdn.sanity.io/images"

// ImageURLBuilder turns image asset references into CDN URLs.
type ImageURLBuilder struct {
	ProjectID string
	Dataset   string
}

// URL returns the CDN URL of an image field, or "" when it has no usable asset.
func (b ImageURLBuilder) URL(img models.Image) string {
	return b.AssetURL(img.Asset.Ref)
}

// AssetURL maps an asset reference of the form image-<id>-<w>x<h>-<format>
// to its CDN location. Absolute http(s) URLs pass through unchanged.
func (b ImageURLBuilder) AssetURL(ref string) string {
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref
	}

	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" || b.ProjectID == "" || b.Dataset == "" {
		return ""
	}
	id, dims, format := parts[1], parts[2], parts[3]
	if !strings.Contains(dims, "x") {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/%s-%s.%s", imageCDN, b.ProjectID, b.Dataset, id, dims, format)
}
