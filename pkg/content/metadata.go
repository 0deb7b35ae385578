package content

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"

	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// ParseFrontMatter splits source into post metadata and body. Sources without
// a front matter block yield empty metadata and the whole source as body.
func ParseFrontMatter(source []byte) (models.PostMetadata, []byte, error) {
	var meta models.PostMetadata
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return models.PostMetadata{}, nil, fmt.Errorf("%w: %w", utils.ErrFrontMatter, err)
	}
	return meta, body, nil
}

// ValidateMetadata checks the fields every published post needs
func ValidateMetadata(meta models.PostMetadata) error {
	err := validation.ValidateStruct(&meta,
		validation.Field(&meta.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&meta.PublishedAt, validation.Required, validation.Date(models.PublishedAtLayout)),
		validation.Field(&meta.Image, validation.By(imageRef)),
		validation.Field(&meta.Tags, validation.Each(validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", utils.ErrFrontMatter, err)
	}
	if meta.Slug != "" && !slug.IsValid(meta.Slug) {
		return fmt.Errorf("%w: slug '%s' is not a valid URL slug", utils.ErrFrontMatter, meta.Slug)
	}
	return nil
}

func notBlank(value any) error {
	if s, _ := value.(string); strings.TrimSpace(s) == "" {
		return validation.NewError("folio.post.blank", "must not be blank")
	}
	return nil
}

// imageRef accepts a site-relative path ("/images/a.png") or an absolute http(s) URL
func imageRef(value any) error {
	s, _ := value.(string)
	if s == "" || strings.HasPrefix(s, "/") {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("folio.post.image", "must be a site path starting with / or an absolute URL")
	}
	return nil
}

// PostSlug returns the URL slug for a post: the front matter slug when set,
// otherwise the normalised file name stem.
func PostSlug(meta models.PostMetadata, stem string) string {
	if meta.Slug != "" {
		return meta.Slug
	}
	normalized, err := slug.Normalize(stem)
	if err != nil || normalized == "" {
		normalized = utils.SanitizeFilename(strings.ToLower(stem))
	}
	return normalized
}
