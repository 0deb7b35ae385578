package content

import "github.com/Sriram-PR/folio/pkg/models"

// Neighbors returns the posts published just before (older) and just after
// (newer) the post with slug. posts must be sorted newest first.
func Neighbors(posts []models.Post, slug string) (older, newer *models.Post) {
	for i := range posts {
		if posts[i].Slug != slug {
			continue
		}
		if i+1 < len(posts) {
			older = &posts[i+1]
		}
		if i > 0 {
			newer = &posts[i-1]
		}
		return older, newer
	}
	return nil, nil
}
