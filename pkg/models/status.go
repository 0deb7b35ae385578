package models

// PostStatus represents the build status of a post in the cache database
type PostStatus string

const (
	PostStatusUnset    PostStatus = ""          // Zero value = unset/unknown
	PostStatusPending  PostStatus = "pending"   // Post loaded but not yet rendered
	PostStatusSuccess  PostStatus = "success"   // Post rendered and written
	PostStatusFailure  PostStatus = "failure"   // Rendering or writing failed
	PostStatusNotFound PostStatus = "not_found" // Post not in database
	PostStatusDBError  PostStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s PostStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusPending, PostStatusSuccess, PostStatusFailure:
		return true
	}
	return false
}
