package corpus

import "context"

// Provider supplies the full post corpus for an engine build. Implementations
// own all I/O; the engine only ever sees the returned slice.
type Provider interface {
	Posts(ctx context.Context) ([]Post, error)
}

// StaticProvider serves a fixed in-memory corpus. Used in tests and demo
// mode, where the corpus ships with the binary.
type StaticProvider struct {
	posts []Post
}

// NewStaticProvider wraps the given posts in a Provider.
func NewStaticProvider(posts []Post) *StaticProvider {
	return &StaticProvider{posts: posts}
}

// Posts returns a copy of the wrapped slice so callers cannot alias the
// provider's backing array.
func (s *StaticProvider) Posts(ctx context.Context) ([]Post, error) {
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out, nil
}
