package core

// Service identifies the external music service a theme-song reference
// points at.
type Service string

const (
	ServiceYouTube Service = "youtube"
	ServiceSpotify Service = "spotify"
)

// Valid reports whether s names a supported music service.
func (s Service) Valid() bool {
	return s == ServiceYouTube || s == ServiceSpotify
}

// Cache backend selectors.
const (
	CacheBackendFile = "file"
	CacheBackendBolt = "bolt"
)
