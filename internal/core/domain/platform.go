package domain

// Platform identifies a connectable social media provider
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// Platforms returns every supported platform.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformTikTok}
}

// ParsePlatform validates a platform name against the closed set.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformInstagram:
		return PlatformInstagram, nil
	case PlatformTikTok:
		return PlatformTikTok, nil
	default:
		return "", ErrInvalidPlatform
	}
}

// DisplayName returns a human-readable name for the platform.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformInstagram:
		return "Instagram"
	case PlatformTikTok:
		return "TikTok"
	default:
		return string(p)
	}
}
