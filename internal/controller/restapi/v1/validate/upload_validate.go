package validate

const (
	MaxFileSize int64 = 11 * 1024 * 1024

	// sniff window for http.DetectContentType
	SniffLen int64 = 512
)

var (
	AllowedContentTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
	}

	AllowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
)
