package media

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// OctetStream is the fallback type for content nothing else matches.
const OctetStream = "application/octet-stream"

// Container formats the header sniffer doesn't know. Extension-based,
// matching how media viewers classify these.
var extensionTypes = map[string]string{
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".m4v":  "video/x-m4v",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".ts":   "video/mp2t",
	".heic": "image/heic",
	".heif": "image/heif",
}

// DetectMIME returns the MIME type of the file's content. It sniffs the
// first 512 bytes, then tries the filename extension, and settles on
// application/octet-stream when neither matches. Detection never fails:
// unreadable files degrade to the fallback type.
func DetectMIME(path string) string {
	if sniffed := sniffHeader(path); sniffed != "" && sniffed != OctetStream {
		return sniffed
	}

	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return stripParams(t)
	}

	return OctetStream
}

func sniffHeader(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n == 0 {
		return ""
	}

	return stripParams(http.DetectContentType(buf[:n]))
}

// stripParams drops "; charset=..." style parameters.
func stripParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// IsVisual reports whether the MIME type carries decodable visual
// content worth sampling.
func IsVisual(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/") || strings.HasPrefix(mimeType, "image/")
}
