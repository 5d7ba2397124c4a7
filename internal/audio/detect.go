package audio

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// the stdlib table only has these when the host ships a mime.types file
var extensionTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// IsAudioFile reports whether path has a known audio extension
func IsAudioFile(path string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DetectMediaType guesses the media type of a file from its extension,
// then from its leading bytes
func DetectMediaType(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return http.DetectContentType(data)
}
