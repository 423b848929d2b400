package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compress gzips responses of at least 1 KiB for clients that accept it.
// Station lists and plan responses with leg geometry compress well.
func Compress(next http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.CompressionLevel(6),
	)
	if err != nil {
		// Only reachable with invalid static options above.
		panic(err)
	}
	return wrapper(next)
}
