package blob

// MIME types recognized by DetectMIME. Anything else is served as an opaque
// octet stream.
const (
	MIMEPNG         = "image/png"
	MIMEJPEG        = "image/jpeg"
	MIMEGIF         = "image/gif"
	MIMEOctetStream = "application/octet-stream"
)

// DetectMIME classifies a payload by its magic number. It only ever looks at
// the leading bytes, never at declared types, which uploaders lie about.
// Payloads too short to hold a signature classify as octet streams.
func DetectMIME(b []byte) string {
	if len(b) < 4 {
		return MIMEOctetStream
	}
	switch {
	case b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4e && b[3] == 0x47:
		return MIMEPNG
	case b[0] == 0xff && b[1] == 0xd8:
		return MIMEJPEG
	case b[0] == 0x47 && b[1] == 0x49 && b[2] == 0x46:
		return MIMEGIF
	default:
		return MIMEOctetStream
	}
}
