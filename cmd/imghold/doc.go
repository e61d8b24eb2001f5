// Package imghold implements an HTTP gateway for short-lived image blobs.
// Uploads are stored in a configurable key-value backend under a random
// identifier and expire after a fixed TTL.
//
// A valid upload is a POST to "/" with the payload as the request body. The
// payload's type is sniffed from its magic number; declared content types
// are ignored. The response is the generated identifier in plain text, to
// be used as the path of a later GET. Payloads over the size limit get 413,
// empty payloads 400, backend failures 500.
//
// A valid download is a GET to "/<id>". The response body is the stored
// payload, with Content-Type set to the type sniffed at upload time and a
// Cache-Control lifetime matching the TTL. Unknown and expired identifiers
// both return 404 with no body. Requests with other HTTP verbs return 400.
package main // import "imghold/cmd/imghold"
