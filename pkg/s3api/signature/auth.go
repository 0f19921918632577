package signature

import (
	"mime"
	"net/http"
	"strings"

	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/s3consts"
)

const (
	AuthHeaderV4 = "AWS4-HMAC-SHA256"
	AuthHeaderV2 = "AWS"

	Iso8601BasicFormat = "20060102T150405Z"
	Iso8601DateFormat  = "20060102"

	UnsignedPayload         = "UNSIGNED-PAYLOAD"
	StreamingPayload        = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD"
	StreamingPayloadTrailer = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD-TRAILER"

	// Precomputed SHA256 hash of an empty payload
	HashedEmptyPayload = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

type AuthType int

const (
	AuthTypeNone AuthType = iota
	AuthTypeAnonymous
	AuthTypeV2
	AuthTypeV4
	AuthTypePresignedV2
	AuthTypePresignedV4
	AuthTypePostPolicy
	AuthTypeStreamingSigned
	AuthTypeStreamingSignedTrailer
	AuthTypeStreamingUnsignedTrailer
)

func (a AuthType) String() string {
	switch a {
	case AuthTypeNone:
		return "none"
	case AuthTypeAnonymous:
		return "anonymous"
	case AuthTypeV2:
		return "v2"
	case AuthTypeV4:
		return "v4"
	case AuthTypePresignedV2:
		return "presigned_v2"
	case AuthTypePresignedV4:
		return "presigned_v4"
	case AuthTypePostPolicy:
		return "post_policy"
	case AuthTypeStreamingSigned:
		return "streaming_signed"
	case AuthTypeStreamingSignedTrailer:
		return "streaming_signed_trailer"
	case AuthTypeStreamingUnsignedTrailer:
		return "streaming_unsigned_trailer"
	default:
		return "unknown"
	}
}

// IsChunkedPayload reports whether the request declares one of the
// streaming signed content-sha256 sentinels multipart.Body's chunk parser
// handles.
func IsChunkedPayload(r *http.Request) bool {
	switch r.Header.Get(s3consts.XAmzContentSHA256) {
	case StreamingPayload, StreamingPayloadTrailer:
		return true
	}
	return false
}

func isRequestSignStreamingSigned(r *http.Request) bool {
	return r.Header.Get(s3consts.XAmzContentSHA256) == StreamingPayload && r.Method == http.MethodPut
}

func isRequestSignStreamingSignedTrailer(r *http.Request) bool {
	return r.Header.Get(s3consts.XAmzContentSHA256) == StreamingPayloadTrailer && r.Method == http.MethodPut
}

func isRequestSignStreamingUnsignedTrailer(r *http.Request) bool {
	return r.Header.Get(s3consts.XAmzContentSHA256) == UnsignedPayload
}

func isRequestAnonymous(r *http.Request) bool {
	return r.Header.Get("Authorization") == ""
}

func isRequestSignatureV4(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Authorization"), AuthHeaderV4+" ")
}

func isRequestSignatureV2(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Authorization"), AuthHeaderV2+" ")
}

func isRequestPresignedV4(r *http.Request) bool {
	query := r.URL.Query()
	_, hasAlgorithm := query[s3consts.XAmzAlgorithm]
	_, hasCredential := query[s3consts.XAmzCredential]
	_, hasSignature := query[s3consts.XAmzSignature]
	return hasAlgorithm && hasCredential && hasSignature
}

func isRequestPresignedV2(r *http.Request) bool {
	query := r.URL.Query()
	_, hasAccessKeyID := query["AWSAccessKeyId"]
	_, hasSignature := query["Signature"]
	return hasAccessKeyID && hasSignature
}

func isRequestPostPolicy(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return contentType == "multipart/form-data"
}

// GetAuthType classifies a request's authentication mechanism. Order
// matters: the streaming sentinels must be checked before the generic
// Authorization-header checks since a chunked PUT still carries a v4
// Authorization header for the seed signature.
func GetAuthType(r *http.Request) AuthType {
	switch {
	case isRequestSignStreamingSigned(r):
		return AuthTypeStreamingSigned
	case isRequestSignStreamingSignedTrailer(r):
		return AuthTypeStreamingSignedTrailer
	case isRequestSignStreamingUnsignedTrailer(r):
		return AuthTypeStreamingUnsignedTrailer
	case isRequestAnonymous(r):
		return AuthTypeAnonymous
	case isRequestSignatureV4(r):
		return AuthTypeV4
	case isRequestSignatureV2(r):
		return AuthTypeV2
	case isRequestPresignedV4(r):
		return AuthTypePresignedV4
	case isRequestPresignedV2(r):
		return AuthTypePresignedV2
	case isRequestPostPolicy(r):
		return AuthTypePostPolicy
	}
	return AuthTypeNone
}
