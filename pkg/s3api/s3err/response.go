// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3err

import (
	"bytes"
	"encoding/xml"
	"net/http"
)

// WriteError writes code's XML error response to w, for failures caught
// before a request enters the multipart action pipeline (auth, malformed
// query parameters).
func WriteError(w http.ResponseWriter, code ErrorCode, resource string) {
	s3error := code.ToErrorResponse(resource)

	var buf bytes.Buffer
	_ = xml.NewEncoder(&buf).Encode(s3error)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(s3error.HTTPCode)
	if buf.Len() > 0 {
		_, _ = w.Write(buf.Bytes())
	}
}
