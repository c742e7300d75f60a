// response/success.go
/* Responsible for decoding successful API responses. Jamf Pro answers in JSON or XML
depending on the endpoint and the Accept header; the body is decoded into out based on
the response Content-Type. */
package response

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"go.uber.org/zap"
)

// contentHandler defines the signature for unmarshaling content from an io.Reader.
type contentHandler func(io.Reader, any) error

// responseUnmarshallers maps MIME types to the corresponding contentHandler functions.
var responseUnmarshallers = map[string]contentHandler{
	"application/json": handlerUnmarshalJSON,
	"application/xml":  handlerUnmarshalXML,
	"text/xml":         handlerUnmarshalXML,
}

// DecodeSuccessResponse reads the response body and unmarshals it into out. A missing
// Content-Type is treated as JSON.
func DecodeSuccessResponse(resp *http.Response, out any, log logger.Logger) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return log.Error("Failed to read response body", zap.Error(err))
	}

	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return fmt.Errorf("empty response body")
	}

	contentType := resp.Header.Get("Content-Type")
	mimeType, _ := ParseContentTypeHeader(contentType)
	if mimeType == "" {
		mimeType = "application/json"
	}

	handler, ok := responseUnmarshallers[mimeType]
	if !ok {
		return fmt.Errorf("unexpected MIME type: %s", contentType)
	}

	if err := handler(bytes.NewReader(bodyBytes), out); err != nil {
		log.Warn("Failed to unmarshal response", zap.String("content_type", contentType), zap.Error(err))
		return err
	}
	return nil
}

func handlerUnmarshalJSON(reader io.Reader, out any) error {
	return json.NewDecoder(reader).Decode(out)
}

func handlerUnmarshalXML(reader io.Reader, out any) error {
	return xml.NewDecoder(reader).Decode(out)
}
