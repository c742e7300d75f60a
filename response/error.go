// response/error.go
// This package provides utility functions and structures for handling Jamf Pro API responses.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/deploymenttheory/go-jamfpro-fleetops/status"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// maxErrorBodyBytes bounds how much of an error body is read and kept.
const maxErrorBodyBytes = 64 << 10

// APIError represents an api error response.
type APIError struct {
	StatusCode  int      `json:"status_code"`
	Method      string   `json:"method"`
	URL         string   `json:"url"`
	HTTPStatus  int      `json:"httpStatus,omitempty"`
	Errors      []Errors `json:"errors,omitempty"`
	Message     string   `json:"message"`
	RawResponse string   `json:"raw_response"`
}

// Errors represents individual error details within a Jamf Pro API error response.
type Errors struct {
	Code        string  `json:"code,omitempty"`
	Field       string  `json:"field,omitempty"`
	Description string  `json:"description,omitempty"`
	ID          *string `json:"id,omitempty"`
}

// Error returns a one line summary suitable for display.
func (e *APIError) Error() string {
	message := e.Message
	if message == "" {
		message = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, message)
}

// ParseErrorResponse reads a non-success response body and extracts a readable message,
// dispatching on the Content-Type. Jamf's classic API answers with HTML or XML, the
// Jamf Pro API with JSON.
func ParseErrorResponse(resp *http.Response, log logger.Logger) *APIError {
	apiError := &APIError{
		StatusCode: resp.StatusCode,
		Message:    status.TranslateStatusCode(resp.StatusCode),
	}
	if resp.Request != nil {
		apiError.Method = resp.Request.Method
		apiError.URL = resp.Request.URL.String()
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		apiError.RawResponse = "Failed to read response body"
		log.LogError("error_response_read_failed", apiError.Method, apiError.URL, resp.StatusCode, resp.Status, err, "")
		return apiError
	}
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return apiError
	}

	mimeType, _ := ParseContentTypeHeader(resp.Header.Get("Content-Type"))
	switch mimeType {
	case "application/json":
		parseJSONResponse(bodyBytes, apiError)
	case "application/xml", "text/xml":
		parseXMLResponse(bodyBytes, apiError)
	case "text/html":
		parseHTMLResponse(bodyBytes, apiError)
	default:
		parseTextResponse(bodyBytes, apiError)
	}

	log.Debug("Parsed API error response",
		zap.Int("status_code", apiError.StatusCode),
		zap.String("url", apiError.URL),
		zap.String("message", apiError.Message),
	)

	return apiError
}

// parseJSONResponse handles the Jamf Pro API error envelope
// {"httpStatus":404,"errors":[{"code":"...","description":"..."}]}.
func parseJSONResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	var envelope struct {
		HTTPStatus int      `json:"httpStatus"`
		Errors     []Errors `json:"errors"`
		Message    string   `json:"message"`
	}
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return
	}

	apiError.HTTPStatus = envelope.HTTPStatus
	apiError.Errors = envelope.Errors

	var descriptions []string
	for _, e := range envelope.Errors {
		if e.Description != "" {
			descriptions = append(descriptions, e.Description)
		} else if e.Code != "" {
			descriptions = append(descriptions, e.Code)
		}
	}
	switch {
	case len(descriptions) > 0:
		apiError.Message = strings.Join(descriptions, "; ")
	case envelope.Message != "":
		apiError.Message = envelope.Message
	}
}

// parseXMLResponse dynamically parses XML error responses and accumulates potential error messages.
func parseXMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := xmlquery.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var traverse func(*xmlquery.Node)
	traverse = func(n *xmlquery.Node) {
		if n.Type == xmlquery.TextNode && strings.TrimSpace(n.Data) != "" {
			messages = append(messages, strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	if len(messages) > 0 {
		apiError.Message = strings.Join(messages, "; ")
	}
}

// parseTextResponse uses a plain text body verbatim.
func parseTextResponse(bodyBytes []byte, apiError *APIError) {
	bodyText := strings.TrimSpace(string(bodyBytes))
	apiError.RawResponse = bodyText
	apiError.Message = bodyText
}

// parseHTMLResponse extracts the text of every <p> element. The Jamf classic API status
// page puts the error summary and its detail into consecutive paragraphs.
func parseHTMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var collectText func(*html.Node, *strings.Builder)
	collectText = func(n *html.Node, sb *strings.Builder) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectText(c, sb)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			var sb strings.Builder
			collectText(n, &sb)
			if sb.Len() > 0 {
				messages = append(messages, sb.String())
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(messages) > 0 {
		apiError.Message = strings.Join(messages, "; ")
	}
}
