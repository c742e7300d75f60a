package response

import (
	"net/http"
	"testing"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSuccessResponse_JSON(t *testing.T) {
	resp := recordedResponse(http.StatusOK, "application/json", `{"computer":{"general":{"id":42}}}`)

	var out struct {
		Computer struct {
			General struct {
				ID int `json:"id"`
			} `json:"general"`
		} `json:"computer"`
	}
	require.NoError(t, DecodeSuccessResponse(resp, &out, logger.NewNop()))
	assert.Equal(t, 42, out.Computer.General.ID)
}

func TestDecodeSuccessResponse_XML(t *testing.T) {
	resp := recordedResponse(http.StatusCreated, "text/xml", `<computer><id>7</id></computer>`)

	var out struct {
		ID int `xml:"id"`
	}
	require.NoError(t, DecodeSuccessResponse(resp, &out, logger.NewNop()))
	assert.Equal(t, 7, out.ID)
}

func TestDecodeSuccessResponse_Failures(t *testing.T) {
	var out map[string]any

	assert.Error(t, DecodeSuccessResponse(recordedResponse(http.StatusOK, "application/json", ""), &out, logger.NewNop()), "empty body")
	assert.Error(t, DecodeSuccessResponse(recordedResponse(http.StatusOK, "application/json", "{not json"), &out, logger.NewNop()), "malformed json")
	assert.Error(t, DecodeSuccessResponse(recordedResponse(http.StatusOK, "image/png", "abc"), &out, logger.NewNop()), "unsupported type")
}
