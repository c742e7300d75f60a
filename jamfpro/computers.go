// jamfpro/computers.go
package jamfpro

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"github.com/deploymenttheory/go-jamfpro-fleetops/headers"
	"github.com/deploymenttheory/go-jamfpro-fleetops/response"
	"go.uber.org/zap"
)

// ComputerSummary is one entry of the classic computers listing.
type ComputerSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ComputerDetail holds the inventory fields the toolkit reads from a computer record.
type ComputerDetail struct {
	General struct {
		ID               int    `json:"id"`
		Name             string `json:"name"`
		SerialNumber     string `json:"serial_number"`
		IPAddress        string `json:"ip_address"`
		RemoteManagement struct {
			Managed bool `json:"managed"`
		} `json:"remote_management"`
	} `json:"general"`
	Location struct {
		Username string `json:"username"`
	} `json:"location"`
	Hardware struct {
		Model     string `json:"model"`
		OSVersion string `json:"os_version"`
	} `json:"hardware"`
}

type responseComputerList struct {
	Computers []ComputerSummary `json:"computers"`
}

type responseComputer struct {
	Computer ComputerDetail `json:"computer"`
}

// managedStateUpdate is the minimal classic API payload flipping the managed flag.
type managedStateUpdate struct {
	XMLName xml.Name `xml:"computer"`
	General struct {
		RemoteManagement struct {
			Managed bool `xml:"managed"`
		} `xml:"remote_management"`
	} `xml:"general"`
}

// FindComputer looks a computer up by serial number. Only 200 counts as found; the result
// then carries the computer ID and current managed state.
func (c *Client) FindComputer(ctx context.Context, serverURL, token, serialNumber string) OperationResult {
	r := request{
		op:       "computer lookup",
		method:   http.MethodGet,
		endpoint: fmt.Sprintf(ComputerBySerialEndpoint, url.PathEscape(serialNumber)),
		accept:   headers.ContentTypeJSON,
	}

	resp, cancel, err := c.do(ctx, serverURL, token, r)
	if err != nil {
		return transportFailure(r.op, err)
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result := c.resultFromResponse(r.op, resp, http.StatusOK)
		notFound := &NotFoundError{SerialNumber: serialNumber, StatusCode: resp.StatusCode}
		result.Err = notFound
		result.ErrorMessage = notFound.Error()
		return result
	}

	var out responseComputer
	if err := response.DecodeSuccessResponse(resp, &out, c.log); err != nil || out.Computer.General.ID == 0 {
		if err == nil {
			err = fmt.Errorf("response has no computer ID")
		}
		c.log.Warn("Undecodable computer lookup response", zap.String("serial_number", serialNumber), zap.Error(err))
		return failure(resp.StatusCode, &NotFoundError{SerialNumber: serialNumber, StatusCode: resp.StatusCode})
	}

	id := out.Computer.General.ID
	managed := out.Computer.General.RemoteManagement.Managed
	return OperationResult{
		Success:             true,
		StatusCode:          resp.StatusCode,
		ComputerID:          &id,
		CurrentManagedState: &managed,
	}
}

// FindComputerID returns the computer ID for serialNumber, or nil when not found, with the
// lookup status code.
func (c *Client) FindComputerID(ctx context.Context, serverURL, token, serialNumber string) (*int, int) {
	result := c.FindComputer(ctx, serverURL, token, serialNumber)
	return result.ComputerID, result.StatusCode
}

// SetManagedState sets the managed flag of a computer. 200 and 201 are success.
func (c *Client) SetManagedState(ctx context.Context, serverURL, token string, computerID int, managed bool) OperationResult {
	var payload managedStateUpdate
	payload.General.RemoteManagement.Managed = managed

	body, err := xml.Marshal(payload)
	if err != nil {
		return failure(0, err)
	}
	c.log.Debug("XML Request Body", zap.String("body", string(body)))

	result := c.execute(ctx, serverURL, token, request{
		op:          "managed state update",
		method:      http.MethodPut,
		endpoint:    fmt.Sprintf(ComputerByIDEndpoint, computerID),
		accept:      headers.ContentTypeXML,
		contentType: headers.ContentTypeXML,
		body:        body,
	}, http.StatusOK, http.StatusCreated)

	if result.Success {
		result.ComputerID = &computerID
		result.CurrentManagedState = &managed
	}
	return result
}

// ListComputers returns the id and name of every computer in the inventory.
func (c *Client) ListComputers(ctx context.Context, serverURL, token string) ([]ComputerSummary, OperationResult) {
	var out responseComputerList
	result := c.getJSON(ctx, serverURL, token, "computer listing", ComputersEndpoint, &out)
	if !result.Success {
		return nil, result
	}
	return out.Computers, result
}

// GetComputerDetail returns the inventory record of one computer.
func (c *Client) GetComputerDetail(ctx context.Context, serverURL, token string, computerID int) (*ComputerDetail, OperationResult) {
	var out responseComputer
	result := c.getJSON(ctx, serverURL, token, "computer detail", fmt.Sprintf(ComputerByIDEndpoint, computerID), &out)
	if !result.Success {
		return nil, result
	}
	result.ComputerID = &computerID
	return &out.Computer, result
}

// getJSON issues a GET expecting 200 with a JSON body decoded into out.
func (c *Client) getJSON(ctx context.Context, serverURL, token, op, endpoint string, out any) OperationResult {
	r := request{op: op, method: http.MethodGet, endpoint: endpoint, accept: headers.ContentTypeJSON}

	resp, cancel, err := c.do(ctx, serverURL, token, r)
	if err != nil {
		return transportFailure(op, err)
	}
	defer cancel()
	defer resp.Body.Close()

	result := c.resultFromResponse(op, resp, http.StatusOK)
	if !result.Success {
		return result
	}

	if err := response.DecodeSuccessResponse(resp, out, c.log); err != nil {
		return failure(resp.StatusCode, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: "undecodable response: " + err.Error()})
	}
	return result
}
