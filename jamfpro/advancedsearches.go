// jamfpro/advancedsearches.go
package jamfpro

import (
	"context"
	"fmt"
)

// AdvancedComputerSearch is a saved search with its current results. Each computer is a
// map of display field to value; the classic API writes field names with underscores.
type AdvancedComputerSearch struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	DisplayFields []DisplayField   `json:"display_fields"`
	Computers     []map[string]any `json:"computers"`
}

// DisplayField names a column of an advanced search.
type DisplayField struct {
	Name string `json:"name"`
}

type responseAdvancedComputerSearch struct {
	AdvancedComputerSearch AdvancedComputerSearch `json:"advanced_computer_search"`
}

// GetAdvancedSearch fetches an advanced computer search and its results.
func (c *Client) GetAdvancedSearch(ctx context.Context, serverURL, token string, searchID int) (*AdvancedComputerSearch, OperationResult) {
	var out responseAdvancedComputerSearch
	result := c.getJSON(ctx, serverURL, token, "advanced search", fmt.Sprintf(AdvancedComputerSearchEndpoint, searchID), &out)
	if !result.Success {
		return nil, result
	}
	return &out.AdvancedComputerSearch, result
}
