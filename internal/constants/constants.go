// Package constants provides a centralized location for the tunables and
// magic numbers used throughout broombot.
package constants

import "time"

// Rate limiting constants
const (
	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100

	// SecondaryRateLimitMaxSleep caps a single wait on GitHub's secondary
	// rate limit before the request fails.
	SecondaryRateLimitMaxSleep = 15 * time.Minute
)

// GitHub API paging
const (
	// PageSize is the page size for REST list calls.
	PageSize = 100
)

// Work item tracker constants
const (
	// AzureDevOpsBaseURL is the root of the Azure DevOps REST API.
	AzureDevOpsBaseURL = "https://dev.azure.com"

	// AzureWorkItemAPIVersion is the api-version used to create work items.
	AzureWorkItemAPIVersion = "6.1-preview.3"

	// TrackerTimeout bounds a single work item creation request.
	TrackerTimeout = 30 * time.Second
)

// Report constants
const (
	// TitleColumnWidth is the display width of the title column.
	TitleColumnWidth = 48
)
