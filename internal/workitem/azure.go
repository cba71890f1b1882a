// Package workitem implements the trackers that keyword triggers file work
// items in.
package workitem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/spiffcs/broombot/internal/broom"
	"github.com/spiffcs/broombot/internal/constants"
	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/model"
)

// Ensure AzureBoards implements the broom Tracker interface.
var _ broom.Tracker = (*AzureBoards)(nil)

const jsonPatchContentType = "application/json-patch+json"

// AzureBoards creates work items in an Azure DevOps project.
type AzureBoards struct {
	httpClient *http.Client
	baseURL    string
	org        string
	project    string
	itemType   string
	token      string
	limiter    *rate.Limiter
}

// AzureOptions configures an AzureBoards tracker.
type AzureOptions struct {
	Organization string
	Project      string
	// WorkItemType is the type created, e.g. Task or Bug.
	WorkItemType string
	// Token is a personal access token with work item write scope.
	Token string
	// RequestsPerSecond paces creation requests.
	RequestsPerSecond float64

	// BaseURL and HTTPClient override the service endpoint, for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// NewAzureBoards creates an Azure Boards tracker.
func NewAzureBoards(opts AzureOptions) (*AzureBoards, error) {
	if opts.Organization == "" || opts.Project == "" {
		return nil, fmt.Errorf("azure boards requires an organization and a project")
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("azure boards token not provided. Set the AZURE_DEVOPS_TOKEN environment variable")
	}

	a := &AzureBoards{
		httpClient: opts.HTTPClient,
		baseURL:    opts.BaseURL,
		org:        opts.Organization,
		project:    opts.Project,
		itemType:   opts.WorkItemType,
		token:      opts.Token,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: constants.TrackerTimeout}
	}
	if a.baseURL == "" {
		a.baseURL = constants.AzureDevOpsBaseURL
	}
	if a.itemType == "" {
		a.itemType = "Task"
	}
	if opts.RequestsPerSecond <= 0 {
		a.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return a, nil
}

type patchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

type workItemResponse struct {
	ID    int `json:"id"`
	Links struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"_links"`
}

// endpoint returns the work item creation URL. The type segment is
// prefixed with a literal '$'.
func (a *AzureBoards) endpoint() string {
	return fmt.Sprintf("%s/%s/%s/_apis/wit/workitems/$%s?api-version=%s",
		a.baseURL,
		url.PathEscape(a.org),
		url.PathEscape(a.project),
		url.PathEscape(a.itemType),
		constants.AzureWorkItemAPIVersion,
	)
}

// CreateWorkItem creates a work item titled title.
func (a *AzureBoards) CreateWorkItem(ctx context.Context, title string) (model.WorkItem, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return model.WorkItem{}, fmt.Errorf("failed waiting to create work item: %w", err)
	}

	body, err := json.Marshal([]patchOperation{
		{Op: "add", Path: "/fields/System.Title", Value: title},
	})
	if err != nil {
		return model.WorkItem{}, fmt.Errorf("failed to encode work item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(body))
	if err != nil {
		return model.WorkItem{}, fmt.Errorf("failed to build work item request: %w", err)
	}
	req.Header.Set("Content-Type", jsonPatchContentType)
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth("", a.token)

	log.Trace("azure boards request", "method", req.Method, "url", req.URL.Path)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return model.WorkItem{}, fmt.Errorf("failed to create work item: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.WorkItem{}, fmt.Errorf("failed to read work item response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.WorkItem{}, fmt.Errorf("failed to create work item: %s: %s", resp.Status, bytes.TrimSpace(data))
	}

	var created workItemResponse
	if err := json.Unmarshal(data, &created); err != nil {
		return model.WorkItem{}, fmt.Errorf("failed to decode work item response: %w", err)
	}

	return model.WorkItem{
		ID:    strconv.Itoa(created.ID),
		Title: title,
		URL:   created.Links.HTML.Href,
	}, nil
}
