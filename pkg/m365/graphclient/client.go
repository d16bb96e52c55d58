// Package graphclient wraps the Microsoft Graph SDK behind the audit
// runner's ServiceSource and principal-lookup seams. Everything that
// talks to a live tenant lives here; the core packages never see the
// SDK types directly.
package graphclient

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
)

var graphScopes = []string{"https://graph.microsoft.com/.default"}

// Client is an authenticated Graph client with the tenant details it
// verified at construction time.
type Client struct {
	graph      *msgraphsdk.GraphServiceClient
	TenantID   string
	TenantName string
}

// NewClient authenticates with DefaultAzureCredential, which resolves
// environment variables, managed identity, and az login in that order.
func NewClient(ctx context.Context) (*Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get Azure credentials: %w", err)
	}
	return NewClientWithCredential(ctx, cred)
}

// NewClientWithCredential builds a Graph client from any token
// credential and verifies it against the organization endpoint.
func NewClientWithCredential(ctx context.Context, cred azcore.TokenCredential) (*Client, error) {
	graph, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, graphScopes)
	if err != nil {
		return nil, fmt.Errorf("failed to create Graph client: %w", err)
	}

	c := &Client{graph: graph}

	// Test authentication by getting tenant info
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	org, err := graph.Organization().Get(testCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate to Graph API: %w", err)
	}
	if values := org.GetValue(); len(values) > 0 {
		c.TenantID = stringValue(values[0].GetId())
		c.TenantName = stringValue(values[0].GetDisplayName())
	}

	return c, nil
}

// Helper functions
func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int32Ptr(i int32) *int32 {
	return &i
}
