package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// ServicePrincipal identifies an Azure AD application and its secret.
type ServicePrincipal struct {
	TenantID string
	ClientID string
	Secret   string

	// AuthorityHost overrides the Azure AD login endpoint for sovereign
	// clouds. Empty means the public cloud.
	AuthorityHost string
}

// NewCredential returns a client-secret credential for sp.
func NewCredential(sp ServicePrincipal) (*azidentity.ClientSecretCredential, error) {
	opts := &azidentity.ClientSecretCredentialOptions{}
	if sp.AuthorityHost != "" {
		opts.ClientOptions = azcore.ClientOptions{
			Cloud: cloud.Configuration{ActiveDirectoryAuthorityHost: sp.AuthorityHost},
		}
	}

	cred, err := azidentity.NewClientSecretCredential(sp.TenantID, sp.ClientID, sp.Secret, opts)
	if err != nil {
		return nil, fmt.Errorf("azure: invalid service principal: %w", err)
	}
	return cred, nil
}
