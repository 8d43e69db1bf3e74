package azure

import "context"

// ResourceGroup is an entry of the subscription's resource group list.
type ResourceGroup struct {
	ID       string
	Name     string
	Location string
}

// VirtualMachine is an entry of the subscription's virtual machine list.
type VirtualMachine struct {
	ID       string
	Name     string
	Location string
}

// ProviderRegistration is the state of a resource provider namespace.
type ProviderRegistration struct {
	Namespace         string
	RegistrationState string
}

// ListResourceGroups returns every resource group in the subscription.
func (c *Client) ListResourceGroups(ctx context.Context) ([]ResourceGroup, error) {
	var groups []ResourceGroup
	pager := c.groups.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, wrapError(err)
		}
		for _, g := range page.Value {
			if g == nil {
				continue
			}
			groups = append(groups, ResourceGroup{
				ID:       deref(g.ID),
				Name:     deref(g.Name),
				Location: deref(g.Location),
			})
		}
	}
	return groups, nil
}

// ListVirtualMachines returns every virtual machine in the subscription.
func (c *Client) ListVirtualMachines(ctx context.Context) ([]VirtualMachine, error) {
	var vms []VirtualMachine
	pager := c.vms.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, wrapError(err)
		}
		for _, vm := range page.Value {
			if vm == nil {
				continue
			}
			vms = append(vms, VirtualMachine{
				ID:       deref(vm.ID),
				Name:     deref(vm.Name),
				Location: deref(vm.Location),
			})
		}
	}
	return vms, nil
}

// RegisterProvider registers a resource provider namespace (for example
// "Microsoft.Insights") with the subscription. Registering an already
// registered namespace is a no-op on the Azure side.
func (c *Client) RegisterProvider(ctx context.Context, namespace string) (*ProviderRegistration, error) {
	resp, err := c.providers.Register(ctx, namespace, nil)
	if err != nil {
		return nil, wrapError(err)
	}
	return &ProviderRegistration{
		Namespace:         deref(resp.Namespace),
		RegistrationState: deref(resp.RegistrationState),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
