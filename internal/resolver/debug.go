package resolver

import (
	"context"
)

// enumerate logs what the subscription and the target expose. Every step
// is independent and failures are only logged.
func (r *Resolver) enumerate(ctx context.Context, resourceID, filter string) {
	log := r.log.WithName("debug")

	groups, err := r.client.ListResourceGroups(ctx)
	if err != nil {
		log.Error(err, "failed to list resource groups")
	} else {
		for _, g := range groups {
			log.V(1).Info("resource group", "name", g.Name, "location", g.Location)
		}
	}

	vms, err := r.client.ListVirtualMachines(ctx)
	if err != nil {
		log.Error(err, "failed to list virtual machines")
	} else {
		for _, vm := range vms {
			log.V(1).Info("virtual machine", "name", vm.Name, "location", vm.Location)
		}
	}

	defs, err := r.client.ListMetricDefinitions(ctx, resourceID)
	if err != nil {
		log.Error(err, "failed to list metric definitions", "resource", resourceID)
	} else {
		for _, d := range defs {
			log.V(1).Info("metric definition",
				"name", d.Name.Value,
				"unit", d.Unit,
				"primaryAggregation", d.PrimaryAggregationType,
				"aggregations", d.SupportedAggregationTypes)
		}
	}

	pager := r.client.NewMetricsPager(resourceID, filter)
	for {
		m, ok, err := pager.Next(ctx)
		if err != nil {
			log.Error(err, "failed to read raw series", "resource", resourceID)
			return
		}
		if !ok {
			return
		}
		for _, p := range m.Points() {
			log.V(1).Info("raw data point",
				"metric", m.Name.Value,
				"timeStamp", p.TimeStamp,
				"average", p.Average,
				"total", p.Total,
				"maximum", p.Maximum,
				"minimum", p.Minimum)
		}
	}
}
