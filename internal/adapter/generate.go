package adapter

import (
	"fmt"

	"github.com/blackwell-systems/insightwatch/internal/insight"
)

// Generate dispatches a dataset to the adapter of its domain. The only
// error is an unknown domain; malformed records just yield fewer insights.
func Generate(ds Dataset, opts ...insight.EngineOption) ([]insight.Insight, error) {
	switch ds.Domain {
	case DomainClients:
		return GenerateClientsInsights(clientsInput(ds), opts...), nil
	case DomainRealEstate:
		return GenerateRealEstateInsights(clientsInput(ds), opts...), nil
	case DomainMaterials:
		return GenerateMaterialsInsights(entriesInput(ds), opts...), nil
	case DomainGeneralCosts:
		return GenerateGeneralCostsInsights(entriesInput(ds), opts...), nil
	case DomainFinance:
		return GenerateFinanceInsights(entriesInput(ds), opts...), nil
	case DomainAdmin:
		in := AdminInput{Limit: ds.Limit}
		if ds.KPIs != nil {
			in.KPIs = *ds.KPIs
		}
		return GenerateAdminInsights(in, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, ds.Domain)
	}
}

func clientsInput(ds Dataset) ClientsInput {
	return ClientsInput{
		Payments:   ds.Entries,
		Clients:    ds.Clients,
		Window:     ds.Window,
		Now:        ds.Now,
		Thresholds: ds.Thresholds,
		Limit:      ds.Limit,
	}
}

func entriesInput(ds Dataset) EntriesInput {
	return EntriesInput{
		Entries:    ds.Entries,
		Window:     ds.Window,
		Now:        ds.Now,
		Thresholds: ds.Thresholds,
		Limit:      ds.Limit,
	}
}
