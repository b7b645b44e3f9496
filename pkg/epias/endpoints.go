// Package epias describes the EPİAŞ transparency platform wire format:
// endpoint catalog, request descriptors and response envelopes.
package epias

import (
	"net/http"
	"strings"
)

// DefaultBaseURL is the production electricity-service root.
const DefaultBaseURL = "https://seffaflik.epias.com.tr/electricity-service/v1"

// Endpoint is a data endpoint path relative to the base URL.
type Endpoint string

// Dashboard
const (
	DashboardBPM           Endpoint = "/dashboard/balancing-power-market"
	DashboardDAM           Endpoint = "/dashboard/day-ahead-market"
	DashboardIDM           Endpoint = "/dashboard/intra-day-market"
	DashboardMMS           Endpoint = "/dashboard/market-message-system"
	DashboardConsumption   Endpoint = "/dashboard/realtime-consumption"
	DashboardGeneration    Endpoint = "/dashboard/realtime-generation"
	DashboardWeightedPrice Endpoint = "/dashboard/weighted-average-price"
)

// Generation
const (
	GenerationAIC            Endpoint = "/generation/data/aic"
	GenerationDPP            Endpoint = "/generation/data/dpp" // KGÜP
	GenerationInjection      Endpoint = "/generation/data/injection-quantity"
	GenerationRealtime       Endpoint = "/generation/data/realtime-generation"
	GenerationOrgList        Endpoint = "/generation/data/organization-list"
	GenerationPowerPlantList Endpoint = "/generation/data/powerplant-list"
	GenerationRegionList     Endpoint = "/generation/data/region-list"
	GenerationUEVCBList      Endpoint = "/generation/data/uevcb-list"
)

// Bilateral contracts
const (
	BilateralContractsAmount Endpoint = "/markets/bilateral-contracts/data/amount-of-bilateral-contracts"
	BilateralContractsBid    Endpoint = "/markets/bilateral-contracts/data/bilateral-contracts-bid-quantity"
	BilateralContractsOffer  Endpoint = "/markets/bilateral-contracts/data/bilateral-contracts-offer-quantity"
)

// Balancing power market
const (
	BPMOrderSummaryUp      Endpoint = "/markets/bpm/data/order-summary-up"
	BPMOrderSummaryDown    Endpoint = "/markets/bpm/data/order-summary-down"
	BPMSystemDirection     Endpoint = "/markets/bpm/data/system-direction"
	BPMSystemMarginalPrice Endpoint = "/markets/bpm/data/system-marginal-price" // SMF
)

// Day-ahead market
const (
	DAMBlockBid         Endpoint = "/markets/dam/data/amount-of-block-buying"
	DAMBlockOffer       Endpoint = "/markets/dam/data/amount-of-block-selling"
	DAMClearingQuantity Endpoint = "/markets/dam/data/clearing-quantity"
	DAMClearingOrgList  Endpoint = "/markets/dam/data/clearing-quantity-organization-list"
	DAMTradeVolume      Endpoint = "/markets/dam/data/day-ahead-market-trade-volume"
	DAMFlexibleBid      Endpoint = "/markets/dam/data/flexible-offer-buying-quantity"
	DAMFlexibleOffer    Endpoint = "/markets/dam/data/flexible-offer-selling-quantity"
	DAMInterimMCP       Endpoint = "/markets/dam/data/interim-mcp"
	DAMMCP              Endpoint = "/markets/dam/data/mcp" // PTF
	DAMSubmittedBid     Endpoint = "/markets/dam/data/submitted-bid-order-volume"
	DAMSubmittedOffer   Endpoint = "/markets/dam/data/submitted-sales-order-volume"
	DAMSupplyDemand     Endpoint = "/markets/dam/data/supply-demand"
)

// Intraday market
const (
	IDMBidOffer         Endpoint = "/markets/idm/data/bid-offer-quantities"
	IDMMatchingQuantity Endpoint = "/markets/idm/data/matching-quantity"
	IDMMinMaxBid        Endpoint = "/markets/idm/data/min-max-bid-price"
	IDMMinMaxMatch      Endpoint = "/markets/idm/data/min-max-matching-price"
	IDMMinMaxOffer      Endpoint = "/markets/idm/data/min-max-offer-price"
	IDMTradeVolume      Endpoint = "/markets/idm/data/intraday-trade-volume"
	IDMWeightedAverage  Endpoint = "/markets/idm/data/weighted-average-price"
)

// Consumption
const (
	ConsumptionQuantity                 Endpoint = "/consumption/data/consumption-quantity"
	ConsumptionConsumerQuantity         Endpoint = "/consumption/data/consumer-quantity"
	ConsumptionDemandForecast           Endpoint = "/consumption/data/demand-forecast"
	ConsumptionDistributionRegion       Endpoint = "/consumption/data/distribution-region"
	ConsumptionEligibleConsumerCount    Endpoint = "/consumption/data/eligible-consumer-count"
	ConsumptionEligibleConsumerQuantity Endpoint = "/consumption/data/eligible-consumer-quantity"
	ConsumptionLoadEstimationPlan       Endpoint = "/consumption/data/load-estimation-plan"
	ConsumptionRealtime                 Endpoint = "/consumption/data/realtime-consumption"
	ConsumptionWithdrawalQuantity       Endpoint = "/consumption/data/st-uecm"
)

// Main reference data
const (
	MainDateInit     Endpoint = "/main/date-init"
	MainProvinceList Endpoint = "/main/province-list"
	MainDistrictList Endpoint = "/main/district-list"
)

// Ancillary services and imbalance
const (
	AncillaryPrimaryCapacityAmount   Endpoint = "/markets/ancillary-services/data/primary-frequency-capacity-amount"
	AncillaryPrimaryCapacityPrice    Endpoint = "/markets/ancillary-services/data/primary-frequency-capacity-price"
	AncillarySecondaryCapacityAmount Endpoint = "/markets/ancillary-services/data/secondary-frequency-capacity-amount"
	AncillarySecondaryCapacityPrice  Endpoint = "/markets/ancillary-services/data/secondary-frequency-capacity-price"
	ImbalanceQuantity                Endpoint = "/markets/imbalance/data/imbalance-quantity"
	ImbalanceAmount                  Endpoint = "/markets/imbalance/data/imbalance-amount"
)

// getEndpoints are list/reference endpoints served over GET. Everything else is POST.
var getEndpoints = map[Endpoint]bool{
	DashboardBPM:                  true,
	DashboardDAM:                  true,
	DashboardIDM:                  true,
	DashboardMMS:                  true,
	DashboardConsumption:          true,
	DashboardGeneration:           true,
	DashboardWeightedPrice:        true,
	GenerationPowerPlantList:      true,
	GenerationRegionList:          true,
	ConsumptionDistributionRegion: true,
	MainDateInit:                  true,
	MainProvinceList:              true,
}

// Method returns the HTTP method the endpoint expects.
func (e Endpoint) Method() string {
	if getEndpoints[e] {
		return http.MethodGet
	}
	return http.MethodPost
}

// ExportPath returns the export variant of a data endpoint.
func (e Endpoint) ExportPath() string {
	return strings.Replace(string(e), "/data/", "/export/", 1)
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return string(e)
}
