// Package catalogtest provides a small staffing catalog for tests.
//
// Layout:
//
//	page-roi (critical)
//	  sect-roi-analysis (financial)
//	    fld-total-revenue (sensitive)
//	    fld-profit-margin (sensitive)
//	  sect-roi-estimates (financial)
//	    fld-equipment-cost
//	page-sales
//	  sect-sales-opportunities
//	    fld-deal-value
//	    fld-client-contact (sensitive)
//	page-crew
//	  sect-crew-scheduling
//	    fld-crew-hours
//	    fld-hourly-rate (sensitive)
package catalogtest

import "github.com/xraph/tierguard/catalog"

// Entity ids of the sample catalog.
const (
	PageROI   = "page-roi"
	PageSales = "page-sales"
	PageCrew  = "page-crew"

	SectionROIAnalysis  = "sect-roi-analysis"
	SectionROIEstimates = "sect-roi-estimates"
	SectionSalesOpps    = "sect-sales-opportunities"
	SectionCrewSchedule = "sect-crew-scheduling"

	FieldTotalRevenue  = "fld-total-revenue"
	FieldProfitMargin  = "fld-profit-margin"
	FieldEquipmentCost = "fld-equipment-cost"
	FieldDealValue     = "fld-deal-value"
	FieldClientContact = "fld-client-contact"
	FieldCrewHours     = "fld-crew-hours"
	FieldHourlyRate    = "fld-hourly-rate"
)

// Seed returns a fresh copy of the sample catalog entities.
func Seed() *catalog.Seed {
	return &catalog.Seed{
		Pages: []*catalog.Page{
			{ID: PageROI, PageName: "roi", DisplayName: "ROI Management", Section: "Financial", IsCritical: true, RoutePath: "/roi", SortOrder: 1, IsActive: true},
			{ID: PageSales, PageName: "sales", DisplayName: "Sales Pipeline", Section: "Sales", RoutePath: "/sales", SortOrder: 2, IsActive: true},
			{ID: PageCrew, PageName: "crew", DisplayName: "Crew Management", Section: "Operations", RoutePath: "/crew", SortOrder: 3, IsActive: true},
		},
		Sections: []*catalog.Section{
			{ID: SectionROIAnalysis, PageID: PageROI, SectionName: "analysis", DisplayName: "Financial Analysis", IsFinancial: true, RequiresApproval: true, SortOrder: 1, IsActive: true},
			{ID: SectionROIEstimates, PageID: PageROI, SectionName: "estimates", DisplayName: "Cost Estimates", IsFinancial: true, SortOrder: 2, IsActive: true},
			{ID: SectionSalesOpps, PageID: PageSales, SectionName: "opportunities", DisplayName: "Sales Opportunities", SortOrder: 1, IsActive: true},
			{ID: SectionCrewSchedule, PageID: PageCrew, SectionName: "scheduling", DisplayName: "Crew Scheduling", RequiresApproval: true, SortOrder: 1, IsActive: true},
		},
		Fields: []*catalog.Field{
			{ID: FieldTotalRevenue, SectionID: SectionROIAnalysis, FieldName: "total_revenue", DisplayName: "Total Revenue", FieldType: catalog.FieldCurrency, IsSensitive: true, IsRequired: true, SortOrder: 1},
			{ID: FieldProfitMargin, SectionID: SectionROIAnalysis, FieldName: "profit_margin", DisplayName: "Profit Margin", FieldType: catalog.FieldPercentage, IsSensitive: true, IsRequired: true, SortOrder: 2},
			{ID: FieldEquipmentCost, SectionID: SectionROIEstimates, FieldName: "equipment_cost", DisplayName: "Equipment Cost", FieldType: catalog.FieldCurrency, IsRequired: true, SortOrder: 1},
			{ID: FieldDealValue, SectionID: SectionSalesOpps, FieldName: "deal_value", DisplayName: "Deal Value", FieldType: catalog.FieldCurrency, IsRequired: true, SortOrder: 1},
			{ID: FieldClientContact, SectionID: SectionSalesOpps, FieldName: "client_contact", DisplayName: "Client Contact", FieldType: catalog.FieldText, IsSensitive: true, IsRequired: true, SortOrder: 2},
			{ID: FieldCrewHours, SectionID: SectionCrewSchedule, FieldName: "crew_hours", DisplayName: "Crew Hours", FieldType: catalog.FieldNumber, IsRequired: true, SortOrder: 1},
			{ID: FieldHourlyRate, SectionID: SectionCrewSchedule, FieldName: "hourly_rate", DisplayName: "Hourly Rate", FieldType: catalog.FieldCurrency, IsSensitive: true, IsRequired: true, SortOrder: 2},
		},
	}
}

// Catalog returns the sample catalog.
func Catalog() *catalog.Catalog {
	c, err := Seed().Catalog()
	if err != nil {
		panic(err)
	}
	return c
}
