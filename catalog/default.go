package catalog

import "github.com/propstat-org/propstat/engine"

// Canonical observation column names. Sources that use different headers
// are mapped onto these before analysis.
const (
	ColDate      = "deal_date"
	ColArea      = "area"
	ColPrice     = "price"
	ColAvgPrice  = "avg_price"
	ColSupplyFlg = "supply_sets"
	ColDealFlg   = "deal_sets"
)

const (
	areaDim  = "area_range"
	priceDim = "price_range"
)

// areaRule bins floor area into 20m² segments.
func areaRule() engine.BinningRule {
	return engine.BinningRule{
		SourceCol: ColArea,
		TargetCol: areaDim,
		Method:    engine.MethodRange,
		Step:      20,
		Format:    "{}-{}m²",
	}
}

// priceRule bins total price into 1M segments. Prices are stored in
// ten-thousands, so the step carries a 100x scale that stays out of the
// printed labels.
func priceRule() engine.BinningRule {
	return engine.BinningRule{
		SourceCol: ColPrice,
		TargetCol: priceDim,
		Method:    engine.MethodRange,
		Step:      1,
		UnitScale: 100,
		Format:    "{}-{}M",
	}
}

func periodRule(granularity string) engine.BinningRule {
	target := "year"
	if granularity == engine.GranMonth {
		target = "month"
	}
	return engine.BinningRule{
		SourceCol:   ColDate,
		TargetCol:   target,
		Method:      engine.MethodPeriod,
		Granularity: granularity,
	}
}

func countOf(name, flagCol string) engine.MetricRule {
	return engine.MetricRule{
		Name:      name,
		SourceCol: ColArea,
		Agg:       engine.AggCount,
		Filter:    map[string]float64{flagCol: 1},
	}
}

// Default returns the built-in analysis catalog covering the standard
// report sections.
func Default() *Catalog {
	c, err := New([]Entry{
		{
			Key:   "supply_deal_unit_stats",
			Title: "Supply and Transaction Units by Area Segment",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{areaRule()},
				Metrics: []engine.MetricRule{
					countOf("supply", ColSupplyFlg),
					countOf("deal", ColDealFlg),
				},
				Transpose: true,
			},
			Conclusion: engine.ConcludeSegmentSplit,
			Threshold:  140,
			Columns:    []string{"Area Segment", "Supply Units", "Transaction Units"},
		},
		{
			Key:   "area_price_crosstab",
			Title: "Transaction Units by Area and Price Segment",
			Config: engine.AnalysisConfig{
				TableType:   engine.TableCrosstab,
				Dimensions:  []engine.BinningRule{priceRule(), areaRule()},
				Metrics:     []engine.MetricRule{countOf("deal", ColDealFlg)},
				CrosstabRow: priceDim,
				CrosstabCol: areaDim,
				Margins:     true,
			},
			Conclusion: engine.ConcludeCrosstabPeak,
		},
		{
			Key:   "area_segment_distribution",
			Title: "Transaction Units by Area Segment",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{areaRule()},
				Metrics:    []engine.MetricRule{countOf("deal", ColDealFlg)},
			},
			Conclusion: engine.ConcludeDominantSegment,
			Columns:    []string{"Area Segment", "Transaction Units"},
		},
		{
			Key:   "price_segment_distribution",
			Title: "Transaction Units by Price Segment",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{priceRule()},
				Metrics:    []engine.MetricRule{countOf("deal", ColDealFlg)},
			},
			Conclusion: engine.ConcludeDominantSegment,
			Columns:    []string{"Price Segment", "Transaction Units"},
		},
		{
			Key:   "annual_supply_deal_flow",
			Title: "Annual Supply and Transaction Flow",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{periodRule(engine.GranYear)},
				Metrics: []engine.MetricRule{
					countOf("supply", ColSupplyFlg),
					countOf("deal", ColDealFlg),
				},
			},
			Conclusion: engine.ConcludeFlowTrend,
			Columns:    []string{"Year", "Supply Units", "Transaction Units"},
		},
		{
			Key:   "annual_delivery_volume",
			Title: "Annual Transaction Volume",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{periodRule(engine.GranYear)},
				Metrics:    []engine.MetricRule{countOf("deal", ColDealFlg)},
			},
			Conclusion: engine.ConcludeVolumeTrend,
			Columns:    []string{"Year", "Transaction Units"},
		},
		{
			Key:   "monthly_delivery_volume",
			Title: "Monthly Transaction Volume",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{periodRule(engine.GranMonth)},
				Metrics:    []engine.MetricRule{countOf("deal", ColDealFlg)},
			},
			Conclusion: engine.ConcludeVolumeTrendBrief,
			Columns:    []string{"Month", "Transaction Units"},
		},
		{
			Key:   "annual_price_trend",
			Title: "Annual Average Price",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{periodRule(engine.GranYear)},
				Metrics: []engine.MetricRule{{
					Name:      "avg_price",
					SourceCol: ColAvgPrice,
					Agg:       engine.AggMean,
					Filter:    map[string]float64{ColDealFlg: 1},
				}},
			},
			Conclusion: engine.ConcludePriceTrend,
			Columns:    []string{"Year", "Average Price"},
		},
		{
			Key:   "monthly_price_trend",
			Title: "Monthly Average Price",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{periodRule(engine.GranMonth)},
				Metrics: []engine.MetricRule{{
					Name:      "avg_price",
					SourceCol: ColAvgPrice,
					Agg:       engine.AggMean,
					Filter:    map[string]float64{ColDealFlg: 1},
				}},
			},
			Conclusion: engine.ConcludeMonthlyPriceTrend,
			Columns:    []string{"Month", "Average Price"},
		},
		{
			Key:   "historical_capacity_summary",
			Title: "Annual Average Area and Price",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{periodRule(engine.GranYear)},
				Metrics: []engine.MetricRule{
					{
						Name:      engine.CapacityAreaCol,
						SourceCol: ColArea,
						Agg:       engine.AggMean,
						Filter:    map[string]float64{ColDealFlg: 1},
					},
					{
						Name:      engine.CapacityPriceCol,
						SourceCol: ColAvgPrice,
						Agg:       engine.AggMean,
						Filter:    map[string]float64{ColDealFlg: 1},
					},
				},
			},
			Conclusion: engine.ConcludeCapacityTrend,
			Columns:    []string{"Year", "Avg Area", "Avg Price"},
		},
		{
			Key:   "annual_area_flow",
			Title: "Annual Average Area, Supply vs Transaction",
			Config: engine.AnalysisConfig{
				TableType:  engine.TableStandard,
				Dimensions: []engine.BinningRule{periodRule(engine.GranYear)},
				Metrics: []engine.MetricRule{
					{
						Name:      "supply_area",
						SourceCol: ColArea,
						Agg:       engine.AggMean,
						Filter:    map[string]float64{ColSupplyFlg: 1},
					},
					{
						Name:      "deal_area",
						SourceCol: ColArea,
						Agg:       engine.AggMean,
						Filter:    map[string]float64{ColDealFlg: 1},
					},
				},
			},
			Conclusion: engine.ConcludeAreaFlowTrend,
			Columns:    []string{"Year", "Avg Supply Area", "Avg Transaction Area"},
		},
	})
	if err != nil {
		// The built-in entries are validated by tests; an error here is
		// a programming mistake.
		panic(err)
	}
	return c
}
