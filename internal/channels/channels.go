// Package channels models the causal pathways through which macro events
// transmit to tradeable assets. Six families: commodity supply,
// currency/FX, rates/liquidity, risk sentiment, sanctions/controls, and
// inflation. The catalogue is immutable after init.
package channels

import (
	"sort"
	"strings"
)

// Horizon is the expected time frame for a channel's effects.
type Horizon string

const (
	HorizonImmediate  Horizon = "immediate"   // 1-5 days
	HorizonShortTerm  Horizon = "short_term"  // 2-8 weeks
	HorizonMediumTerm Horizon = "medium_term" // 2-6 months
	HorizonLongTerm   Horizon = "long_term"   // 6+ months
)

// Channel type identifiers.
const (
	OilSupplyDisruption = "oil_supply_disruption"
	OilDemandShock      = "oil_demand_shock"
	NaturalGasSupply    = "natural_gas_supply"
	MetalsSupply        = "metals_supply"
	AgriculturalSupply  = "agricultural_supply"

	DollarStrength   = "dollar_strength"
	DollarWeakness   = "dollar_weakness"
	EMCurrencyStress = "em_currency_stress"
	CarryTradeUnwind = "carry_trade_unwind"
	YuanDevaluation  = "yuan_devaluation"

	FedHawkish          = "fed_hawkish"
	FedDovish           = "fed_dovish"
	YieldCurveInversion = "yield_curve_inversion"
	CreditTightening    = "credit_tightening"
	LiquidityCrisis     = "liquidity_crisis"

	RiskOffFlight = "risk_off_flight"
	RiskOnRally   = "risk_on_rally"
	VIXSpike      = "vix_spike"

	TradeSanctions     = "trade_sanctions"
	CapitalControls    = "capital_controls"
	ExportRestrictions = "export_restrictions"

	InflationSpike = "inflation_spike"
	DeflationRisk  = "deflation_risk"
	WagePressure   = "wage_pressure"
)

// Channel is one macro-to-asset transmission pathway.
type Channel struct {
	Type             string
	Name             string
	Description      string
	PrimaryAssets    []string
	SecondaryAssets  []string
	SearchQueries    []string
	TypicalMagnitude string
	Horizon          Horizon
	Keywords         []string
}

// AllAssets returns primary then secondary assets.
func (c Channel) AllAssets() []string {
	assets := make([]string, 0, len(c.PrimaryAssets)+len(c.SecondaryAssets))
	assets = append(assets, c.PrimaryAssets...)
	assets = append(assets, c.SecondaryAssets...)
	return assets
}

// All is the full channel catalogue, grouped by family.
var All = []Channel{
	// Commodity supply
	{
		Type: OilSupplyDisruption,
		Name: "Oil Supply Disruption",
		Description: "Physical supply disruption from production outages, pipeline issues, " +
			"OPEC cuts, or geopolitical events affecting oil-producing regions.",
		PrimaryAssets:   []string{"CL=F", "BZ=F", "USO", "XLE"},
		SecondaryAssets: []string{"OXY", "CVX", "XOM", "SLB", "HAL", "DVN", "PXD"},
		SearchQueries: []string{
			"oil stocks affected by supply disruption",
			"oil E&P companies Middle East exposure",
			"oil tanker stocks sanctions",
			"refinery stocks supply shortage",
		},
		TypicalMagnitude: "$5-20/barrel move; 10-30% in E&P stocks",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"oil", "crude", "opec", "pipeline", "production cut", "supply disruption"},
	},
	{
		Type: OilDemandShock,
		Name: "Oil Demand Shock",
		Description: "Demand-driven oil price move from economic slowdown, lockdowns, " +
			"or sudden demand recovery. Affects refining margins differently than supply.",
		PrimaryAssets:   []string{"CL=F", "BZ=F", "XLE", "VDE"},
		SecondaryAssets: []string{"PSX", "VLO", "MPC", "DAL", "UAL", "LUV"},
		SearchQueries: []string{
			"airline stocks oil price correlation",
			"refinery stocks demand shock",
			"transportation stocks fuel costs",
		},
		TypicalMagnitude: "$10-40/barrel move; airlines move inverse 2-3x oil",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"oil demand", "gasoline demand", "jet fuel", "refining", "lockdown"},
	},
	{
		Type: NaturalGasSupply,
		Name: "Natural Gas Supply",
		Description: "Natural gas supply disruption from pipeline issues, LNG terminal problems, " +
			"or geopolitical events affecting gas-producing/transit regions.",
		PrimaryAssets:   []string{"NG=F", "UNG", "LNG", "GLNG"},
		SecondaryAssets: []string{"EQT", "RRC", "AR", "SWN", "TELL", "NEXT"},
		SearchQueries: []string{
			"natural gas stocks Europe exposure",
			"LNG shipping stocks",
			"gas utility stocks price spike",
		},
		TypicalMagnitude: "20-50% in gas futures; 15-40% in producers",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"natural gas", "lng", "pipeline", "nord stream", "gazprom"},
	},
	{
		Type: MetalsSupply,
		Name: "Metals Supply Disruption",
		Description: "Supply disruption in industrial or precious metals from mine closures, " +
			"export bans, or logistics issues. Includes copper, aluminum, nickel, rare earths.",
		PrimaryAssets:   []string{"HG=F", "GC=F", "SI=F", "COPX", "CPER"},
		SecondaryAssets: []string{"FCX", "SCCO", "TECK", "AA", "NEM", "GOLD", "WPM"},
		SearchQueries: []string{
			"copper mining stocks supply disruption",
			"rare earth stocks China export",
			"nickel stocks Indonesia ban",
			"aluminum stocks sanctions",
		},
		TypicalMagnitude: "10-25% in futures; 15-40% in miners",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"copper", "aluminum", "nickel", "rare earth", "mining", "export ban"},
	},
	{
		Type: AgriculturalSupply,
		Name: "Agricultural Supply Disruption",
		Description: "Supply disruption in agricultural commodities from weather, export bans, " +
			"or conflict affecting major producing regions.",
		PrimaryAssets:   []string{"ZW=F", "ZC=F", "ZS=F", "DBA"},
		SecondaryAssets: []string{"ADM", "BG", "CTVA", "MOS", "NTR", "CF"},
		SearchQueries: []string{
			"grain stocks Ukraine exports",
			"fertilizer stocks sanctions",
			"agricultural stocks drought",
		},
		TypicalMagnitude: "15-40% in grains; 20-50% in fertilizers",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"wheat", "corn", "grain", "fertilizer", "drought", "export ban"},
	},

	// Currency/FX
	{
		Type: DollarStrength,
		Name: "Dollar Strength",
		Description: "Broad dollar appreciation from Fed hawkishness, safe haven flows, or " +
			"relative growth differentials. Headwind for commodities and EM assets.",
		PrimaryAssets:   []string{"UUP", "DX=F", "EURUSD=X"},
		SecondaryAssets: []string{"EEM", "VWO", "GLD", "SLV", "FXE", "FXY"},
		SearchQueries: []string{
			"EM stocks dollar strength exposure",
			"commodity stocks dollar correlation",
			"multinationals dollar headwind",
		},
		TypicalMagnitude: "5-10% DXY move; inverse 0.5-1x in EM/commodities",
		Horizon:          HorizonMediumTerm,
		Keywords:         []string{"dollar", "dxy", "fed", "hawkish", "safe haven", "flight to quality"},
	},
	{
		Type: DollarWeakness,
		Name: "Dollar Weakness",
		Description: "Broad dollar depreciation from Fed dovishness, risk-on sentiment, or " +
			"twin deficit concerns. Tailwind for commodities, EM, and exporters.",
		PrimaryAssets:   []string{"UDN", "DX=F", "GLD", "EEM"},
		SecondaryAssets: []string{"FXE", "FXA", "SLV", "COPX", "VWO"},
		SearchQueries: []string{
			"gold stocks dollar weakness",
			"EM stocks dollar depreciation",
			"commodity exporters weak dollar",
		},
		TypicalMagnitude: "5-10% DXY move; 1-1.5x in gold/commodities",
		Horizon:          HorizonMediumTerm,
		Keywords:         []string{"dollar weak", "fed dovish", "twin deficit", "inflation", "debasement"},
	},
	{
		Type: EMCurrencyStress,
		Name: "EM Currency Stress",
		Description: "Emerging market currency crisis from capital flight, debt concerns, or " +
			"contagion. Often triggers broader EM selloff and safe haven flows.",
		PrimaryAssets:   []string{"EEM", "VWO", "EMB", "EMLC"},
		SecondaryAssets: []string{"TUR", "EWZ", "EWW", "RSX", "EZA", "INDA"},
		SearchQueries: []string{
			"EM stocks currency crisis exposure",
			"frontier market ETFs stress",
			"EM bond funds selloff",
		},
		TypicalMagnitude: "20-40% in affected currencies; 15-30% in equity",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"emerging market", "em currency", "capital flight", "crisis", "contagion"},
	},
	{
		Type: CarryTradeUnwind,
		Name: "Carry Trade Unwind",
		Description: "Rapid unwinding of yen or CHF-funded carry trades. Causes sharp yen " +
			"appreciation and cascading risk-off across global risk assets.",
		PrimaryAssets:   []string{"USDJPY=X", "EWJ", "FXY"},
		SecondaryAssets: []string{"^VIX", "SPY", "QQQ", "EEM", "HYG"},
		SearchQueries: []string{
			"stocks exposed to yen carry trade",
			"risk assets carry trade correlation",
			"Japan stocks yen strength impact",
		},
		TypicalMagnitude: "5-10% yen move in days; 5-15% equity drawdown",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"yen", "carry trade", "boj", "japan", "unwind", "deleveraging"},
	},
	{
		Type: YuanDevaluation,
		Name: "Yuan Devaluation",
		Description: "Chinese yuan devaluation from PBOC policy shift or capital outflows. " +
			"Signals competitive devaluation risk, deflation export, or stress.",
		PrimaryAssets:   []string{"CNH=X", "FXI", "KWEB", "MCHI"},
		SecondaryAssets: []string{"EEM", "ASHR", "GXC", "CQQQ"},
		SearchQueries: []string{
			"China ADR stocks yuan devaluation",
			"Asian stocks competitive devaluation",
			"commodity stocks China demand",
		},
		TypicalMagnitude: "2-5% CNH move; 10-20% in China equities",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"yuan", "cnh", "pboc", "china", "devaluation", "rmb"},
	},

	// Rates/Liquidity
	{
		Type: FedHawkish,
		Name: "Fed Hawkish Shift",
		Description: "Federal Reserve signals more restrictive policy via dot plot, statement, " +
			"or speeches. Reprices rate expectations, strengthens dollar, pressures duration.",
		PrimaryAssets:   []string{"^TNX", "TLT", "IEF", "SHY"},
		SecondaryAssets: []string{"XLF", "KRE", "SPY", "QQQ", "ARKK"},
		SearchQueries: []string{
			"rate-sensitive stocks Fed hawkish",
			"growth stocks rising rates impact",
			"bank stocks higher rates benefit",
		},
		TypicalMagnitude: "10-30bps 10Y move; 5-10% in long duration",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"fed", "fomc", "hawkish", "rate hike", "tightening", "dot plot"},
	},
	{
		Type: FedDovish,
		Name: "Fed Dovish Shift",
		Description: "Federal Reserve signals more accommodative policy. Reprices rate " +
			"expectations, weakens dollar, supports duration and risk assets.",
		PrimaryAssets:   []string{"TLT", "IEF", "GLD", "QQQ"},
		SecondaryAssets: []string{"ARKK", "XLK", "SMH", "EEM", "HYG"},
		SearchQueries: []string{
			"growth stocks Fed dovish benefit",
			"rate-sensitive REITs Fed pivot",
			"gold stocks Fed pause",
		},
		TypicalMagnitude: "10-30bps 10Y move; 5-15% in growth/tech",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"fed", "fomc", "dovish", "rate cut", "pause", "pivot"},
	},
	{
		Type: YieldCurveInversion,
		Name: "Yield Curve Inversion",
		Description: "Inversion of the 2s10s yield curve signaling recession expectations. " +
			"Pressures bank NIMs, signals growth concerns, historically leads recessions.",
		PrimaryAssets:   []string{"^TNX", "TLT", "XLF", "KRE"},
		SecondaryAssets: []string{"SPY", "XLY", "XLI", "HYG"},
		SearchQueries: []string{
			"bank stocks inverted yield curve",
			"recession stocks historical performance",
			"defensive stocks curve inversion",
		},
		TypicalMagnitude: "Banks -10-20%; defensive rotation",
		Horizon:          HorizonMediumTerm,
		Keywords:         []string{"yield curve", "inversion", "2s10s", "recession", "curve"},
	},
	{
		Type: CreditTightening,
		Name: "Credit Tightening",
		Description: "Widening credit spreads from bank stress, defaults, or risk aversion. " +
			"HY and leveraged loans lead equities. Watch HY spread vs VIX divergences.",
		PrimaryAssets:   []string{"HYG", "JNK", "LQD", "BKLN"},
		SecondaryAssets: []string{"XLF", "KRE", "SPY", "IWM"},
		SearchQueries: []string{
			"high yield stocks credit spread",
			"leveraged loan exposure stocks",
			"bank stocks credit tightening",
		},
		TypicalMagnitude: "100-300bps HY spread widening; 10-25% equity",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"credit", "spread", "high yield", "default", "tightening", "stress"},
	},
	{
		Type: LiquidityCrisis,
		Name: "Liquidity Crisis",
		Description: "Systemic liquidity stress from repo market dysfunction, bank runs, or " +
			"collateral issues. Forces deleveraging across all risk assets.",
		PrimaryAssets:   []string{"^VIX", "TLT", "GLD", "BIL"},
		SecondaryAssets: []string{"SPY", "HYG", "EMB", "XLF"},
		SearchQueries: []string{
			"safe haven stocks liquidity crisis",
			"bank stocks liquidity stress",
			"money market funds flight to safety",
		},
		TypicalMagnitude: "VIX 40+; 15-30% equity drawdown",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"liquidity", "repo", "bank run", "collateral", "margin call", "crisis"},
	},

	// Risk sentiment
	{
		Type: RiskOffFlight,
		Name: "Risk-Off Flight",
		Description: "Broad flight to safety from geopolitical shock, growth scare, or systemic " +
			"concerns. Treasuries, gold, yen, CHF bid; equities, credit, EM sold.",
		PrimaryAssets:   []string{"TLT", "GLD", "FXY", "UUP"},
		SecondaryAssets: []string{"^VIX", "VIXY", "XLU", "XLP"},
		SearchQueries: []string{
			"safe haven stocks risk-off",
			"defensive stocks flight to safety",
			"gold miners risk-off rally",
		},
		TypicalMagnitude: "10Y yield -20-50bps; gold +5-10%; SPX -5-15%",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"risk-off", "flight to safety", "safe haven", "fear", "panic"},
	},
	{
		Type: RiskOnRally,
		Name: "Risk-On Rally",
		Description: "Broad risk appetite from positive surprise, trade deal, or dovish Fed. " +
			"Equities, HY, EM bid; Treasuries, gold, yen sold.",
		PrimaryAssets:   []string{"SPY", "QQQ", "HYG", "EEM"},
		SecondaryAssets: []string{"IWM", "ARKK", "XLF", "SMH"},
		SearchQueries: []string{
			"high beta stocks risk-on rally",
			"EM stocks risk appetite",
			"cyclical stocks risk-on rotation",
		},
		TypicalMagnitude: "SPX +3-10%; HY spreads -50-100bps",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"risk-on", "rally", "relief", "trade deal", "stimulus"},
	},
	{
		Type: VIXSpike,
		Name: "VIX Spike",
		Description: "Sharp volatility spike from shock event. Creates vol-of-vol cascade, " +
			"forced deleveraging, and option dealer hedging flows.",
		PrimaryAssets:   []string{"^VIX", "VIXY", "UVXY", "VXX"},
		SecondaryAssets: []string{"SPY", "QQQ", "IWM", "HYG"},
		SearchQueries: []string{
			"vol stocks VIX spike",
			"short vol ETF liquidation",
			"options dealer hedging stocks",
		},
		TypicalMagnitude: "VIX +50-200%; SPX -5-15% rapid",
		Horizon:          HorizonImmediate,
		Keywords:         []string{"vix", "volatility", "spike", "panic", "fear"},
	},

	// Sanctions/Controls
	{
		Type: TradeSanctions,
		Name: "Trade Sanctions",
		Description: "Trade sanctions targeting specific countries, sectors, or companies. " +
			"Disrupts supply chains, creates winners (alternatives) and losers (exposed).",
		PrimaryAssets:   []string{"SPY", "EEM", "SMH"},
		SecondaryAssets: []string{"XLE", "XLI", "KWEB", "FXI"},
		SearchQueries: []string{
			"stocks affected by Russia sanctions",
			"China sanctions exposure stocks",
			"semiconductor sanctions beneficiaries",
			"defense stocks sanctions beneficiary",
		},
		TypicalMagnitude: "Targeted stocks -30-70%; alternatives +20-50%",
		Horizon:          HorizonMediumTerm,
		Keywords:         []string{"sanction", "tariff", "trade war", "embargo", "ban"},
	},
	{
		Type: CapitalControls,
		Name: "Capital Controls",
		Description: "Capital controls imposed by countries facing currency pressure or " +
			"geopolitical isolation. Creates trapped capital, premium for exit.",
		PrimaryAssets:   []string{"EEM", "EMB", "EMLC"},
		SecondaryAssets: []string{"BTC-USD", "ETH-USD", "GLD"},
		SearchQueries: []string{
			"EM stocks capital controls exposure",
			"frontier market ETFs capital flight",
			"crypto stocks capital controls demand",
		},
		TypicalMagnitude: "Affected country -20-50%; stablecoin premium",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"capital control", "currency control", "blocked", "frozen", "seized"},
	},
	{
		Type: ExportRestrictions,
		Name: "Export Restrictions",
		Description: "Export bans or restrictions on critical materials or technology. " +
			"Creates shortages for importers, benefits for alternative suppliers.",
		PrimaryAssets:   []string{"SMH", "COPX", "XME"},
		SecondaryAssets: []string{"INTC", "AMD", "NVDA", "MU", "ASML"},
		SearchQueries: []string{
			"semiconductor stocks export restrictions",
			"rare earth alternatives companies",
			"chip equipment stocks export ban",
		},
		TypicalMagnitude: "Affected sectors ±20-40%",
		Horizon:          HorizonMediumTerm,
		Keywords:         []string{"export ban", "export restriction", "technology ban", "chip war"},
	},

	// Inflation
	{
		Type: InflationSpike,
		Name: "Inflation Spike",
		Description: "Sharp increase in inflation readings or expectations. Reprices Fed, " +
			"pressures duration, benefits TIPS, commodities, and pricing power.",
		PrimaryAssets:   []string{"TIP", "VTIP", "GLD", "DJP"},
		SecondaryAssets: []string{"XLE", "XLB", "PDBC", "XLP"},
		SearchQueries: []string{
			"inflation beneficiary stocks",
			"pricing power stocks inflation",
			"TIPS stocks inflation hedge",
		},
		TypicalMagnitude: "10Y +20-50bps; TIP +2-5%; gold +5-10%",
		Horizon:          HorizonShortTerm,
		Keywords:         []string{"inflation", "cpi", "ppi", "hot", "sticky", "expectations"},
	},
	{
		Type: DeflationRisk,
		Name: "Deflation Risk",
		Description: "Signs of deflation from demand collapse or overcapacity. Benefits long " +
			"duration; pressures commodities, banks, and cyclicals.",
		PrimaryAssets:   []string{"TLT", "EDV", "ZROZ"},
		SecondaryAssets: []string{"XLU", "XLP", "VNQ"},
		SearchQueries: []string{
			"deflation beneficiary stocks",
			"long duration stocks deflation",
			"utility stocks deflation hedge",
		},
		TypicalMagnitude: "10Y -50-100bps; TLT +10-20%",
		Horizon:          HorizonMediumTerm,
		Keywords:         []string{"deflation", "disinflation", "collapse", "overcapacity"},
	},
	{
		Type: WagePressure,
		Name: "Wage Pressure",
		Description: "Rising wage pressures from tight labor markets. Compresses margins for " +
			"labor-intensive businesses; benefits worker-friendly sectors.",
		PrimaryAssets:   []string{"XLY", "XRT", "EATS"},
		SecondaryAssets: []string{"XLI", "XLF", "XLP"},
		SearchQueries: []string{
			"labor intensive stocks wage pressure",
			"automation stocks labor shortage",
			"retail stocks labor costs",
		},
		TypicalMagnitude: "Margin compression 1-3pp; sector rotation",
		Horizon:          HorizonMediumTerm,
		Keywords:         []string{"wage", "labor", "employment", "jobs", "hiring"},
	},
}

var byType = func() map[string]Channel {
	m := make(map[string]Channel, len(All))
	for _, c := range All {
		m[c.Type] = c
	}
	return m
}()

// eventTypeChannels maps canonical event types to their likely channels.
var eventTypeChannels = map[string][]string{
	"geopolitical":     {OilSupplyDisruption, RiskOffFlight, TradeSanctions, CapitalControls},
	"monetary_policy":  {FedHawkish, FedDovish, DollarStrength, DollarWeakness},
	"fiscal_policy":    {InflationSpike, RiskOnRally},
	"financial_crisis": {CreditTightening, LiquidityCrisis, RiskOffFlight, VIXSpike},
	"trade_policy":     {TradeSanctions, ExportRestrictions, YuanDevaluation},
	"pandemic":         {OilDemandShock, LiquidityCrisis, RiskOffFlight},
	"election":         {RiskOnRally, RiskOffFlight},
	"regulatory":       {ExportRestrictions, TradeSanctions},
	"commodity_supply": {OilSupplyDisruption, NaturalGasSupply, MetalsSupply, AgriculturalSupply},
	"inflation":        {InflationSpike, FedHawkish, WagePressure},
	"other":            {RiskOffFlight, RiskOnRally},
}

// ByType looks up a channel by its type identifier.
func ByType(channelType string) (Channel, bool) {
	c, ok := byType[channelType]
	return c, ok
}

// ForEventType returns the likely channels for a canonical event type.
func ForEventType(eventType string) []Channel {
	types := eventTypeChannels[eventType]
	out := make([]Channel, 0, len(types))
	for _, t := range types {
		if c, ok := byType[t]; ok {
			out = append(out, c)
		}
	}
	return out
}

// MatchByKeywords returns channels whose keywords appear in text, most
// matches first. Ties keep catalogue order.
func MatchByKeywords(text string) []Channel {
	lower := strings.ToLower(text)
	type scored struct {
		count   int
		channel Channel
	}
	var matches []scored
	for _, c := range All {
		count := 0
		for _, kw := range c.Keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > 0 {
			matches = append(matches, scored{count, c})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].count > matches[j].count })

	out := make([]Channel, len(matches))
	for i, m := range matches {
		out[i] = m.channel
	}
	return out
}

// SearchQueries collects deduplicated search queries across channels.
func SearchQueries(chs []Channel) []string {
	var queries []string
	seen := make(map[string]bool)
	for _, c := range chs {
		for _, q := range c.SearchQueries {
			if !seen[q] {
				seen[q] = true
				queries = append(queries, q)
			}
		}
	}
	return queries
}
