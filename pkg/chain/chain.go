// Package chain aggregates raw events by lineage into scored progression
// rows (spec §4.6): a project moving permit → spud → well → production, or
// a REE/uranium asset moving claims → drilling → resource → study → deal,
// accumulates stage flags and an additive score as each stage is observed.
package chain

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/event"
)

// Row is one lineage's aggregated chain state.
type Row struct {
	LineageID string

	HasPermit            bool
	HasSpud              bool
	HasWell              bool
	HasProduction        bool
	HasClaims            bool
	HasDrillAssay        bool
	HasResource          bool
	HasStudy             bool
	HasDeal              bool
	HasPolicy            bool
	HasInsiderBuy        bool
	HasInsiderBuyCluster bool

	Operator  string
	Region    string
	PermitID  string
	Field     string
	County    string
	Company   string
	Project   string
	Commodity string
	Tickers   []string
	CompanyID string

	IPBoed    float64
	HasIPBoed bool

	LastEventTime *time.Time
	Score         float64
}

type insiderSignal struct {
	t      time.Time
	filer  string
}

type bucket struct {
	row      Row
	insiders []insiderSignal
}

// Aggregate groups events by payload_json.lineage_id and computes each
// lineage's stage flags, carried context, and additive score (spec §4.6).
// Events without a lineage are discarded. The returned rows are sorted by
// score descending.
func Aggregate(events []event.RawEvent) []Row {
	buckets := make(map[string]*bucket)
	var order []string

	for _, ev := range events {
		lineageID, _ := ev.PayloadJSON["lineage_id"].(string)
		if lineageID == "" {
			continue
		}
		b, ok := buckets[lineageID]
		if !ok {
			b = &bucket{row: Row{LineageID: lineageID}}
			buckets[lineageID] = b
			order = append(order, lineageID)
		}
		applyEvent(b, ev)
	}

	rows := make([]Row, 0, len(order))
	for _, lineageID := range order {
		b := buckets[lineageID]
		finalizeInsiderCluster(b)
		b.row.Score = computeScore(b.row)
		rows = append(rows, b.row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	return rows
}

func applyEvent(b *bucket, ev event.RawEvent) {
	payload := ev.PayloadJSON
	eventType := strings.ToLower(stringField(payload, "type"))
	region := strings.ToLower(stringField(payload, "region"))
	commodity := strings.ToLower(stringField(payload, "commodity"))
	isTexas := region == "texas"
	// commodity is carried into Row via carryContext but not used here to gate
	// the REE/uranium stage flags (spec §4.6's "commodity ∈ {REE,uranium}"
	// qualifier): today only pkg/adapters/reeuranium emits claims_staked,
	// resource_estimate/upgrade, and pea/pfs/fs_study, so the event type
	// alone already implies the commodity. Revisit if a non-REE/U source
	// starts emitting these types.
	_ = commodity

	switch eventType {
	case "permit_filed":
		b.row.HasPermit = true
	case "permit_issued", "drilling_permit":
		if isTexas {
			b.row.HasPermit = true
		}
	case "claims_staked", "exploration_permit":
		b.row.HasPermit = true
		b.row.HasClaims = true
	case "spud_reported":
		if isTexas {
			b.row.HasSpud = true
		}
	case "well_record", "completion_reported":
		b.row.HasWell = true
	case "well_completion", "drill_result":
		if isTexas {
			b.row.HasWell = true
		}
	case "drill_assay":
		b.row.HasWell = true
		b.row.HasDrillAssay = true
	case "production_reported":
		if isTexas {
			b.row.HasProduction = true
		}
	case "resource_estimate", "resource_upgrade":
		b.row.HasResource = true
	case "pea_study", "pfs_study", "fs_study":
		b.row.HasStudy = true
	case "offtake_agreement", "financing_closed", "jv_agreement", "acquisition":
		b.row.HasDeal = true
	case "policy_designation", "export_restriction":
		b.row.HasPolicy = true
	case "insider_buy":
		b.row.HasInsiderBuy = true
		if ev.EventTime != nil {
			b.insiders = append(b.insiders, insiderSignal{t: *ev.EventTime, filer: stringField(payload, "filer_name")})
		}
	}

	carryContext(&b.row, payload)

	if ev.EventTime != nil {
		if b.row.LastEventTime == nil || ev.EventTime.After(*b.row.LastEventTime) {
			b.row.LastEventTime = ev.EventTime
		}
	}
}

// carryContext applies first-non-null-wins semantics for every carried
// field except ip_boed, which takes the monotone maximum (spec §4.6).
func carryContext(row *Row, payload map[string]any) {
	if row.Operator == "" {
		row.Operator = stringField(payload, "operator")
	}
	if row.Region == "" {
		row.Region = stringField(payload, "region")
	}
	if row.PermitID == "" {
		row.PermitID = stringField(payload, "permit_id")
	}
	if row.Field == "" {
		row.Field = stringField(payload, "field")
	}
	if row.County == "" {
		row.County = stringField(payload, "county")
	}
	if row.Company == "" {
		row.Company = stringField(payload, "company")
	}
	if row.Project == "" {
		row.Project = stringField(payload, "project")
	}
	if row.Commodity == "" {
		row.Commodity = stringField(payload, "commodity")
	}
	if len(row.Tickers) == 0 {
		if tickers := canonical.StringSlice(payload["tickers"]); len(tickers) > 0 {
			row.Tickers = tickers
		}
	}
	if row.CompanyID == "" {
		row.CompanyID = stringField(payload, "company_id")
	}
	if v, ok := payload["ip_boed"]; ok {
		if f, ok := asFloat(v); ok {
			if !row.HasIPBoed || f > row.IPBoed {
				row.IPBoed = f
				row.HasIPBoed = true
			}
		}
	}
}

// finalizeInsiderCluster sets has_insider_buy_cluster when at least two
// distinct filer_name values produced an insider_buy within a 30-day
// rolling window for this lineage (spec §4.6).
func finalizeInsiderCluster(b *bucket) {
	const window = 30 * 24 * time.Hour
	signals := b.insiders
	for i := range signals {
		for j := range signals {
			if signals[i].filer == "" || signals[j].filer == "" {
				continue
			}
			if signals[i].filer == signals[j].filer {
				continue
			}
			delta := signals[i].t.Sub(signals[j].t)
			if delta < 0 {
				delta = -delta
			}
			if delta <= window {
				b.row.HasInsiderBuyCluster = true
				return
			}
		}
	}
}

// computeScore applies the additive staged scoring table (spec §4.6),
// rounding to 4 decimals without clamping.
func computeScore(row Row) float64 {
	var s float64
	if row.HasPermit {
		s += 0.30
	}
	if row.HasSpud {
		s += 0.20
	}
	if row.HasWell {
		s += 0.30
	}
	if row.HasProduction {
		s += 0.20
	}
	if row.HasResource {
		s += 0.15
	}
	if row.HasStudy {
		s += 0.20
	}
	if row.HasDeal {
		s += 0.15
	}
	if row.HasPolicy {
		s += 0.10
	}
	if row.HasInsiderBuy {
		s += 0.15
	}
	if row.HasInsiderBuyCluster {
		s += 0.10
	}
	return math.Round(s*10000) / 10000
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
