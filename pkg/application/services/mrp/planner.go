package mrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/services"
)

// Settings holds the planning policy of a run
type Settings struct {
	BucketDays         int
	Workers            int
	MakeOrBuy          entities.OrderKind
	EnforceSafetyStock bool
	Calendar           services.LeadTimeCalendar
}

// DefaultSettings returns daily buckets, make for make_or_buy items, and safety
// stock enforcement on.
func DefaultSettings() Settings {
	return Settings{
		BucketDays:         1,
		Workers:            4,
		MakeOrBuy:          entities.PlannedProduction,
		EnforceSafetyStock: true,
		Calendar:           services.CalendarDays{},
	}
}

// WithDefaults fills unset fields from DefaultSettings. A zero Settings is
// DefaultSettings; otherwise EnforceSafetyStock is taken as given.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.BucketDays == 0 && s.Workers == 0 && s.MakeOrBuy == "" && s.Calendar == nil && !s.EnforceSafetyStock {
		return def
	}
	if s.BucketDays <= 0 {
		s.BucketDays = def.BucketDays
	}
	if s.Workers <= 0 {
		s.Workers = def.Workers
	}
	if s.MakeOrBuy == "" {
		s.MakeOrBuy = def.MakeOrBuy
	}
	if s.Calendar == nil {
		s.Calendar = def.Calendar
	}
	return s
}

// ItemPlan is the netting output of one item
type ItemPlan struct {
	PartNumber   entities.PartNumber
	LowLevelCode int
	Requirements []*entities.NetRequirement
	Orders       []*entities.PlannedOrder
	Dependent    []entities.GrossRequirement // demand pushed to components
	Warnings     []entities.RunWarning
	Skipped      bool
}

// ItemError is an unrecoverable failure while planning or persisting one item
type ItemError struct {
	PartNumber entities.PartNumber
	Err        error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("failed to plan %s: %v", e.PartNumber, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// TierSink receives the merged plans of a tier before the next tier starts
type TierSink func(ctx context.Context, code int, plans []*ItemPlan) error

// Planner nets every item of a graph tier by tier
type Planner struct {
	runID     string
	scope     string
	graph     *BOMGraph
	snapshot  *Snapshot
	exploder  *Exploder
	src       Sources
	bucketing Bucketing
	settings  Settings
	now       func() time.Time
	logger    *zap.Logger
}

// NewPlanner creates a planner for one run
func NewPlanner(
	runID, scope string,
	asOf time.Time,
	graph *BOMGraph,
	snapshot *Snapshot,
	src Sources,
	settings Settings,
	logger *zap.Logger,
) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.WithDefaults()
	return &Planner{
		runID:     runID,
		scope:     scope,
		graph:     graph,
		snapshot:  snapshot,
		exploder:  NewExploder(graph, src.Units),
		src:       src,
		bucketing: NewBucketing(asOf, settings.BucketDays),
		settings:  settings,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Run plans every tier in ascending low-level code. Items within a tier are planned
// concurrently; their dependent demand is merged in item order before the next tier.
func (p *Planner) Run(ctx context.Context, sink TierSink) error {
	dependent := make(map[entities.PartNumber][]entities.GrossRequirement)

	for code, tier := range p.graph.Tiers {
		if err := ctx.Err(); err != nil {
			return err
		}

		plans := make([]*ItemPlan, len(tier))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(p.settings.Workers, 1))

		for i, pn := range tier {
			i, pn := i, pn
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				plan, err := p.PlanItem(pn, dependent[pn])
				if err != nil {
					return &ItemError{PartNumber: pn, Err: err}
				}
				plans[i] = plan
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, plan := range plans {
			for _, req := range plan.Dependent {
				dependent[req.PartNumber] = append(dependent[req.PartNumber], req)
			}
		}

		p.logger.Debug("tier planned", zap.Int("low_level_code", code), zap.Int("items", len(tier)))

		if sink != nil {
			if err := sink(ctx, code, plans); err != nil {
				return err
			}
		}
	}

	return nil
}

// PlanItem nets one item against its snapshot and the dependent demand from its parents
func (p *Planner) PlanItem(pn entities.PartNumber, dependent []entities.GrossRequirement) (*ItemPlan, error) {
	node, ok := p.graph.Node(pn)
	if !ok {
		return nil, fmt.Errorf("item %s is not in the planning graph", pn)
	}
	item := node.Item
	plan := &ItemPlan{PartNumber: pn, LowLevelCode: node.LowLevelCode}

	policy, err := ResolveOrderPolicy(item)
	if err != nil {
		plan.Skipped = true
		plan.Warnings = append(plan.Warnings, entities.RunWarning{
			Kind:    entities.WarningInvalidLotSize,
			Item:    pn,
			Message: err.Error(),
		})
		return plan, nil
	}

	demand, warnings := AggregateDemand(item, p.snapshot.Demand[pn], dependent, p.bucketing, p.src.Units)
	plan.Warnings = append(plan.Warnings, warnings...)
	supply, warnings := AggregateSupply(item, p.snapshot.Supply[pn], p.snapshot.Committed[pn], p.bucketing, p.src.Units)
	plan.Warnings = append(plan.Warnings, warnings...)

	floor := entities.Qty(0)
	if p.settings.EnforceSafetyStock && item.KeepsSafetyStock() {
		floor = item.SafetyStock
	}

	positions := Net(NettingInput{
		OnHand: p.snapshot.OnHand[pn],
		Gross:  demand.Totals(),
		Supply: supply.Totals(),
		Floor:  floor,
	}, policy)

	createdAt := p.now()
	for _, pos := range positions {
		due := p.bucketing.Start(pos.Bucket)
		req := &entities.NetRequirement{
			ID:               uuid.NewString(),
			RunID:            p.runID,
			PartNumber:       pn,
			LowLevelCode:     node.LowLevelCode,
			BucketIndex:      pos.Bucket,
			BucketStart:      due,
			GrossRequirement: pos.Gross,
			ScheduledSupply:  pos.Scheduled,
			AvailableSupply:  pos.Available,
			NetRequirement:   pos.Net,
			ProjectedBalance: pos.Projected,
		}
		plan.Requirements = append(plan.Requirements, req)

		order, err := entities.NewPlannedOrder(
			uuid.NewString(),
			p.runID,
			p.scope,
			pn,
			pos.OrderQty,
			p.settings.Calendar.ReleaseDate(due, item.LeadTimeDays),
			due,
			node.OrderKind,
			[]string{req.ID},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create planned order for %s: %w", pn, err)
		}
		order.CreatedAt = createdAt
		plan.Orders = append(plan.Orders, order)
	}

	if len(node.Components) > 0 {
		if err := p.pushDependentDemand(plan, node); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// pushDependentDemand explodes the item's new production orders and its firmed
// production orders one level, dating component demand at each order's release date.
func (p *Planner) pushDependentDemand(plan *ItemPlan, node *GraphNode) error {
	var sources []*entities.PlannedOrder
	if node.OrderKind == entities.PlannedProduction {
		sources = append(sources, plan.Orders...)
	}
	for _, order := range p.snapshot.Committed[node.PartNumber] {
		if order.Kind == entities.PlannedProduction && order.Status == entities.OrderFirmed {
			sources = append(sources, order)
		}
	}

	for _, order := range sources {
		explosion, err := p.exploder.ExplodeLevel(node.PartNumber, order.Quantity)
		if err != nil {
			return err
		}
		for _, issue := range explosion.Issues {
			plan.Warnings = append(plan.Warnings, issueWarning(node.PartNumber, issue))
		}
		for _, component := range explosion.PartNumbers() {
			plan.Dependent = append(plan.Dependent, entities.GrossRequirement{
				PartNumber:  component,
				Quantity:    explosion.Components[component],
				NeedDate:    order.ReleaseDate,
				DemandTrace: order.ID,
			})
		}
	}
	return nil
}

func issueWarning(pn entities.PartNumber, issue error) entities.RunWarning {
	var scrapErr *entities.InvalidScrapFactorError
	if errors.As(issue, &scrapErr) {
		return entities.RunWarning{Kind: entities.WarningInvalidScrap, Item: pn, Message: issue.Error()}
	}
	var uomErr *entities.UOMConversionError
	if errors.As(issue, &uomErr) {
		return entities.RunWarning{Kind: entities.WarningUOMConversion, Item: uomErr.Item, Message: issue.Error()}
	}
	return entities.RunWarning{Kind: entities.WarningInvalidBOMLine, Item: pn, Message: issue.Error()}
}
