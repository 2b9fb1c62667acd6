package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================================
// IN-MEMORY STORE
// ============================================================================

type memStore struct {
	mu sync.Mutex

	lists     map[uuid.UUID]*model.PriceList
	items     map[uuid.UUID][]model.PriceListItem
	products  map[uuid.UUID]model.Product
	customers map[uuid.UUID]*model.Customer
	orders    map[uuid.UUID]*model.Order
	links     map[string]*model.PublicOrderLink
	sellers   map[uuid.UUID]*model.Seller
	audits    []model.AuditLog

	itemLoads     map[uuid.UUID]int
	snapshotSaves int
	codeSeq       int

	// staleOrder is returned by FindByIDWithLines instead of the stored row when set
	staleOrder *model.Order

	saveSnapshotErr error
}

func newMemStore() *memStore {
	return &memStore{
		lists:     make(map[uuid.UUID]*model.PriceList),
		items:     make(map[uuid.UUID][]model.PriceListItem),
		products:  make(map[uuid.UUID]model.Product),
		customers: make(map[uuid.UUID]*model.Customer),
		orders:    make(map[uuid.UUID]*model.Order),
		links:     make(map[string]*model.PublicOrderLink),
		sellers:   make(map[uuid.UUID]*model.Seller),
		itemLoads: make(map[uuid.UUID]int),
	}
}

func (m *memStore) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.audits))
	for _, a := range m.audits {
		out = append(out, a.Action)
	}
	return out
}

func (m *memStore) customer(id uuid.UUID) model.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.customers[id]
}

func (m *memStore) order(id uuid.UUID) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyOrder(m.orders[id])
}

func copyOrder(o *model.Order) model.Order {
	c := *o
	c.Lines = append([]model.OrderLine(nil), o.Lines...)
	return c
}

// ============================================================================
// REPOSITORIES
// ============================================================================

type fakePriceLists struct{ *memStore }

func (f fakePriceLists) FindActiveCost(ctx context.Context) (*model.PriceList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.PriceList
	for _, l := range f.lists {
		if l.Type != model.PriceListTypeCost || !l.IsActive {
			continue
		}
		if best == nil || l.EffectiveFrom.After(best.EffectiveFrom) ||
			(l.EffectiveFrom.Equal(best.EffectiveFrom) && l.CreatedAt.After(best.CreatedAt)) {
			best = l
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *best
	return &c, nil
}

func (f fakePriceLists) FindByID(ctx context.Context, id uuid.UUID) (*model.PriceList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lists[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *l
	return &c, nil
}

func (f fakePriceLists) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PriceList, error) {
	l, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Items, _ = f.FindItems(ctx, id)
	return l, nil
}

func (f fakePriceLists) FindItems(ctx context.Context, id uuid.UUID) ([]model.PriceListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemLoads[id]++
	return append([]model.PriceListItem(nil), f.items[id]...), nil
}

func (f fakePriceLists) Activate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.lists[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if target.Type == model.PriceListTypeCost {
		for _, l := range f.lists {
			if l.Type == model.PriceListTypeCost {
				l.IsActive = false
			}
		}
	}
	target.IsActive = true
	return nil
}

type fakeProducts struct{ *memStore }

func (f fakeProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCustomers struct{ *memStore }

func (f fakeCustomers) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCustomers) IncrementLedger(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.OrderCount++
	c.TotalSpentAmount = c.TotalSpentAmount.Add(amount)
	c.LastOrderAt = &at
	return nil
}

type fakeOrders struct{ *memStore }

func (f fakeOrders) Create(ctx context.Context, order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Lines {
		order.Lines[i].ID = uuid.New()
		order.Lines[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	stored := copyOrder(order)
	f.orders[order.ID] = &stored
	return nil
}

func (f fakeOrders) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleOrder != nil && f.staleOrder.ID == id {
		c := copyOrder(f.staleOrder)
		return &c, nil
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := copyOrder(o)
	return &c, nil
}

func (f fakeOrders) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.Order
	for _, o := range f.orders {
		if filter.SellerID != nil && o.SellerID != *filter.SellerID {
			continue
		}
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.FulfillmentStatus != "" && o.FulfillmentStatus != filter.FulfillmentStatus {
			continue
		}
		if filter.ApprovalStatus != "" && o.Approval.Status != filter.ApprovalStatus {
			continue
		}
		matched = append(matched, copyOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code > matched[j].Code })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []model.Order{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f fakeOrders) SaveReview(ctx context.Context, order *model.Order) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok || !stored.IsAwaitingReview() {
		return false, nil
	}
	lines := stored.Lines
	ledger := stored.LedgerAppliedAt
	*stored = copyOrder(order)
	stored.Lines = lines
	stored.LedgerAppliedAt = ledger
	return true, nil
}

func (f fakeOrders) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Lines = append([]model.OrderLine(nil), lines...)
	return nil
}

func (f fakeOrders) UpdateStatus(ctx context.Context, id uuid.UUID, change repository.StatusChange) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[id]
	if !ok || stored.FulfillmentStatus == model.FulfillmentPendingApproval {
		return false, nil
	}
	if change.FulfillmentStatus != nil {
		stored.FulfillmentStatus = *change.FulfillmentStatus
	}
	if change.SupplierPaymentStatus != nil {
		stored.SupplierPaymentStatus = *change.SupplierPaymentStatus
	}
	if change.CollectionStatus != nil {
		stored.CollectionStatus = *change.CollectionStatus
	}
	return true, nil
}

func (f fakeOrders) MarkLedgerApplied(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[id]
	if !ok || stored.LedgerAppliedAt != nil {
		return false, nil
	}
	stored.LedgerAppliedAt = &at
	return true, nil
}

func (f fakeOrders) CountCodesWithPrefix(ctx context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.orders {
		if strings.HasPrefix(o.Code, prefix) {
			n++
		}
	}
	return n, nil
}

type fakeCodes struct{ *memStore }

func (f fakeCodes) Next(ctx context.Context, now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codeSeq++
	return fmt.Sprintf("ORD-%s-%05d", now.Format("20060102"), f.codeSeq), nil
}

type fakeAudit struct{ *memStore }

func (f fakeAudit) Log(ctx context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, *entry)
	return nil
}

func (f fakeAudit) ListByEntity(ctx context.Context, entityID string) ([]model.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AuditLog
	for _, a := range f.audits {
		if a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeLinks struct{ *memStore }

func (f fakeLinks) Create(ctx context.Context, link *model.PublicOrderLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	c := *link
	f.links[link.Token] = &c
	return nil
}

func (f fakeLinks) FindByToken(ctx context.Context, token string) (*model.PublicOrderLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *l
	c.SnapshotItems = append([]model.PriceSnapshotItem(nil), l.SnapshotItems...)
	return &c, nil
}

func (f fakeLinks) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.ID == id {
			l.UsageCount++
			l.LastUsedAt = &at
		}
	}
	return nil
}

func (f fakeLinks) SaveSnapshot(ctx context.Context, link *model.PublicOrderLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveSnapshotErr != nil {
		return f.saveSnapshotErr
	}
	stored, ok := f.links[link.Token]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.snapshotSaves++
	stored.SalePriceListName = link.SalePriceListName
	stored.SaleListEffectiveFrom = link.SaleListEffectiveFrom
	stored.SnapshotItems = append([]model.PriceSnapshotItem(nil), link.SnapshotItems...)
	return nil
}

type fakeSellers struct{ *memStore }

func (f fakeSellers) FindByID(ctx context.Context, id uuid.UUID) (*model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sellers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *s
	return &c, nil
}

func (f fakeSellers) FindByEmail(ctx context.Context, email string) (*model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sellers {
		if s.Email == email {
			c := *s
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// ============================================================================
// FIXTURE
// ============================================================================

type fixture struct {
	store  *memStore
	orders OrderService
	public PublicOrderService
	events *recordingPublisher
	now    time.Time

	admin  Actor
	seller Actor
	other  Actor

	customer *model.Customer

	costList   *model.PriceList
	systemSale *model.PriceList
	sellerSale *model.PriceList
	otherSale  *model.PriceList

	productA uuid.UUID
	productB uuid.UUID
	productC uuid.UUID
}

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func (f *fixture) addList(listType string, owner *uuid.UUID, name string, prices map[uuid.UUID]int64) *model.PriceList {
	list := &model.PriceList{
		ID:            uuid.New(),
		Name:          name,
		Type:          listType,
		OwnerSellerID: owner,
		EffectiveFrom: f.now.Add(-24 * time.Hour),
		IsActive:      true,
		CreatedAt:     f.now.Add(-24 * time.Hour),
		UpdatedAt:     f.now.Add(-24 * time.Hour),
	}
	f.store.lists[list.ID] = list
	for productID, price := range prices {
		f.store.items[list.ID] = append(f.store.items[list.ID], model.PriceListItem{
			ID:          uuid.New(),
			PriceListID: list.ID,
			ProductID:   productID,
			ProductName: f.store.products[productID].Name,
			PricePerKg:  money(price),
		})
	}
	return list
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newMemStore(),
		events:   &recordingPublisher{},
		now:      time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
		productA: uuid.New(),
		productB: uuid.New(),
		productC: uuid.New(),
	}
	f.admin = Actor{SellerID: uuid.New(), Role: model.RoleAdmin, Name: "Admin"}
	f.seller = Actor{SellerID: uuid.New(), Role: model.RoleSeller, Name: "Seller One"}
	f.other = Actor{SellerID: uuid.New(), Role: model.RoleSeller, Name: "Seller Two"}

	f.store.products[f.productA] = model.Product{ID: f.productA, Name: "Product A", IsActive: true}
	f.store.products[f.productB] = model.Product{ID: f.productB, Name: "Product B", IsActive: true}
	f.store.products[f.productC] = model.Product{ID: f.productC, Name: "Product C", IsActive: true}

	f.customer = &model.Customer{ID: uuid.New(), Name: "Customer", IsActive: true}
	f.store.customers[f.customer.ID] = f.customer

	f.costList = f.addList(model.PriceListTypeCost, nil, "Cost", map[uuid.UUID]int64{f.productA: 50, f.productB: 20, f.productC: 10})
	f.systemSale = f.addList(model.PriceListTypeSale, nil, "System", map[uuid.UUID]int64{f.productA: 100, f.productB: 50})
	sellerID := f.seller.SellerID
	f.sellerSale = f.addList(model.PriceListTypeSale, &sellerID, "Seller One list", map[uuid.UUID]int64{f.productA: 120, f.productB: 60})
	otherID := f.other.SellerID
	f.otherSale = f.addList(model.PriceListTypeSale, &otherID, "Seller Two list", map[uuid.UUID]int64{f.productA: 130, f.productB: 70})

	lists := fakePriceLists{f.store}
	resolver := NewPriceListResolver(lists, nil)
	ledger := NewCustomerLedger(fakeOrders{f.store}, fakeCustomers{f.store}, fakeAudit{f.store}, nil)
	deps := OrderDeps{
		Orders:    fakeOrders{f.store},
		Customers: fakeCustomers{f.store},
		Products:  fakeProducts{f.store},
		AuditRepo: fakeAudit{f.store},
		TxManager: fakeTx{},
		Codes:     fakeCodes{f.store},
		Resolver:  resolver,
		Ledger:    ledger,
		Events:    f.events,
		Now:       func() time.Time { return f.now },
	}
	f.orders = NewOrderService(deps)
	broker := NewPublicOrderLinkBroker(fakeLinks{f.store}, resolver, fakeAudit{f.store}, nil)
	f.public = NewPublicOrderService(deps, fakeLinks{f.store}, broker)
	return f
}

func (f *fixture) request(saleList *model.PriceList, lines ...CartLine) CreateOrderRequest {
	return CreateOrderRequest{
		CustomerID:      f.customer.ID,
		SalePriceListID: saleList.ID,
		DeliveryDate:    "2026-10-20",
		Lines:           lines,
	}
}

func kg(productID uuid.UUID, w float64) CartLine {
	return CartLine{ProductID: productID, WeightKg: w}
}
