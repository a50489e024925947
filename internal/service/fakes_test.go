package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

type memState struct {
	users       map[string]models.User
	portfolios  map[string]models.Portfolio
	tokens      map[string]models.Token
	holdings    map[string]models.Holding
	txs         map[string]models.Transaction
	portValues  map[string]models.PortfolioHistoricalValue
	tokenValues map[string]models.TokenHistoricalValue
	alerts      map[string]models.Alert
	market      []models.MarketData
}

func (st memState) clone() memState {
	return memState{
		users:       cloneMap(st.users),
		portfolios:  cloneMap(st.portfolios),
		tokens:      cloneMap(st.tokens),
		holdings:    cloneMap(st.holdings),
		txs:         cloneMap(st.txs),
		portValues:  cloneMap(st.portValues),
		tokenValues: cloneMap(st.tokenValues),
		alerts:      cloneMap(st.alerts),
		market:      append([]models.MarketData(nil), st.market...),
	}
}

// memStore is an in-memory stand-in for Postgres. WithTx restores the state
// it saw on entry when fn fails, which mirrors a rollback. Transactions run
// one at a time, which is stricter than the row lock taken by GetForUpdate.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex
	seq  int
	memState

	failHoldingUpdate error
	afterHoldingLock  func()
	onLatestValue     func(ctx context.Context)
	txCount           int
}

func newMemStore() *memStore {
	return &memStore{memState: memState{
		users:       map[string]models.User{},
		portfolios:  map[string]models.Portfolio{},
		tokens:      map[string]models.Token{},
		holdings:    map[string]models.Holding{},
		txs:         map[string]models.Transaction{},
		portValues:  map[string]models.PortfolioHistoricalValue{},
		tokenValues: map[string]models.TokenHistoricalValue{},
		alerts:      map[string]models.Alert{},
	}}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	saved := s.memState.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.memState = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// users

type memUsers struct{ *memStore }

func (m memUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = m.nextID("user")
	}
	m.users[u.ID] = *u
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, types.NewNotFound(types.CodeUserNotFound, "user", id)
	}
	return &u, nil
}

// portfolios

type memPortfolios struct{ *memStore }

func (m memPortfolios) Create(ctx context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = m.nextID("portfolio")
	}
	p.CreatedAt = time.Now()
	m.portfolios[p.ID] = *p
	return nil
}

func (m memPortfolios) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.portfolios[id]
	if !ok {
		return nil, types.NewNotFound(types.CodePortfolioNotFound, "portfolio", id)
	}
	return &p, nil
}

func (m memPortfolios) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Portfolio, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil || p.UserID != userID {
		return nil, types.NewNotFound(types.CodePortfolioNotFound, "portfolio", id)
	}
	return p, nil
}

func (m memPortfolios) Update(ctx context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.portfolios[p.ID]; !ok {
		return types.NewNotFound(types.CodePortfolioNotFound, "portfolio", p.ID)
	}
	m.portfolios[p.ID] = *p
	return nil
}

func (m memPortfolios) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.portfolios[id]
	if !ok || p.UserID != userID {
		return types.NewNotFound(types.CodePortfolioNotFound, "portfolio", id)
	}
	delete(m.portfolios, id)
	return nil
}

func (m memPortfolios) ListByUser(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	all, _ := m.ListAll(ctx)
	var out []*models.Portfolio
	for _, p := range all {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memPortfolios) ListAll(ctx context.Context) ([]*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Portfolio
	for _, p := range m.portfolios {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// tokens

type memTokens struct{ *memStore }

func (m memTokens) Create(ctx context.Context, t *models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = m.nextID("token")
	}
	m.tokens[t.ID] = *t
	return nil
}

func (m memTokens) GetByID(ctx context.Context, id string) (*models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, types.NewNotFound(types.CodeTokenNotFound, "token", id)
	}
	return &t, nil
}

func (m memTokens) List(ctx context.Context) ([]*models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Token
	for _, t := range m.tokens {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// holdings

type memHoldings struct{ *memStore }

func (m memHoldings) GetOrCreate(ctx context.Context, userID, portfolioID, tokenID string) (*models.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holdings {
		if h.PortfolioID == portfolioID && h.TokenID == tokenID {
			return &h, nil
		}
	}
	h := models.Holding{
		ID:          m.nextID("holding"),
		UserID:      userID,
		PortfolioID: portfolioID,
		TokenID:     tokenID,
		CreatedAt:   time.Now(),
	}
	m.holdings[h.ID] = h
	return &h, nil
}

func (m memHoldings) GetByID(ctx context.Context, id string) (*models.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holdings[id]
	if !ok {
		return nil, types.NewNotFound(types.CodeHoldingNotFound, "holding", id)
	}
	return &h, nil
}

func (m memHoldings) GetForUpdate(ctx context.Context, id string) (*models.Holding, error) {
	h, err := m.GetByID(ctx, id)
	if err == nil && m.afterHoldingLock != nil {
		m.afterHoldingLock()
	}
	return h, err
}

func (m memHoldings) Update(ctx context.Context, h *models.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failHoldingUpdate != nil {
		return m.failHoldingUpdate
	}
	if _, ok := m.holdings[h.ID]; !ok {
		return types.NewNotFound(types.CodeHoldingNotFound, "holding", h.ID)
	}
	m.holdings[h.ID] = *h
	return nil
}

func (m memHoldings) ListByPortfolio(ctx context.Context, portfolioID string) ([]*models.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Holding
	for _, h := range m.holdings {
		if h.PortfolioID == portfolioID {
			h := h
			out = append(out, &h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memHoldings) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holdings, id)
}

// transactions

type memTxs struct{ *memStore }

func (m memTxs) Create(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == "" {
		tx.ID = m.nextID("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	}
	m.txs[tx.ID] = *tx
	return nil
}

func (m memTxs) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.UserID != userID {
		return nil, types.NewNotFound(types.CodeTransactionNotFound, "transaction", id)
	}
	return &tx, nil
}

func (m memTxs) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return types.NewNotFound(types.CodeTransactionNotFound, "transaction", id)
	}
	delete(m.txs, id)
	return nil
}

func (m memTxs) ListByHolding(ctx context.Context, holdingID string) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range m.txs {
		if tx.HoldingID == holdingID {
			tx := tx
			out = append(out, &tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// history

type memHistory struct{ *memStore }

func valueKey(owner string, date time.Time, tf types.Timeframe) string {
	return owner + "|" + date.Format("2006-01-02") + "|" + string(tf)
}

func (m memHistory) UpsertPortfolioValue(ctx context.Context, v *models.PortfolioHistoricalValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := valueKey(v.PortfolioID, v.Date, v.Timeframe)
	if existing, ok := m.portValues[key]; ok {
		v.ID, v.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		v.ID = m.nextID("pv")
	}
	m.portValues[key] = *v
	return nil
}

func (m memHistory) UpsertTokenValue(ctx context.Context, v *models.TokenHistoricalValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := valueKey(v.HoldingID, v.Date, v.Timeframe)
	if existing, ok := m.tokenValues[key]; ok {
		v.ID, v.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		v.ID = m.nextID("tv")
	}
	m.tokenValues[key] = *v
	return nil
}

func (m memHistory) portfolioRows(portfolioID string, tf types.Timeframe) []*models.PortfolioHistoricalValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PortfolioHistoricalValue
	for _, v := range m.portValues {
		if v.PortfolioID == portfolioID && v.Timeframe == tf {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m memHistory) tokenRows(holdingID string, tf types.Timeframe) []*models.TokenHistoricalValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TokenHistoricalValue
	for _, v := range m.tokenValues {
		if v.HoldingID == holdingID && v.Timeframe == tf {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m memHistory) LatestPortfolioValue(ctx context.Context, id string, tf types.Timeframe) (*models.PortfolioHistoricalValue, error) {
	if m.onLatestValue != nil {
		m.onLatestValue(ctx)
	}
	rows := m.portfolioRows(id, tf)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

func (m memHistory) EarliestPortfolioValue(ctx context.Context, id string, tf types.Timeframe) (*models.PortfolioHistoricalValue, error) {
	rows := m.portfolioRows(id, tf)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (m memHistory) PortfolioValueOnOrBefore(ctx context.Context, id string, tf types.Timeframe, date time.Time) (*models.PortfolioHistoricalValue, error) {
	var found *models.PortfolioHistoricalValue
	for _, v := range m.portfolioRows(id, tf) {
		if !v.Date.After(date) {
			found = v
		}
	}
	return found, nil
}

func (m memHistory) PortfolioValuesBetween(ctx context.Context, id string, tf types.Timeframe, from, to time.Time) ([]*models.PortfolioHistoricalValue, error) {
	var out []*models.PortfolioHistoricalValue
	for _, v := range m.portfolioRows(id, tf) {
		if !v.Date.Before(from) && !v.Date.After(to) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m memHistory) LatestTokenValue(ctx context.Context, id string, tf types.Timeframe) (*models.TokenHistoricalValue, error) {
	rows := m.tokenRows(id, tf)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

func (m memHistory) EarliestTokenValue(ctx context.Context, id string, tf types.Timeframe) (*models.TokenHistoricalValue, error) {
	rows := m.tokenRows(id, tf)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (m memHistory) TokenValueOnOrBefore(ctx context.Context, id string, tf types.Timeframe, date time.Time) (*models.TokenHistoricalValue, error) {
	var found *models.TokenHistoricalValue
	for _, v := range m.tokenRows(id, tf) {
		if !v.Date.After(date) {
			found = v
		}
	}
	return found, nil
}

func (m memHistory) TokenValuesBetween(ctx context.Context, id string, tf types.Timeframe, from, to time.Time) ([]*models.TokenHistoricalValue, error) {
	var out []*models.TokenHistoricalValue
	for _, v := range m.tokenRows(id, tf) {
		if !v.Date.Before(from) && !v.Date.After(to) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m memHistory) DeleteOlderThanForTier(ctx context.Context, tier types.UserTier, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, v := range m.portValues {
		if m.users[v.UserID].Tier == tier && v.Date.Before(cutoff) {
			delete(m.portValues, k)
			n++
		}
	}
	for k, v := range m.tokenValues {
		if m.users[v.UserID].Tier == tier && v.Date.Before(cutoff) {
			delete(m.tokenValues, k)
			n++
		}
	}
	return n, nil
}

// seedPortfolioValue writes a row at an arbitrary date
func (m memHistory) seedPortfolioValue(portfolioID, userID string, date time.Time, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := models.PortfolioHistoricalValue{
		ID:          m.nextID("pv"),
		PortfolioID: portfolioID,
		UserID:      userID,
		Date:        types.StartOfDay(date),
		Timeframe:   types.TimeframeDaily,
		TotalValue:  decimal.NewFromInt(value),
	}
	m.portValues[valueKey(portfolioID, v.Date, v.Timeframe)] = v
}

func (m memHistory) seedTokenValue(holdingID, userID string, date time.Time, value, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := models.TokenHistoricalValue{
		ID:         m.nextID("tv"),
		HoldingID:  holdingID,
		UserID:     userID,
		Date:       types.StartOfDay(date),
		Timeframe:  types.TimeframeDaily,
		TotalValue: decimal.NewFromInt(value),
		Price:      decimal.NewFromInt(price),
	}
	m.tokenValues[valueKey(holdingID, v.Date, v.Timeframe)] = v
}

// alerts

type memAlerts struct{ *memStore }

func (m memAlerts) Create(ctx context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = m.nextID("alert")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	}
	m.alerts[a.ID] = *a
	return nil
}

func (m memAlerts) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return nil, types.NewNotFound(types.CodeAlertNotFound, "alert", id)
	}
	return &a, nil
}

func (m memAlerts) list(keep func(models.Alert) bool) []*models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Alert
	for _, a := range m.alerts {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m memAlerts) ListByUser(ctx context.Context, userID string) ([]*models.Alert, error) {
	return m.list(func(a models.Alert) bool { return a.UserID == userID }), nil
}

func (m memAlerts) ListPending(ctx context.Context) ([]*models.Alert, error) {
	return m.list(func(a models.Alert) bool {
		return a.Status == types.AlertStatusActive && !a.NotificationSent
	}), nil
}

func (m memAlerts) MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok || a.Status != types.AlertStatusActive || a.NotificationSent {
		return false, nil
	}
	a.Status = types.AlertStatusTriggered
	a.NotificationSent = true
	a.LastTriggeredAt = &at
	m.alerts[id] = a
	return true, nil
}

func (m memAlerts) UpdateStatus(ctx context.Context, id, userID string, status types.AlertStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return types.NewNotFound(types.CodeAlertNotFound, "alert", id)
	}
	a.Status = status
	m.alerts[id] = a
	return nil
}

func (m memAlerts) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return types.NewNotFound(types.CodeAlertNotFound, "alert", id)
	}
	delete(m.alerts, id)
	return nil
}

// market data

type memMarket struct{ *memStore }

func (m memMarket) Insert(ctx context.Context, md *models.MarketData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if md.ID == "" {
		md.ID = m.nextID("md")
	}
	if md.RecordedAt.IsZero() {
		md.RecordedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	}
	m.market = append(m.market, *md)
	return nil
}

func (m memMarket) Latest(ctx context.Context, tokenID string) (*models.MarketData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.MarketData
	for i := range m.market {
		md := m.market[i]
		if md.TokenID == tokenID && (latest == nil || md.RecordedAt.After(latest.RecordedAt)) {
			latest = &md
		}
	}
	return latest, nil
}

// memCache records invalidations and stores values as-is
type memCache struct {
	mu          sync.Mutex
	values      map[string]interface{}
	portfolios  []string
	holdings    []string
	getCalls    int
	failGetWith error
}

func newMemCache() *memCache {
	return &memCache{values: map[string]interface{}{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.failGetWith != nil {
		return false, c.failGetWith
	}
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *PortfolioPerformance:
		*d = *v.(*PortfolioPerformance)
	case *TokenPerformance:
		*d = *v.(*TokenPerformance)
	}
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) InvalidatePortfolio(ctx context.Context, portfolioID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.portfolios = append(c.portfolios, portfolioID)
	for k := range c.values {
		if len(k) > len("performance:") && k[:len("performance:")] == "performance:" {
			delete(c.values, k)
		}
	}
	return nil
}

func (c *memCache) InvalidateHolding(ctx context.Context, holdingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdings = append(c.holdings, holdingID)
	return nil
}

// memPublisher collects published notifications
type memPublisher struct {
	mu   sync.Mutex
	sent []*models.AlertNotification
	err  error
}

func (p *memPublisher) PublishAlert(ctx context.Context, n *models.AlertNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

// testEnv wires every service against one memStore
type testEnv struct {
	store     *memStore
	cache     *memCache
	publisher *memPublisher

	portfolios *PortfolioService
	markets    *MarketService
	holdings   *HoldingService
	ledger     *LedgerService
	snapshots  *SnapshotService
	alerts     *AlertService

	user      *models.User
	portfolio *models.Portfolio
	token     *models.Token
}

func newTestEnv(now time.Time) *testEnv {
	store := newMemStore()
	cache := newMemCache()
	pub := &memPublisher{}

	users := memUsers{store}
	portfolios := memPortfolios{store}
	tokens := memTokens{store}
	holdings := memHoldings{store}
	txs := memTxs{store}
	history := memHistory{store}
	alerts := memAlerts{store}
	market := memMarket{store}

	env := &testEnv{store: store, cache: cache, publisher: pub}
	env.portfolios = NewPortfolioService(users, portfolios)
	env.markets = NewMarketService(tokens, market)
	env.holdings = NewHoldingService(store, holdings, portfolios, market, cache)
	env.ledger = NewLedgerService(store, holdings, txs, portfolios, tokens, cache)
	env.ledger.now = func() time.Time { return now }
	env.snapshots = NewSnapshotService(history, portfolios, env.holdings, cache, 365)
	env.snapshots.now = func() time.Time { return now }
	env.alerts = NewAlertService(alerts, tokens, market, pub)
	env.alerts.now = func() time.Time { return now }

	ctx := context.Background()
	env.user = &models.User{Email: "owner@example.com", Tier: types.TierFree}
	_ = users.Create(ctx, env.user)
	env.portfolio = &models.Portfolio{UserID: env.user.ID, Name: "main"}
	_ = portfolios.Create(ctx, env.portfolio)
	env.token = &models.Token{Symbol: "ETH", Name: "Ether", Chain: "ethereum"}
	_ = tokens.Create(ctx, env.token)
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
