package http

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/checkout"
	"github.com/mark3labs/fetcch-go/http/internal/helpers"
	"github.com/mark3labs/fetcch-go/notify"
	"github.com/mark3labs/fetcch-go/parity"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = helpers.ErrSessionNotFound

// ErrTooManySessions is returned when the session limit is reached.
var ErrTooManySessions = helpers.ErrTooManySessions

// DefaultMaxSessions bounds the number of concurrently open page views.
const DefaultMaxSessions = 1024

// Storefront hosts checkout sessions, one per page view, on top of a
// payment request service. Routers in the chi and gin packages expose it
// over HTTP.
type Storefront struct {
	Service     fetcch.RequestService
	Catalog     *parity.Catalog
	Chains      []fetcch.ChainDescriptor
	BasePrice   decimal.Decimal
	MaxSessions int
	Logger      *slog.Logger

	checkoutOpts []checkout.Option

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id         string
	country    string
	createdAt  time.Time
	controller *checkout.Controller
	feed       *notify.Feed
}

// StorefrontOption configures a Storefront.
type StorefrontOption func(*Storefront) error

// WithCatalog sets the parity catalog used to localize prices.
func WithCatalog(c *parity.Catalog) StorefrontOption {
	return func(s *Storefront) error {
		if c == nil {
			return errors.New("storefront: nil catalog")
		}
		s.Catalog = c
		return nil
	}
}

// WithChains restricts the chains offered to buyers.
func WithChains(chains []fetcch.ChainDescriptor) StorefrontOption {
	return func(s *Storefront) error {
		if len(chains) == 0 {
			return errors.New("storefront: at least one chain is required")
		}
		s.Chains = append([]fetcch.ChainDescriptor(nil), chains...)
		return nil
	}
}

// WithBasePrice sets the undiscounted reference price.
func WithBasePrice(price decimal.Decimal) StorefrontOption {
	return func(s *Storefront) error {
		if price.IsNegative() {
			return fetcch.ErrInvalidAmount
		}
		s.BasePrice = price
		return nil
	}
}

// WithMaxSessions bounds the number of open sessions.
func WithMaxSessions(n int) StorefrontOption {
	return func(s *Storefront) error {
		if n <= 0 {
			return errors.New("storefront: max sessions must be positive")
		}
		s.MaxSessions = n
		return nil
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l *slog.Logger) StorefrontOption {
	return func(s *Storefront) error {
		s.Logger = l
		return nil
	}
}

// WithCheckoutOptions appends options applied to every session controller,
// e.g. receiver, label or polling configuration.
func WithCheckoutOptions(opts ...checkout.Option) StorefrontOption {
	return func(s *Storefront) error {
		s.checkoutOpts = append(s.checkoutOpts, opts...)
		return nil
	}
}

// NewStorefront creates a Storefront backed by service.
func NewStorefront(service fetcch.RequestService, opts ...StorefrontOption) (*Storefront, error) {
	if service == nil {
		return nil, errors.New("storefront: request service is required")
	}

	s := &Storefront{
		Service:     service,
		Catalog:     parity.Default(),
		Chains:      fetcch.Chains(),
		BasePrice:   checkout.DefaultPrice,
		MaxSessions: DefaultMaxSessions,
		Logger:      slog.Default(),
		sessions:    make(map[string]*session),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// CountryPrice is a parity entry with the localized price on every chain.
type CountryPrice struct {
	parity.Parity
	Price   decimal.Decimal `json:"price"`
	Amounts []ChainAmount   `json:"amounts"`
}

// ChainAmount is a price expressed in the base units of one chain's token.
type ChainAmount struct {
	Chain  int    `json:"chain"`
	Symbol string `json:"tokenName"`
	Amount string `json:"amount"`
}

// SessionUpdate carries the fields a buyer may change. Nil fields are kept.
type SessionUpdate struct {
	Payer   *string `json:"payer,omitempty"`
	Message *string `json:"message,omitempty"`
	Chain   *int    `json:"chain,omitempty"`
}

// SessionView is the JSON representation of a session.
type SessionView struct {
	ID      string `json:"id"`
	Country string `json:"country,omitempty"`
	checkout.Snapshot
	Notifications []fetcch.Notification `json:"notifications"`
}

// CreateSessionRequest is the body of a session creation call.
type CreateSessionRequest struct {
	Country string `json:"country,omitempty"`
}

// BuyResponse is returned by a successful buy call.
type BuyResponse struct {
	Receipt *checkout.Receipt `json:"receipt"`
	Session *SessionView      `json:"session"`
}

// Countries returns the country codes with a parity entry.
func (s *Storefront) Countries() []string {
	return s.Catalog.List()
}

// Country returns the parity entry for country and its localized price.
func (s *Storefront) Country(country string) (*CountryPrice, error) {
	p, err := s.Catalog.Fetch(country)
	if err != nil {
		return nil, err
	}

	price := p.Apply(s.BasePrice)
	out := &CountryPrice{Parity: p, Price: price, Amounts: make([]ChainAmount, 0, len(s.Chains))}
	for _, chain := range s.Chains {
		amount, err := fetcch.ToBaseUnits(price, chain)
		if err != nil {
			return nil, err
		}
		out.Amounts = append(out.Amounts, ChainAmount{Chain: chain.ID, Symbol: chain.Symbol, Amount: amount})
	}
	return out, nil
}

// CreateSession opens a checkout view. When country is set, the reference
// price is discounted by its parity entry.
func (s *Storefront) CreateSession(country string) (*SessionView, error) {
	price := s.BasePrice
	if country != "" {
		p, err := s.Catalog.Fetch(country)
		if err != nil {
			return nil, err
		}
		country = p.Country
		price = p.Apply(s.BasePrice)
	}

	feed := notify.NewFeed()
	opts := append([]checkout.Option{
		checkout.WithChains(s.Chains),
		checkout.WithPrice(price),
		checkout.WithLogger(s.logger()),
	}, s.checkoutOpts...)

	controller, err := checkout.New(s.Service, notify.Multi{feed, notify.NewLog(s.logger())}, opts...)
	if err != nil {
		return nil, err
	}

	sess := &session{
		id:         uuid.NewString(),
		country:    country,
		createdAt:  time.Now(),
		controller: controller,
		feed:       feed,
	}

	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = make(map[string]*session)
	}
	if s.MaxSessions > 0 && len(s.sessions) >= s.MaxSessions {
		s.mu.Unlock()
		controller.Close()
		return nil, ErrTooManySessions
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger().Debug("session opened", "session", sess.id, "country", country, "price", price.String())
	return sess.view(), nil
}

// Session returns the current view of session id.
func (s *Storefront) Session(id string) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

// UpdateSession applies the non-nil fields of u.
func (s *Storefront) UpdateSession(id string, u SessionUpdate) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if u.Chain != nil {
		if err := sess.controller.SelectChain(*u.Chain); err != nil {
			return nil, err
		}
	}
	if u.Payer != nil {
		sess.controller.SetPayer(*u.Payer)
	}
	if u.Message != nil {
		sess.controller.SetMessage(*u.Message)
	}
	return sess.view(), nil
}

// Buy runs the buy-now flow of session id.
func (s *Storefront) Buy(ctx context.Context, id string) (*BuyResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	receipt, err := sess.controller.BuyNow(ctx)
	if err != nil {
		return nil, err
	}
	return &BuyResponse{Receipt: receipt, Session: sess.view()}, nil
}

// CloseSession tears down session id and stops its polling.
func (s *Storefront) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.controller.Close()
	s.logger().Debug("session closed", "session", id)
	return nil
}

// SessionIDs returns the open session ids, oldest first.
func (s *Storefront) SessionIDs() []string {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].createdAt.Before(sessions[j].createdAt) })
	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.id
	}
	return ids
}

// Close tears down every open session.
func (s *Storefront) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.controller.Close()
	}
}

func (s *Storefront) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Storefront) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (sess *session) view() *SessionView {
	return &SessionView{
		ID:            sess.id,
		Country:       sess.country,
		Snapshot:      sess.controller.Snapshot(),
		Notifications: sess.feed.List(),
	}
}
