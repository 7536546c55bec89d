// Package checkout drives a single storefront page through the payment
// request lifecycle: validate the buyer, create the request, then watch it
// until it settles.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/metrics"
	"github.com/mark3labs/fetcch-go/notify"
	"github.com/mark3labs/fetcch-go/poller"
	"github.com/mark3labs/fetcch-go/validation"
)

const (
	// DefaultReceiver is the merchant's Fetcch identifier.
	DefaultReceiver = "wag@fetcch"

	// DefaultLabel names the item being sold.
	DefaultLabel = "Alpha Black shirt"
)

// DefaultPrice is the reference price of the item in units of the selected token.
var DefaultPrice = decimal.RequireFromString("0.00000196")

// ErrClosed is returned by operations on a controller whose view was torn down.
var ErrClosed = errors.New("checkout: controller closed")

// User-facing notification texts.
const (
	msgMissingPayer = "Enter Fetcch ID first"
	msgInvalidPayer = "Wrong Fetcch ID"
	msgPending      = "Checking payment request"
)

// Controller owns the selection and payment request of one page view.
// It is safe for concurrent use.
type Controller struct {
	service  fetcch.RequestService
	notifier fetcch.Notifier
	tracker  *poller.Tracker

	receiver   string
	label      string
	chains     []fetcch.ChainDescriptor
	price      decimal.Decimal
	pollConfig poller.Config
	logger     *slog.Logger
	metrics    metrics.Recorder

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	selection Selection
	state     State
	requestID fetcch.RequestID
	chain     fetcch.ChainDescriptor
	handle    fetcch.Handle
	settled   *fetcch.RequestStatus
	lastErr   error
	closed    bool
}

// Option configures a Controller.
type Option func(*Controller) error

// WithReceiver sets the merchant identifier payment requests are addressed to.
func WithReceiver(receiver string) Option {
	return func(c *Controller) error {
		if err := validation.ValidatePayerID(receiver); err != nil {
			return fmt.Errorf("checkout: receiver: %w", err)
		}
		c.receiver = receiver
		return nil
	}
}

// WithLabel sets the item label sent with each request.
func WithLabel(label string) Option {
	return func(c *Controller) error {
		c.label = label
		return nil
	}
}

// WithPrice sets the initial reference price.
func WithPrice(price decimal.Decimal) Option {
	return func(c *Controller) error {
		if price.IsNegative() {
			return fmt.Errorf("%w: price must be non-negative", fetcch.ErrInvalidAmount)
		}
		c.price = price
		return nil
	}
}

// WithChains restricts the selectable chains. The first chain is selected initially.
func WithChains(chains []fetcch.ChainDescriptor) Option {
	return func(c *Controller) error {
		if len(chains) == 0 {
			return errors.New("checkout: at least one chain is required")
		}
		c.chains = append([]fetcch.ChainDescriptor(nil), chains...)
		return nil
	}
}

// WithPollConfig sets the settlement polling configuration.
func WithPollConfig(cfg poller.Config) Option {
	return func(c *Controller) error {
		if cfg.Interval < 0 || cfg.MaxAttempts < 0 || cfg.Timeout < 0 {
			return errors.New("checkout: poll configuration must not be negative")
		}
		c.pollConfig = cfg
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) error {
		c.logger = l
		return nil
	}
}

// WithMetrics sets the metrics recorder used while polling.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Controller) error {
		c.metrics = r
		return nil
	}
}

// New creates a controller for one page view. A nil notifier logs
// notifications instead of displaying them.
func New(service fetcch.RequestService, notifier fetcch.Notifier, opts ...Option) (*Controller, error) {
	if service == nil {
		return nil, errors.New("checkout: request service is required")
	}

	c := &Controller{
		service:    service,
		notifier:   notifier,
		receiver:   DefaultReceiver,
		label:      DefaultLabel,
		chains:     fetcch.Chains(),
		price:      DefaultPrice,
		pollConfig: poller.DefaultConfig,
		logger:     slog.Default(),
		metrics:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.notifier == nil {
		c.notifier = notify.NewLog(c.logger)
	}

	c.tracker = poller.NewTracker(poller.New(service,
		poller.WithConfig(c.pollConfig),
		poller.WithLogger(c.logger),
		poller.WithMetrics(c.metrics),
		poller.WithLabels(c.metricLabels),
	))
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.selection = Selection{Chain: c.chains[0], Price: c.price}

	return c, nil
}

// Chains returns the selectable chains.
func (c *Controller) Chains() []fetcch.ChainDescriptor {
	return append([]fetcch.ChainDescriptor(nil), c.chains...)
}

// SetPayer sets the buyer's Fetcch identifier.
func (c *Controller) SetPayer(payer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Payer = strings.TrimSpace(payer)
}

// SetMessage sets the free-text message attached to the request.
func (c *Controller) SetMessage(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Message = message
}

// SelectChain selects the chain with registry id id.
func (c *Controller) SelectChain(id int) error {
	chain, err := fetcch.FindChain(c.chains, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Chain = chain
	return nil
}

// SetPrice replaces the reference price, e.g. after a parity lookup.
func (c *Controller) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative, got %s", fetcch.ErrInvalidAmount, price)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Price = price
	return nil
}

// Selection returns a copy of the current selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// State returns the lifecycle state of the most recent request.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the selection together with the lifecycle state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Selection: c.selection,
		State:     c.state,
		RequestID: c.requestID,
		Handle:    c.handle,
	}
	if c.settled != nil {
		s.TransactionHash = c.settled.TransactionHash
		s.TransactionURL = c.chain.TransactionURL(c.settled.TransactionHash)
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}

// BuyNow validates the selection, creates a payment request for the
// reference price on the selected chain, and starts watching it for
// settlement. Every failure is reported to the notifier before it is
// returned.
//
// Calling BuyNow while a previous request is still pending creates a new
// request and stops watching the old one.
func (c *Controller) BuyNow(ctx context.Context) (*Receipt, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	sel := c.selection
	c.mu.Unlock()

	if err := validation.ValidatePayerID(sel.Payer); err != nil {
		c.notifier.Error(userMessage(err))
		return nil, err
	}

	amount, err := fetcch.ToBaseUnits(sel.Price, sel.Chain)
	if err != nil {
		c.notifier.Error(userMessage(err))
		return nil, err
	}

	id, err := c.service.CreateRequest(ctx, fetcch.PaymentRequest{
		Payer:    sel.Payer,
		Receiver: c.receiver,
		Amount:   amount,
		Token:    sel.Chain.Token,
		Chain:    sel.Chain.ID,
		Message:  sel.Message,
		Label:    c.label,
	})
	if err != nil {
		c.logger.Warn("payment request not created", "payer", sel.Payer, "chain", sel.Chain.Name, "error", err)
		c.notifier.Error(userMessage(err))
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	receipt := &Receipt{RequestID: id, Amount: amount, Price: sel.Price, Chain: sel.Chain}
	if c.closed {
		return receipt, nil
	}

	c.requestID = id
	c.chain = sel.Chain
	c.state = StatePolling
	c.settled = nil
	c.lastErr = nil

	// Notifiers must not call back into the controller.
	handle := c.notifier.Loading(msgPending)
	c.notifier.Success(fmt.Sprintf("Successfully request %s %s", sel.Price.String(), sel.Chain.Symbol))
	c.handle = handle
	receipt.Handle = handle

	c.logger.Info("payment request created", "request_id", int64(id), "amount", amount, "chain", sel.Chain.Name)
	c.tracker.Track(c.ctx, id, c.settledFunc(id, handle), c.failedFunc(handle))

	return receipt, nil
}

// Close tears down the view: polling stops and no further notifications are
// issued for the current request. It blocks until the watch has exited.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.tracker.Stop()
		c.cancel()
	}
	c.mu.Unlock()

	c.tracker.Wait()
}

// Wait blocks until the current watch has exited.
func (c *Controller) Wait() {
	c.tracker.Wait()
}

func (c *Controller) settledFunc(id fetcch.RequestID, handle fetcch.Handle) poller.SettledFunc {
	return func(status *fetcch.RequestStatus) {
		c.mu.Lock()
		if c.closed || c.requestID != id {
			c.mu.Unlock()
			return
		}
		c.state = StateSettled
		c.settled = status
		c.mu.Unlock()

		c.notifier.Update(handle, fetcch.NotificationSuccess,
			"Successfully resolved payment request - "+status.TransactionHash)
	}
}

func (c *Controller) failedFunc(handle fetcch.Handle) poller.FailedFunc {
	return func(id fetcch.RequestID, err error) {
		c.mu.Lock()
		if c.closed || c.requestID != id {
			c.mu.Unlock()
			return
		}
		c.state = StateFailed
		c.lastErr = err
		c.mu.Unlock()

		c.notifier.Update(handle, fetcch.NotificationError,
			fmt.Sprintf("Payment request %s was not resolved", id))
	}
}

// metricLabels labels the watch of id with the chain the request was made on.
func (c *Controller) metricLabels(id fetcch.RequestID) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requestID != id {
		return nil
	}
	return metrics.ChainLabels(c.chain.ID)
}

// userMessage maps a lifecycle error to the text shown to the buyer.
func userMessage(err error) string {
	switch {
	case errors.Is(err, fetcch.ErrMissingPayerID):
		return msgMissingPayer
	case errors.Is(err, fetcch.ErrInvalidPayerID):
		return msgInvalidPayer
	case errors.Is(err, fetcch.ErrInvalidAmount):
		return "Invalid amount for the selected chain"
	case errors.Is(err, fetcch.ErrServiceUnavailable):
		return "Payment request service unavailable, try again"
	case errors.Is(err, fetcch.ErrProtocol):
		return "Unexpected response from payment request service"
	default:
		return "Payment request failed"
	}
}
