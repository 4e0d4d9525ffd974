package robot

import (
	"context"
	"errors"
	"fmt"
	"robosync/internal/coordinator"
	"robosync/internal/logger"
	"robosync/internal/metrics"
	"robosync/internal/models"
	"robosync/internal/platform"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	keyToken       = "robot_token"
	keyPubKey      = "pub_key"
	keyEncPrivKey  = "enc_priv_key"
	keyCopiedToken = "copied_token"
)

var ErrNoToken = errors.New("robot has no token")

// Trigger names why a bootstrap was requested.
type Trigger int

const (
	TriggerProfileOpened Trigger = iota
	TriggerFirstContact
	TriggerEndpointChanged
)

func (t Trigger) String() string {
	switch t {
	case TriggerProfileOpened:
		return "profile_opened"
	case TriggerFirstContact:
		return "first_contact"
	case TriggerEndpointChanged:
		return "endpoint_changed"
	default:
		return "unknown"
	}
}

type Mode int

const (
	ModeNone Mode = iota
	// ModeLookup sends the token digest only.
	ModeLookup
	// ModeRegister also sends the keypair so the coordinator can create the robot.
	ModeRegister
)

func (m Mode) String() string {
	switch m {
	case ModeLookup:
		return "lookup"
	case ModeRegister:
		return "register"
	default:
		return "none"
	}
}

type Options struct {
	Metrics *metrics.Metrics
	// OnCurrentOrder receives the robot's current order after each applied response.
	OnCurrentOrder func(orderID int64, ok bool)
}

// Bootstrap keeps the robot identity in sync with the active coordinator.
type Bootstrap struct {
	host    platform.Host
	log     *logger.Logger
	metrics *metrics.Metrics

	onCurrentOrder func(int64, bool)

	mu     sync.Mutex
	client coordinator.Client
	robot  Robot
	seq    uint64
}

func NewBootstrap(client coordinator.Client, host platform.Host, log *logger.Logger, opts Options) *Bootstrap {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &Bootstrap{
		host:           host,
		log:            log,
		metrics:        opts.Metrics,
		onCurrentOrder: opts.OnCurrentOrder,
		client:         client,
	}
}

// Load restores the token and keypair from the host store, generating a new
// token when none is held.
func (b *Bootstrap) Load() error {
	token, err := b.host.Store.Get(keyToken)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	pub, err := b.host.Store.Get(keyPubKey)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}
	enc, err := b.host.Store.Get(keyEncPrivKey)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	copied, _ := b.host.Store.Get(keyCopiedToken)

	if token == "" {
		token, err = GenerateToken()
		if err != nil {
			return err
		}
		if err := b.host.Store.Set(keyToken, token); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
		b.logEntry().Info("Generated new robot token.")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.robot.Token = token
	b.robot.PubKey = pub
	b.robot.EncPrivKey = enc
	b.robot.CopiedToken = copied == "true"
	b.robot.BitsEntropy, b.robot.ShannonEntropy = Entropy(token)
	return nil
}

// SetToken replaces the held token with a recovered one. The keypair and every
// coordinator-scoped attribute belong to the old token and are dropped.
func (b *Bootstrap) SetToken(token string) error {
	if len(token) < TokenLength {
		return fmt.Errorf("token must be at least %d characters", TokenLength)
	}
	if held, err := b.host.Store.Get(keyToken); err == nil && held == token {
		return nil
	}
	for _, key := range []string{keyPubKey, keyEncPrivKey, keyCopiedToken} {
		if err := b.host.Store.Delete(key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	if err := b.host.Store.Set(keyToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.robot.resetScoped()
	b.robot.Token = token
	b.robot.PubKey = ""
	b.robot.EncPrivKey = ""
	b.robot.CopiedToken = false
	b.robot.Stale = true
	b.robot.BitsEntropy, b.robot.ShannonEntropy = Entropy(token)
	return nil
}

// SetKeys stores a locally generated keypair for the held token.
func (b *Bootstrap) SetKeys(pubKey, encPrivKey string) error {
	if err := b.host.Store.Set(keyPubKey, pubKey); err != nil {
		return fmt.Errorf("failed to persist public key: %w", err)
	}
	if err := b.host.Store.Set(keyEncPrivKey, encPrivKey); err != nil {
		return fmt.Errorf("failed to persist private key: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.robot.PubKey = pubKey
	b.robot.EncPrivKey = encPrivKey
	return nil
}

func (b *Bootstrap) Robot() Robot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.robot.clone()
}

// SetClient points the bootstrap at another coordinator. Callers invalidate first.
func (b *Bootstrap) SetClient(client coordinator.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.client = client
}

// Invalidate marks every coordinator-scoped attribute stale and drops any
// response still in flight.
func (b *Bootstrap) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.robot.resetScoped()
	b.robot.Stale = true
	b.robot.Loading = false
}

// SetCurrentOrder records the order the robot is now making, e.g. after a renewal.
func (b *Bootstrap) SetCurrentOrder(orderID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := orderID
	b.robot.ActiveOrderID = &id
}

// CopyToken hands the token to the host clipboard and remembers that it was done.
func (b *Bootstrap) CopyToken() error {
	b.mu.Lock()
	token := b.robot.Token
	b.mu.Unlock()
	if token == "" {
		return ErrNoToken
	}
	if err := b.host.Clipboard.Copy(token); err != nil {
		return fmt.Errorf("failed to copy token: %w", err)
	}
	if err := b.host.Store.Set(keyCopiedToken, "true"); err != nil {
		return fmt.Errorf("failed to persist copied flag: %w", err)
	}
	b.mu.Lock()
	b.robot.CopiedToken = true
	b.mu.Unlock()
	return nil
}

// ModeFor decides which request, if any, a trigger calls for given the robot's state.
func ModeFor(trigger Trigger, r Robot) Mode {
	if r.Token == "" {
		return ModeNone
	}
	switch trigger {
	case TriggerProfileOpened:
		return ModeLookup
	case TriggerFirstContact:
		if r.Nickname == "" {
			return ModeLookup
		}
		return ModeNone
	case TriggerEndpointChanged:
		if r.HasKeys() {
			return ModeRegister
		}
		return ModeLookup
	default:
		return ModeNone
	}
}

// Trigger runs the bootstrap request a trigger calls for. It returns the mode used.
func (b *Bootstrap) Trigger(ctx context.Context, trigger Trigger) (Mode, error) {
	mode := ModeFor(trigger, b.Robot())
	if mode == ModeNone {
		return ModeNone, nil
	}
	b.logEntry().WithFields(logrus.Fields{
		"trigger": trigger.String(),
		"mode":    mode.String(),
	}).Debug("Robot bootstrap triggered.")
	return mode, b.Fetch(ctx, mode)
}

// Fetch posts the token digest (and keypair in ModeRegister) to the active
// coordinator and applies the response if no newer request was issued meanwhile.
func (b *Bootstrap) Fetch(ctx context.Context, mode Mode) error {
	b.mu.Lock()
	if b.robot.Token == "" {
		b.mu.Unlock()
		return ErrNoToken
	}
	req := models.UserRequest{TokenSHA256: Digest(b.robot.Token)}
	if mode == ModeRegister {
		req.PubKey = b.robot.PubKey
		req.EncPrivKey = b.robot.EncPrivKey
	}
	b.seq++
	seq := b.seq
	client := b.client
	b.robot.Loading = true
	b.mu.Unlock()

	resp, err := client.PostUser(ctx, req)

	b.mu.Lock()
	if seq != b.seq {
		b.mu.Unlock()
		b.metrics.StaleResponses.WithLabelValues("robot").Inc()
		b.logEntry().WithField("seq", seq).Debug("Discarding stale robot response.")
		return nil
	}
	if err != nil {
		rejected := errors.Is(err, coordinator.ErrBadRequest)
		if rejected {
			b.robot.resetScoped()
		}
		b.robot.Stale = true
		b.robot.Loading = false
		b.robot.Message = coordinator.Reason(err)
		b.mu.Unlock()
		b.metrics.Bootstraps.WithLabelValues(mode.String(), resultLabel(err)).Inc()
		b.logEntry().WithError(err).WithField("mode", mode.String()).Warn("Robot bootstrap failed.")
		if rejected && b.onCurrentOrder != nil {
			b.onCurrentOrder(0, false)
		}
		return err
	}
	b.applyLocked(resp, client.BaseURL())
	r := b.robot.clone()
	b.mu.Unlock()

	b.persistKeys(r)
	b.metrics.Bootstraps.WithLabelValues(mode.String(), "ok").Inc()
	b.logEntry().WithFields(logrus.Fields{
		"nickname": r.Nickname,
		"mode":     mode.String(),
	}).Info("Robot synchronized.")

	if b.onCurrentOrder != nil {
		id, ok := r.CurrentOrder()
		b.onCurrentOrder(id, ok)
	}
	return nil
}

func (b *Bootstrap) applyLocked(resp models.UserResponse, baseURL string) {
	r := &b.robot
	r.Nickname = resp.Nickname
	r.ActiveOrderID = resp.ActiveOrderID
	r.LastOrderID = resp.LastOrderID
	r.ReferralCode = resp.ReferralCode
	r.EarnedRewards = 0
	if resp.EarnedRewards != nil {
		r.EarnedRewards = *resp.EarnedRewards
	}
	r.StealthInvoices = resp.WantsStealth
	r.TGEnabled = resp.TGEnabled
	r.TGBotName = resp.TGBotName
	r.TGToken = resp.TGToken
	r.BitsEntropy = resp.TokenBitsEntropy.InexactFloat64()
	r.ShannonEntropy = resp.TokenShannonEntropy.InexactFloat64()
	if resp.PublicKey != "" {
		r.PubKey = resp.PublicKey
	}
	if resp.EncryptedPrivateKey != "" {
		r.EncPrivKey = resp.EncryptedPrivateKey
	}
	if resp.Found {
		r.CopiedToken = true
	}
	r.BaseURL = baseURL
	r.Stale = false
	r.Loading = false
	r.Message = ""
}

func (b *Bootstrap) persistKeys(r Robot) {
	if !r.HasKeys() {
		return
	}
	if err := b.host.Store.Set(keyPubKey, r.PubKey); err != nil {
		b.logEntry().WithError(err).Warn("Failed to persist public key.")
	}
	if err := b.host.Store.Set(keyEncPrivKey, r.EncPrivKey); err != nil {
		b.logEntry().WithError(err).Warn("Failed to persist private key.")
	}
}

func resultLabel(err error) string {
	if errors.Is(err, coordinator.ErrBadRequest) {
		return "bad_request"
	}
	return "transport"
}

func (b *Bootstrap) logEntry() *logrus.Entry {
	return b.log.WithComponent("robot")
}
