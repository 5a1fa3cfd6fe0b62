package meetings

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	bookingRepo "slotchain/database/repository/booking"
	nonceRepo "slotchain/database/repository/nonce"
	"slotchain/models"
	"slotchain/services/chain"
	"slotchain/utils"

	"go.uber.org/zap"
)

// ChainReader is the on-chain state the gate checks.
type ChainReader interface {
	OwnerOf(ctx context.Context, tokenID *big.Int) (string, error)
	BookingExpiry(ctx context.Context, tokenID *big.Int) (uint64, error)
}

// SignerRecoverer recovers the wallet that signed a message.
type SignerRecoverer interface {
	RecoverSigner(message, signature string) (string, error)
}

// MeetingAccessService hands out join links only to the current holder of a
// booking token, proven by signing a fresh single-use nonce.
type MeetingAccessService interface {
	GenerateNonce(ctx context.Context, walletAddress, tokenID string) (*models.NonceResponse, error)
	GetMeetingAccess(ctx context.Context, walletAddress, tokenID, signature string) (*models.MeetingAccess, error)
}

type DefaultMeetingAccessService struct {
	Bookings     bookingRepo.BookingRepository
	Nonces       nonceRepo.NonceStore
	Chain        ChainReader
	Signatures   SignerRecoverer
	Logger       *zap.Logger
	Metrics      *utils.Metrics
	NonceTTL     time.Duration
	ChainTimeout time.Duration
	Now          func() time.Time
}

func NewMeetingAccessService(
	bookings bookingRepo.BookingRepository,
	nonces nonceRepo.NonceStore,
	chainReader ChainReader,
	signatures SignerRecoverer,
	logger *zap.Logger,
	metrics *utils.Metrics,
) *DefaultMeetingAccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultMeetingAccessService{
		Bookings:     bookings,
		Nonces:       nonces,
		Chain:        chainReader,
		Signatures:   signatures,
		Logger:       logger,
		Metrics:      metrics,
		NonceTTL:     5 * time.Minute,
		ChainTimeout: 5 * time.Second,
		Now:          time.Now,
	}
}

// GenerateNonce issues a challenge for (wallet, token), replacing any earlier one.
func (s *DefaultMeetingAccessService) GenerateNonce(ctx context.Context, walletAddress, tokenID string) (*models.NonceResponse, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	tokenID = strings.TrimSpace(tokenID)
	if walletAddress == "" || tokenID == "" {
		return nil, utils.NewValidationError("walletAddress and tokenId are required.")
	}

	booking, err := s.loadBooking(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if !booking.MeetingEndTime.IsZero() && booking.MeetingEndTime.Before(now) {
		return nil, utils.NewUnauthorizedError("Meeting has already ended.")
	}

	nonce, err := randomNonce()
	if err != nil {
		return nil, utils.NewInternalError("Failed to generate nonce.", err)
	}
	entry := models.NonceEntry{Nonce: nonce, ExpiresAt: now.Add(s.NonceTTL)}
	if err := s.Nonces.Put(ctx, nonceRepo.Key(walletAddress, tokenID), entry); err != nil {
		return nil, utils.NewInternalError("Failed to store nonce.", err)
	}

	if removed, err := s.Nonces.SweepExpired(ctx, now); err != nil {
		s.Logger.Warn("Nonce sweep failed", zap.Error(err))
	} else if removed > 0 && s.Metrics != nil {
		s.Metrics.NoncesSwept.Add(float64(removed))
	}
	return &models.NonceResponse{Nonce: nonce}, nil
}

// GetMeetingAccess redeems a signed nonce. A nonce whose signature matches the
// wallet is consumed whatever the later checks decide; a bad signature leaves
// it in place for the holder.
func (s *DefaultMeetingAccessService) GetMeetingAccess(ctx context.Context, walletAddress, tokenID, signature string) (access *models.MeetingAccess, err error) {
	defer func() {
		if s.Metrics != nil {
			s.Metrics.AccessChecks.WithLabelValues(utils.Outcome(err)).Inc()
		}
	}()

	walletAddress = strings.TrimSpace(walletAddress)
	tokenID = strings.TrimSpace(tokenID)
	if walletAddress == "" || tokenID == "" || strings.TrimSpace(signature) == "" {
		return nil, utils.NewValidationError("walletAddress, tokenId and signature are required.")
	}
	logger := s.Logger.With(zap.String("walletAddress", walletAddress), zap.String("tokenId", tokenID))

	key := nonceRepo.Key(walletAddress, tokenID)
	entry, err := s.Nonces.Get(ctx, key)
	if errors.Is(err, nonceRepo.ErrNotFound) {
		return nil, utils.NewUnauthorizedError("Verification nonce not found or expired. Request a new one.")
	}
	if err != nil {
		return nil, utils.NewInternalError("Failed to load nonce.", err)
	}
	if !s.Now().Before(entry.ExpiresAt) {
		if _, err := s.Nonces.Consume(ctx, key, entry.Nonce); err != nil {
			logger.Warn("Failed to drop expired nonce", zap.Error(err))
		}
		return nil, utils.NewUnauthorizedError("Verification nonce expired. Request a new one.")
	}

	signer, err := s.Signatures.RecoverSigner(entry.Nonce, signature)
	if err != nil {
		logger.Info("Signature recovery failed", zap.Error(err))
		return nil, utils.NewUnauthorizedError("Invalid signature.")
	}
	if !strings.EqualFold(signer, walletAddress) {
		return nil, utils.NewUnauthorizedError("Signature does not match wallet address.")
	}

	// Only the entry that was signed may be consumed; a reissue in between wins.
	consumed, err := s.Nonces.Consume(ctx, key, entry.Nonce)
	if err != nil {
		return nil, utils.NewInternalError("Failed to consume nonce.", err)
	}
	if !consumed {
		return nil, utils.NewUnauthorizedError("Verification nonce not found or expired. Request a new one.")
	}

	booking, err := s.loadBooking(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if booking.MeetingJoinURL == "" {
		return nil, utils.NewNotFoundError("Meeting link is not available for this booking.")
	}

	token, ok := new(big.Int).SetString(tokenID, 10)
	if !ok || token.Sign() < 0 {
		return nil, utils.NewValidationError("tokenId must be a base-10 integer.")
	}

	cctx, cancel := context.WithTimeout(ctx, s.ChainTimeout)
	defer cancel()

	owner, err := s.Chain.OwnerOf(cctx, token)
	if err != nil {
		return nil, s.chainError(logger, "ownerOf", err)
	}
	if !strings.EqualFold(owner, walletAddress) {
		logger.Info("Token held by another wallet", zap.String("owner", owner))
		return nil, utils.NewUnauthorizedError("Wallet does not own this booking.")
	}

	expiresAt, err := s.Chain.BookingExpiry(cctx, token)
	if err != nil {
		return nil, s.chainError(logger, "bookings", err)
	}
	if expiresAt == 0 || int64(expiresAt) <= s.Now().Unix() {
		return nil, utils.NewUnauthorizedError("Booking has expired.")
	}

	logger.Info("Meeting access granted")
	return &models.MeetingAccess{
		JoinURL:          booking.MeetingJoinURL,
		MeetingStartTime: booking.MeetingStartTime,
		MeetingEndTime:   booking.MeetingEndTime,
		MeetingID:        booking.MeetingID,
	}, nil
}

func (s *DefaultMeetingAccessService) loadBooking(ctx context.Context, tokenID string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByTokenID(ctx, tokenID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, utils.NewNotFoundError("Booking not found for tokenId.")
	}
	if err != nil {
		return nil, utils.NewInternalError("Failed to load booking.", err)
	}
	return booking, nil
}

// chainError separates a token the contract does not know from a node we
// could not reach.
func (s *DefaultMeetingAccessService) chainError(logger *zap.Logger, call string, err error) error {
	if errors.Is(err, chain.ErrTokenNotActive) {
		logger.Info("Token not active on-chain", zap.String("call", call), zap.Error(err))
		return utils.NewUnauthorizedError("Booking token is not active on-chain.")
	}
	logger.Warn("Chain call failed", zap.String("call", call), zap.Error(err))
	return utils.NewUpstreamError("Unable to verify booking on-chain.", err)
}

func randomNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
