package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentVerifier records screenshot submissions and consumes the vision
// collaborator's verdict. It never computes a verdict itself.
type PaymentVerifier struct {
	attempts core.PaymentAttemptRepository
	orders   core.OrderRepository
	flow     *OrderFlow
	gateway  core.MessengerGateway
	vision   core.VisionVerifier
	receipts *ReceiptGenerator
	timeout  time.Duration
	logger   *zap.Logger
}

// NewPaymentVerifier creates a new payment verifier
func NewPaymentVerifier(
	attempts core.PaymentAttemptRepository,
	orders core.OrderRepository,
	flow *OrderFlow,
	gateway core.MessengerGateway,
	vision core.VisionVerifier,
	receipts *ReceiptGenerator,
	timeout time.Duration,
	logger *zap.Logger,
) *PaymentVerifier {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &PaymentVerifier{
		attempts: attempts,
		orders:   orders,
		flow:     flow,
		gateway:  gateway,
		vision:   vision,
		receipts: receipts,
		timeout:  timeout,
		logger:   logger,
	}
}

// HandleScreenshot processes one payment screenshot for an order in
// AWAITING_PAYMENT. Returns the final verdict recorded on the attempt.
// A timeout or collaborator error records NEEDS_REVIEW, flags the order
// for human escalation and surfaces KindPaymentVerificationTimeout so the
// responder can send a "still checking" reply.
func (v *PaymentVerifier) HandleScreenshot(ctx context.Context, business *core.Business, customer *core.Customer, order *core.Order, imageRef string) (core.Verdict, error) {
	if order.Status != core.OrderStatusAwaitingPayment {
		return core.VerdictRejected, core.Errorf(core.KindIllegalTransition,
			"order %s is %s, not awaiting payment", order.ID, order.Status)
	}

	attempt := &core.PaymentAttempt{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		ImageRef:  imageRef,
		Verdict:   core.VerdictNeedsReview,
		CreatedAt: time.Now(),
	}
	if err := v.attempts.Create(ctx, attempt); err != nil {
		return core.VerdictNeedsReview, err
	}
	if err := v.orders.SetScreenshotRef(ctx, order.ID, imageRef); err != nil {
		v.logger.Warn("failed to record screenshot ref",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	verdict, detail, err := v.requestVerdict(ctx, imageRef, order)
	if err != nil {
		// Collaborator unavailable or over budget: keep the order in
		// AWAITING_PAYMENT, escalate to a human, stop automated nudges.
		if reviewErr := v.orders.SetNeedsReview(ctx, order.ID, true); reviewErr != nil {
			v.logger.Warn("failed to flag order for review",
				zap.String("order_id", order.ID), zap.Error(reviewErr))
		}
		v.logger.Warn("payment verification unavailable",
			zap.String("order_id", order.ID), zap.Error(err))
		return core.VerdictNeedsReview, core.NewError(core.KindPaymentVerificationTimeout, err)
	}

	if err := v.attempts.SetVerdict(ctx, attempt.ID, verdict, detail); err != nil {
		return core.VerdictNeedsReview, err
	}

	switch verdict {
	case core.VerdictAccepted:
		if err := v.flow.MarkPaid(ctx, order); err != nil {
			return verdict, err
		}
		v.generateReceipt(ctx, business, customer, order)
	case core.VerdictNeedsReview:
		if err := v.orders.SetNeedsReview(ctx, order.ID, true); err != nil {
			v.logger.Warn("failed to flag order for review",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return verdict, nil
}

// requestVerdict downloads the screenshot and asks the vision collaborator
// under a bounded timeout.
func (v *PaymentVerifier) requestVerdict(ctx context.Context, imageRef string, order *core.Order) (core.Verdict, string, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	imageData, mediaType, err := v.gateway.FetchImageBase64(verifyCtx, imageRef)
	if err != nil {
		return core.VerdictNeedsReview, "", err
	}

	verdict, detail, err := v.vision.VerifyPayment(verifyCtx, imageData, mediaType, order)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(verifyCtx.Err(), context.DeadlineExceeded) {
			return core.VerdictNeedsReview, "", context.DeadlineExceeded
		}
		return core.VerdictNeedsReview, "", err
	}
	return verdict, detail, nil
}

// generateReceipt renders the PDF receipt for a paid order. Best effort:
// receipt failures never undo a payment.
func (v *PaymentVerifier) generateReceipt(ctx context.Context, business *core.Business, customer *core.Customer, order *core.Order) {
	if v.receipts == nil {
		return
	}
	ref, err := v.receipts.Generate(business, order, customer)
	if err != nil {
		v.logger.Warn("failed to generate receipt",
			zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := v.orders.SetReceiptRef(ctx, order.ID, ref); err != nil {
		v.logger.Warn("failed to record receipt ref",
			zap.String("order_id", order.ID), zap.Error(err))
	}
}
