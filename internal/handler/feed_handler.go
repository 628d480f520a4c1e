package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/fairyhunter13/credicambios/internal/model"
)

const defaultKeepAlive = 15 * time.Second

// OrderSnapshotter returns the latest orders, newest first.
type OrderSnapshotter interface {
	RecentOrders(ctx context.Context) ([]model.OrderEvent, error)
}

// OrderSubscriber hands out live order subscriptions.
type OrderSubscriber interface {
	Subscribe() (<-chan model.OrderEvent, func())
}

// FeedHandler streams the live order feed as Server-Sent Events.
type FeedHandler struct {
	orders    OrderSnapshotter
	broker    OrderSubscriber
	keepAlive time.Duration
}

// NewFeedHandler creates a FeedHandler. A non-positive keepAlive uses 15s.
func NewFeedHandler(orders OrderSnapshotter, broker OrderSubscriber, keepAlive time.Duration) *FeedHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &FeedHandler{orders: orders, broker: broker, keepAlive: keepAlive}
}

// Stream handles GET /api/admin/pedidos/stream. It replays the recent orders
// oldest first, then forwards each new order until the client goes away or
// the broker shuts down.
func (h *FeedHandler) Stream(c *fiber.Ctx) error {
	// Subscribe before the snapshot so nothing committed in between is lost.
	events, unsubscribe := h.broker.Subscribe()

	snapshot, err := h.orders.RecentOrders(c.Context())
	if err != nil {
		unsubscribe()
		logFailure(c, err).Msg("failed to load order feed snapshot")
		return internalError(c)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	requestID := c.GetRespHeader(fiber.HeaderXRequestID)
	keepAlive := h.keepAlive

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		// Publishers commit concurrently, so live ids may arrive out of
		// order. Only events already replayed are skipped.
		replayed := make(map[int64]struct{}, len(snapshot))
		for i := len(snapshot) - 1; i >= 0; i-- {
			if err := writeOrderEvent(w, snapshot[i]); err != nil {
				return
			}
			replayed[snapshot[i].TransactionID] = struct{}{}
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case e, ok := <-events:
				if !ok {
					return
				}
				if _, dup := replayed[e.TransactionID]; dup {
					delete(replayed, e.TransactionID)
					continue
				}
				if err := writeOrderEvent(w, e); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				log.Debug().Err(err).Str("request_id", requestID).Msg("order feed client disconnected")
				return
			}
		}
	}))

	return nil
}

func writeOrderEvent(w *bufio.Writer, e model.OrderEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: order\ndata: %s\n\n", e.TransactionID, data)
	return err
}
